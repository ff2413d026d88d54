// OttoIntake is a guided recipe intake in the terminal: a four-step form
// (or a one-line quick mode) that is autosaved as a draft and submitted
// for recipe generation.
//
// Usage:
//
//	ottointake [-verbose] [-quiet] [-env file] [-log-file path]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/hammamikhairi/ottointake/internal/auth"
	"github.com/hammamikhairi/ottointake/internal/backend"
	"github.com/hammamikhairi/ottointake/internal/catalog"
	"github.com/hammamikhairi/ottointake/internal/config"
	"github.com/hammamikhairi/ottointake/internal/conversation"
	"github.com/hammamikhairi/ottointake/internal/display"
	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/draft"
	"github.com/hammamikhairi/ottointake/internal/engine"
	"github.com/hammamikhairi/ottointake/internal/gpt"
	"github.com/hammamikhairi/ottointake/internal/logger"
	"github.com/hammamikhairi/ottointake/internal/recipe"
	"github.com/hammamikhairi/ottointake/internal/storage"
	"github.com/hammamikhairi/ottointake/internal/submit"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	logFile := flag.String("log-file", "", "file to write logs to (use \"stderr\" to log to console)")
	draftBackend := flag.String("draft-backend", "", "draft store: memory, sqlite, postgres or redis")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.LogLevel = logger.LevelVerbose
	}
	if *quiet {
		cfg.LogLevel = logger.LevelOff
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *draftBackend != "" {
		cfg.Draft.Backend = *draftBackend
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to a file by default so the prompt stays clean.
	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" && cfg.LogFile != "stderr" {
		if dir := filepath.Dir(cfg.LogFile); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.LogFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(cfg.LogLevel, logOut)

	if err := run(cfg, log); err != nil {
		log.Error("%v", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	// Cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		loaded, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			return err
		}
		cat = loaded
	}

	if cfg.Draft.Backend == storage.BackendSQLite {
		if dir := filepath.Dir(cfg.Draft.DSN); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	kv, err := storage.Open(ctx, cfg.Draft, log)
	if err != nil {
		return fmt.Errorf("opening draft store: %w", err)
	}
	defer kv.Close()

	drafts := draft.New(kv, log.Named("draft"), draft.WithDebounce(cfg.DraftDebounce))
	defer drafts.Close()

	gen, identity, err := buildGenerator(cfg, log)
	if err != nil {
		return err
	}

	inbox := recipe.NewInbox(log.Named("inbox"))
	orch, err := submit.New(gen, identity, drafts, inbox, log.Named("submit"), submit.WithCatalog(cat))
	if err != nil {
		return err
	}

	session := engine.New(cat, drafts, orch, log.Named("session"), engine.WithDwell(cfg.TransitionDwell))
	defer session.Close()

	ui := display.NewUI(func() display.Status { return statusOf(session.Snapshot()) })
	app := &cliApp{
		session:  session,
		catalog:  cat,
		inbox:    inbox,
		parser:   conversation.NewKeywordParser(log),
		notifier: conversation.NewCLINotifier(log, ui.Printf),
		log:      log,
		ui:       ui,
	}

	fmt.Println(display.RenderWelcome(cat.Names()))
	fmt.Println(display.WelcomeStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal and blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	return nil
}

// buildGenerator picks the generation service when a URL is set, else a
// direct model call.
func buildGenerator(cfg config.Config, log *logger.Logger) (domain.Generator, domain.IdentityProvider, error) {
	switch cfg.Generator() {
	case config.GeneratorBackend:
		client := backend.NewClient(cfg.BackendURL, log.Named("backend"), backend.WithHTTPTimeout(cfg.HTTPTimeout))
		identity := auth.NewTokenProvider(cfg.Token, log.Named("auth"), auth.WithTokenFile(cfg.TokenFile))
		log.Info("generating with %s", cfg.BackendURL)
		return client, identity, nil
	case config.GeneratorOpenAI:
		client := gpt.NewClient(cfg.OpenAIKey, log.Named("gpt"),
			gpt.WithBaseURL(cfg.OpenAIBaseURL),
			gpt.WithModel(cfg.OpenAIModel),
			gpt.WithHTTPTimeout(cfg.HTTPTimeout),
		)
		log.Info("generating directly with model %s", client.Model())
		// No user account is involved in direct generation.
		identity := auth.Static{Identity: domain.Identity{UserID: "local", Token: "local"}}
		return gpt.NewGenerator(client, log.Named("gpt")), identity, nil
	default:
		return nil, nil, config.ErrNoGenerator
	}
}

func statusOf(s engine.Snapshot) display.Status {
	return display.Status{
		Mode:          s.Mode,
		Step:          s.Step,
		Completion:    s.Completion,
		Transitioning: s.Transitioning,
		Phase:         s.Phase,
		Summary:       s.Summary,
		Errors:        s.Errors,
	}
}
