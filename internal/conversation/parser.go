// Package conversation turns typed input into intake intents and prints
// notifications back to the user.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches user input to intents using keywords and simple
// patterns. In quick mode anything that is not a command is description
// text; in guided mode it must be a field edit.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

var (
	gotoRe     = regexp.MustCompile(`(?i)^(?:go\s*to|step)\s+([1-4])$`)
	setRe      = regexp.MustCompile(`(?i)^set\s+([a-z_-]+)\s+(.*)$`)
	colonRe    = regexp.MustCompile(`(?i)^([a-z][a-z _-]*?)\s*[:=]\s*(.*)$`)
	shortcutRe = regexp.MustCompile(`(?i)^(flavou?r|skill|type|meal\s*type)\s+(.+)$`)
	recipesRe  = regexp.MustCompile(`(?i)^(?:recipes|search)(?:\s+(.*))?$`)
)

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(next|n|continue|ok)$`), domain.IntentNext},
		{regexp.MustCompile(`(?i)^(back|b|previous|prev)$`), domain.IntentPrevious},
		{regexp.MustCompile(`(?i)^(quick|quick mode|shortcut)$`), domain.IntentSwitchQuick},
		{regexp.MustCompile(`(?i)^(guided|resume|guided mode)$`), domain.IntentResumeGuided},
		{regexp.MustCompile(`(?i)^(new|start over|start new)$`), domain.IntentStartNew},
		{regexp.MustCompile(`(?i)^(reset|clear)$`), domain.IntentReset},
		{regexp.MustCompile(`(?i)^(submit|generate|send|confirm)$`), domain.IntentSubmit},
		{regexp.MustCompile(`(?i)^(retry|try again)$`), domain.IntentRetry},
		{regexp.MustCompile(`(?i)^(status|where|progress)$`), domain.IntentStatus},
		{regexp.MustCompile(`(?i)^(options|choices|list)$`), domain.IntentOptions},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.IntentQuit},
	}
	return p
}

// Parse converts user input into an intent.
func (p *KeywordParser) Parse(_ context.Context, input string, mode domain.Mode) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q (%s)", trimmed, mode)

	for _, rule := range p.patterns {
		if rule.regex.MatchString(trimmed) {
			p.log.Debug("matched intent: %s", rule.intent)
			return &domain.Intent{Type: rule.intent}, nil
		}
	}
	if m := gotoRe.FindStringSubmatch(trimmed); m != nil {
		return &domain.Intent{Type: domain.IntentGoTo, Step: domain.Step(m[1][0] - '0')}, nil
	}
	// Status with a payload lists received recipes matching it.
	if m := recipesRe.FindStringSubmatch(trimmed); m != nil {
		q := strings.TrimSpace(m[1])
		if q == "" {
			q = "*"
		}
		return &domain.Intent{Type: domain.IntentStatus, Payload: q}, nil
	}

	if mode == domain.ModeQuick {
		return &domain.Intent{Type: domain.IntentQuickText, Payload: trimmed}, nil
	}

	if intent, ok := parseEdit(trimmed); ok {
		p.log.Debug("field edit: %s=%q", intent.Field, intent.Payload)
		return intent, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}, nil
}

// parseEdit recognises "set <field> <value>", "<field>: <value>" and the
// flavor/skill/type shortcuts. A name that is not a form field is taken as
// a flavor-control category key, lower-cased.
func parseEdit(s string) (*domain.Intent, bool) {
	if m := shortcutRe.FindStringSubmatch(s); m != nil {
		if f, ok := domain.FieldFromString(m[1]); ok {
			return setField(f, m[2]), true
		}
	}
	if m := setRe.FindStringSubmatch(s); m != nil {
		return setField(fieldOrCategory(m[1]), m[2]), true
	}
	if m := colonRe.FindStringSubmatch(s); m != nil {
		return setField(fieldOrCategory(m[1]), m[2]), true
	}
	return nil, false
}

func fieldOrCategory(name string) domain.Field {
	if f, ok := domain.FieldFromString(name); ok {
		return f
	}
	key := strings.ToLower(strings.TrimSpace(name))
	return domain.Field(strings.NewReplacer(" ", "_", "-", "_").Replace(key))
}

func setField(f domain.Field, value string) *domain.Intent {
	return &domain.Intent{Type: domain.IntentSetField, Field: f, Payload: strings.TrimSpace(value)}
}

// IsFormField reports whether f is one of the form's own fields rather
// than a flavor-control category key.
func IsFormField(f domain.Field) bool {
	for _, known := range domain.Fields {
		if f == known {
			return true
		}
	}
	return false
}
