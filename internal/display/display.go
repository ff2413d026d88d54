// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type keeps a status area (mode, step progress, live summary
// and visible field errors) and an input prompt at the bottom of the
// terminal. All application output is printed above the rendered area
// via Program.Println / Printf, ensuring concurrent writes never garble
// the display.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottointake/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	stepDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	stepCurrentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fde68a")).
				Bold(true)

	stepTodoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd")).
			Bold(true)

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// promptText is plain so the textinput width math stays correct.
const promptText = "intake> "

// refreshInterval is short enough to show a step transition landing.
const refreshInterval = 100 * time.Millisecond

// Status is what the status area shows.
type Status struct {
	Mode          domain.Mode
	Step          domain.Step
	Completion    domain.StepCompletion
	Transitioning bool
	Phase         domain.Phase
	Summary       string
	Errors        domain.FieldErrors
}

// StatusFunc reports the current status. It is called on every refresh
// from the Bubble Tea goroutine.
type StatusFunc func() Status

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking).  Other goroutines may
// safely call [UI.Println], [UI.Printf], and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	status  StatusFunc
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(status StatusFunc) *UI {
	return &UI{
		status:  status,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe.
// If the program hasn't started yet, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt. Thread-safe.
// The output is printed on its own line.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintChat prints a conversational line.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintStep prints a step header like "Step 2/4 · style".
func (u *UI) PrintStep(text string) {
	u.Println(stepStyle.Render("  " + text))
}

// PrintInstruction prints primary text.
func (u *UI) PrintInstruction(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("intake") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop.  Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	ti.Prompt = promptText
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 60 // updated on first WindowSizeMsg

	m := model{
		statusFn: u.status,
		input:    ti,
		inputCh:  u.inputCh,
		readyCh:  u.readyCh,
		echoFn: func(v string) {
			u.PrintUserInput(v)
		},
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	statusFn StatusFunc
	status   Status
	input    textinput.Model
	inputCh  chan<- string
	readyCh  chan struct{}
	echoFn   func(string) // prints user input into scrollback
	width    int
}

// Messages.
type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Print the echo from a Cmd so it runs outside Update.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(promptText) {
			m.input.Width = msg.Width - len(promptText)
		}
		return m, nil

	case tickMsg:
		if m.statusFn != nil {
			m.status = m.statusFn()
		}
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(Title(m.status)))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder

	w := m.width
	if w <= 0 {
		w = 80
	}
	if m.statusFn != nil {
		b.WriteString(barBg.Width(w).Render(" " + RenderProgress(m.status) + " "))
		b.WriteByte('\n')
		b.WriteString(secondaryStyle.Render("  " + m.status.Summary))
		b.WriteByte('\n')
		if errs := RenderErrors(m.status.Errors); errs != "" {
			b.WriteString(urgentOutputStyle.Render(errs))
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

// ── Rendering ────────────────────────────────────────────────────

// RenderProgress renders the mode and, in guided mode, one marker per
// step: done steps get a check, the current step is highlighted.
func RenderProgress(s Status) string {
	if s.Mode == domain.ModeQuick {
		return modeStyle.Render("Quick") + sepStyle.Render("  │  ") + phaseLabel(s.Phase)
	}

	parts := make([]string, 0, int(domain.LastStep))
	for st := domain.FirstStep; st <= domain.LastStep; st++ {
		label := fmt.Sprintf("%d %s", int(st), st)
		switch {
		case st == s.Step && s.Transitioning:
			parts = append(parts, stepCurrentStyle.Render(label+" …"))
		case st == s.Step:
			parts = append(parts, stepCurrentStyle.Render("● "+label))
		case s.Completion[st]:
			parts = append(parts, stepDoneStyle.Render("✓ "+label))
		default:
			parts = append(parts, stepTodoStyle.Render("○ "+label))
		}
	}
	return modeStyle.Render("Guided") + sepStyle.Render("  │  ") +
		strings.Join(parts, sepStyle.Render(" ─ ")) +
		sepStyle.Render("  │  ") + phaseLabel(s.Phase)
}

func phaseLabel(p domain.Phase) string {
	switch p {
	case domain.PhaseSubmitting:
		return stepCurrentStyle.Render("generating…")
	case domain.PhaseFailed:
		return urgentOutputStyle.Render("failed, type retry")
	case domain.PhaseDone:
		return stepDoneStyle.Render("done")
	default:
		return stepTodoStyle.Render("editing")
	}
}

// RenderErrors renders visible field errors in form order, one per line.
func RenderErrors(errs domain.FieldErrors) string {
	var lines []string
	for _, f := range domain.Fields {
		if msg, ok := errs[f]; ok {
			lines = append(lines, "  "+f.Label()+": "+msg)
		}
	}
	return strings.Join(lines, "\n")
}

// Title is the terminal window title for a status.
func Title(s Status) string {
	if s.Mode == domain.ModeQuick {
		return "OttoIntake · quick"
	}
	return fmt.Sprintf("OttoIntake · step %d/%d", int(s.Step), int(domain.LastStep))
}
