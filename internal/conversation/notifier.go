package conversation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

var (
	infoStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	urgentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	fieldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...interface{})

// CLINotifier writes notifications to the terminal.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewCLINotifier creates a terminal notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a normal notification.
func (n *CLINotifier) Notify(_ context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s", infoStyle.Render(message))
	return nil
}

// NotifyUrgent prints an urgent notification in bold red.
func (n *CLINotifier) NotifyUrgent(_ context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s", urgentStyle.Render(message))
	return nil
}

// NotifyFieldErrors prints one line per field error, in form order.
func (n *CLINotifier) NotifyFieldErrors(ctx context.Context, errs domain.FieldErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return n.NotifyUrgent(ctx, FormatFieldErrors(errs))
}

// FormatFieldErrors renders errors as "Label: message" lines in form order.
// Keys outside the known fields follow, sorted by name.
func FormatFieldErrors(errs domain.FieldErrors) string {
	var lines []string
	seen := make(map[domain.Field]bool, len(errs))
	for _, f := range domain.Fields {
		if msg, ok := errs[f]; ok {
			lines = append(lines, fieldStyle.Render(f.Label())+": "+msg)
			seen[f] = true
		}
	}
	var rest []string
	for f, msg := range errs {
		if !seen[f] {
			rest = append(rest, fieldStyle.Render(f.Label())+": "+msg)
		}
	}
	sort.Strings(rest)
	return strings.Join(append(lines, rest...), "\n")
}
