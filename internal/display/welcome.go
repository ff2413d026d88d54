package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed welcome.txt
var welcomeArt string

// WelcomeStyle is the muted slate of the startup screen.
var WelcomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))

var taglineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#bbf7d0"))

// RenderWelcome returns the startup screen for the terminal: the art, then
// a line naming the meal types on offer, as one block centred on the
// widest line.
func RenderWelcome(mealTypes []string) string {
	return renderWelcome(welcomeArt, tagline(mealTypes), termWidth())
}

func tagline(mealTypes []string) string {
	if len(mealTypes) == 0 {
		return "recipe intake"
	}
	return "recipe intake · " + strings.ToLower(strings.Join(mealTypes, " · "))
}

func renderWelcome(art, line string, width int) string {
	rows := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if line != "" {
		rows = append(rows, "", line)
	}

	// lipgloss.Width counts cells, so "·" in the tagline is one column.
	block := 0
	for _, r := range rows {
		block = max(block, lipgloss.Width(r))
	}
	indent := ""
	if width > block {
		indent = strings.Repeat(" ", (width-block)/2)
	}

	var b strings.Builder
	last := len(rows) - 1
	for i, r := range rows {
		style := WelcomeStyle
		if line != "" && i == last {
			style = taglineStyle
			// The tagline sits under the middle of the art.
			if pad := (block - lipgloss.Width(r)) / 2; pad > 0 {
				r = strings.Repeat(" ", pad) + r
			}
		}
		if r != "" {
			b.WriteString(indent)
			b.WriteString(style.Render(r))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
