package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// StatusRow is one labeled line in a status panel.
type StatusRow struct {
	Label string
	Value string
}

// StatusPanel renders a bordered startup summary:
//
//	╭──────────────────────────────────────╮
//	│ voicebridge [serving]                │
//	│  doubao  ws://:3001/doubao-proxy     │
//	│  glm     ws://:3000/proxy            │
//	╰──────────────────────────────────────╯
type StatusPanel struct {
	Styles Styles
	Title  string
	Status string
	Rows   []StatusRow
}

// Render renders the panel to a string at the given width.
func (p StatusPanel) Render(width int) string {
	if width < 16 {
		width = 16
	}

	bc := p.Styles.Border
	maxContentWidth := width - 4

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	// Title line: │ title [status]    │
	title := p.Styles.Title.Render(p.Title)
	status := p.Styles.Help.Render("[" + p.Status + "]")
	padding := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	lines = append(lines, bc.Render("│")+" "+title+" "+status+
		strings.Repeat(" ", padding)+" "+bc.Render("│"))

	labelWidth := 0
	for _, row := range p.Rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
	}

	// Row layout: │··label··value···│
	for _, row := range p.Rows {
		text := row.Value
		valueWidth := maxContentWidth - labelWidth - 3
		if valueWidth > 1 && lipgloss.Width(text) > valueWidth {
			text = truncateString(text, valueWidth-1) + "…"
		}
		label := p.Styles.Label.Render(row.Label) +
			strings.Repeat(" ", max(0, labelWidth-lipgloss.Width(row.Label)))
		fill := max(0, width-7-labelWidth-lipgloss.Width(text))
		lines = append(lines, bc.Render("│")+"  "+label+"  "+text+
			strings.Repeat(" ", fill)+" "+bc.Render("│"))
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	return strings.Join(lines, "\n")
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width {
			return string(runes[:i])
		}
		currentWidth += w
	}
	return s
}
