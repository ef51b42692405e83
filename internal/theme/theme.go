// Package theme holds the terminal styles used by the setup wizard and CLI
// output.
package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// PanelStyle wraps a block of key/value output.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// KeyStyle renders the label column of a key/value row.
var KeyStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Width(18)

// ValueStyle renders the value column of a key/value row.
var ValueStyle = lipgloss.NewStyle().
	Foreground(ColorWhite)

// OKStyle marks a successful or enabled item.
var OKStyle = lipgloss.NewStyle().
	Foreground(ColorGreen).
	Bold(true)

// WarnStyle marks an item needing attention.
var WarnStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// HelpStyle is used for hints below the summary.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)
