// Package styles provides the terminal styling used by the sitehost CLI.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	NeonGreen  = lipgloss.Color("#00ff88")
	NeonCyan   = lipgloss.Color("#00ccff")
	NeonViolet = lipgloss.Color("#a78bfa")
	NeonRed    = lipgloss.Color("#ff4444")
	NeonYellow = lipgloss.Color("#fbbf24")

	Neutral200 = lipgloss.Color("#e5e5e5")
	Neutral500 = lipgloss.Color("#737373")
	Neutral700 = lipgloss.Color("#404040")

	// Semantic colors
	ColorPrimary   = NeonGreen
	ColorSecondary = NeonCyan
	ColorAccent    = NeonViolet
	ColorSuccess   = NeonGreen
	ColorWarning   = NeonYellow
	ColorError     = NeonRed
	ColorInfo      = NeonCyan

	ColorText      = Neutral200
	ColorTextMuted = Neutral500
	ColorBorder    = Neutral700
	ColorBg        = lipgloss.Color("#000000")
)
