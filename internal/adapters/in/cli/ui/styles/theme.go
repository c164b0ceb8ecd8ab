package styles

import "github.com/charmbracelet/lipgloss"

// Theme contains the composed styles for CLI output.
var Theme = struct {
	Title lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style
	URL   lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	BadgeSuccess lipgloss.Style
	BadgeError   lipgloss.Style
	BadgePending lipgloss.Style
	BadgeInfo    lipgloss.Style

	ListBullet lipgloss.Style
	Box        lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary),

	Muted: lipgloss.NewStyle().
		Foreground(ColorTextMuted),

	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorText),

	URL: lipgloss.NewStyle().
		Underline(true).
		Foreground(ColorSecondary),

	Success: lipgloss.NewStyle().
		Foreground(ColorSuccess),

	Error: lipgloss.NewStyle().
		Foreground(ColorError),

	Warning: lipgloss.NewStyle().
		Foreground(ColorWarning),

	Info: lipgloss.NewStyle().
		Foreground(ColorInfo),

	BadgeSuccess: lipgloss.NewStyle().
		Foreground(ColorBg).
		Background(ColorSuccess).
		Padding(0, 1),

	BadgeError: lipgloss.NewStyle().
		Foreground(ColorBg).
		Background(ColorError).
		Padding(0, 1),

	BadgePending: lipgloss.NewStyle().
		Foreground(ColorBg).
		Background(ColorTextMuted).
		Padding(0, 1),

	BadgeInfo: lipgloss.NewStyle().
		Foreground(ColorBg).
		Background(ColorAccent).
		Padding(0, 1),

	ListBullet: lipgloss.NewStyle().
		Foreground(ColorPrimary),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1),
}

// RenderBadge returns a styled badge for a site status.
func RenderBadge(status string) string {
	switch status {
	case "active", "available":
		return Theme.BadgeSuccess.Render(status)
	case "failed", "taken":
		return Theme.BadgeError.Render(status)
	case "pending":
		return Theme.BadgePending.Render(status)
	default:
		return Theme.BadgeInfo.Render(status)
	}
}

// RenderListItem returns a formatted list item with bullet.
func RenderListItem(item string) string {
	return Theme.ListBullet.Render(IconBullet) + " " + item
}

// RenderError returns a styled error message.
func RenderError(msg string) string {
	return Theme.Error.Render(IconError + " " + msg)
}

// RenderSuccess returns a styled success message.
func RenderSuccess(msg string) string {
	return Theme.Success.Render(IconSuccess + " " + msg)
}

// RenderWarning returns a styled warning message.
func RenderWarning(msg string) string {
	return Theme.Warning.Render(IconWarning + " " + msg)
}

// RenderInfo returns a styled info message.
func RenderInfo(msg string) string {
	return Theme.Info.Render(IconInfo + " " + msg)
}
