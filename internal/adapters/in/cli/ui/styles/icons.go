package styles

// Status icons. Plain unicode so no patched font is needed.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconInfo    = "i"
	IconBullet  = "▸"
	IconArrow   = "→"
)
