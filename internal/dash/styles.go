package dash

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Dashboard color palette - Monad brand purple on a muted gray scale
const (
	ColorPrimary = lipgloss.Color("#6E54FF") // Brand purple
	ColorLight   = lipgloss.Color("#DDD7FE") // Pale lavender, pulse at rest
	ColorBorder  = lipgloss.Color("#3A3A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#DCDCDC")
	ColorTextSecondary = lipgloss.Color("#B4B4B4")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")
)

// Base styles for the dashboard
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HealthyStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	CriticalStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	SparklineStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	ErrorBannerStyle = lipgloss.NewStyle().
				Foreground(ColorCritical)

	HelpTitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)
)

// Trend indicator glyphs
const (
	TrendUpGlyph   = "▲"
	TrendDownGlyph = "▼"
)

// sparklineBlocks are the eight vertical fill levels, lowest first.
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// severityStyle buckets a percentage against fixed good/bad cutoffs.
func severityStyle(pct, warnAt, critAt float64) lipgloss.Style {
	switch {
	case pct >= critAt:
		return CriticalStyle
	case pct >= warnAt:
		return WarningStyle
	default:
		return HealthyStyle
	}
}

// pulseStyle fades the heartbeat dot from brand purple at full
// intensity to pale lavender at rest.
func pulseStyle(intensity float64) lipgloss.Style {
	r := uint8(221 - 111*intensity)
	g := uint8(215 - 131*intensity)
	b := uint8(254 + 1*intensity)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, b)))
}

// formatNumber adds thousands separators for large counters.
func formatNumber(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
