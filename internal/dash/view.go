package dash

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nodetop/nodetop/internal/state"
)

func (m Model) renderConnecting() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		TitleStyle.Render("nodetop"),
		"",
		m.spin.View()+" connecting to node...",
		"",
		MutedStyle.Render(m.cfg.MetricsURL),
		MutedStyle.Render(m.cfg.RPCURL),
	)
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) renderDashboard() string {
	sections := []string{
		m.renderHeader(),
		m.renderSecondaryStats(),
		m.renderSparkline(),
		m.renderBlocks(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader is the four stat cards: block height, peers, TPS,
// latency, with the pulse dot in the title.
func (m Model) renderHeader() string {
	s := m.state

	title := TitleStyle.Render(" nodetop ") +
		pulseStyle(s.PulseIntensity()).Render("●")

	cardWidth := m.cardWidth(4)

	// Block height with sync state and external drift.
	height := s.BlockHeight()
	drift := s.System.BlockDifference(height)
	syncStatus := s.SyncStatus()
	syncStyle := CriticalStyle
	switch {
	case syncStatus == "synced" && abs64(drift) < 5:
		syncStyle = HealthyStyle
	case abs64(drift) < 20:
		syncStyle = WarningStyle
	}
	driftStr := "Δ0"
	if drift > 0 {
		driftStr = fmt.Sprintf("Δ-%d", drift)
	} else if drift < 0 {
		driftStr = fmt.Sprintf("Δ+%d", -drift)
	}
	blockCard := renderCard(cardWidth,
		"BLOCK HEIGHT",
		ValueStyle.Render(formatNumber(height)),
		syncStyle.Render("✓ "+syncStatus)+MutedStyle.Render(" ("+driftStr+")"),
	)

	// Peers with trend arrow and health bucket.
	health := s.PeerHealth()
	healthStyle := CriticalStyle
	switch health {
	case "healthy":
		healthStyle = HealthyStyle
	case "ok":
		healthStyle = WarningStyle
	}
	peersCard := renderCard(cardWidth,
		"PEERS",
		ValueStyle.Render(fmt.Sprintf("%d", s.Metrics.PeerCount))+trendArrow(s.PeersTrend(), false),
		healthStyle.Render("↑ "+health),
	)

	// TPS with peak and trend.
	tpsCard := renderCard(cardWidth,
		"TPS",
		TitleStyle.Render(fmt.Sprintf("%.0f", s.TPS()))+trendArrow(s.TPSTrend(), false),
		MutedStyle.Render(fmt.Sprintf("peak: %.0f", s.PeakTPS())),
	)

	// Latency; rising latency is the bad direction.
	latency := s.Metrics.LatencyP99Ms
	latencyStyle := severityStyle(float64(latency), 100, 500)
	latencyCard := renderCard(cardWidth,
		"LATENCY",
		latencyStyle.Render(fmt.Sprintf("%dms", latency))+trendArrow(s.LatencyTrend(), true),
		MutedStyle.Render("p99"),
	)

	cards := lipgloss.JoinHorizontal(lipgloss.Top, blockCard, peersCard, tpsCard, latencyCard)
	return lipgloss.JoinVertical(lipgloss.Left, title, cards)
}

func (m Model) renderSecondaryStats() string {
	sys := m.state.System

	diskStyle := severityStyle(sys.DiskUsedPct, 50, 80)
	disk := LabelStyle.Render("DISK: ") +
		diskStyle.Render(fmt.Sprintf("%.1f%%", sys.DiskUsedPct)) +
		MutedStyle.Render(fmt.Sprintf(" (%.0fGB)", sys.DiskUsedGB))

	services := LabelStyle.Render("SERVICES: ")
	if sys.AllServicesRunning() {
		services += HealthyStyle.Render("✓ all")
	} else {
		services += CriticalStyle.Render("✗ down")
	}

	finLag := sys.FinalizedLag()
	lagStyle := HealthyStyle
	switch {
	case finLag > 10:
		lagStyle = CriticalStyle
	case finLag > 3:
		lagStyle = WarningStyle
	}
	finality := LabelStyle.Render("FINALIZED: ") +
		lagStyle.Render(fmt.Sprintf("-%d", finLag)) +
		MutedStyle.Render(fmt.Sprintf(" (ver -%d)", sys.VerifiedLag()))

	history := LabelStyle.Render("HISTORY: ") +
		ValueStyle.Render(formatNumber(sys.HistoryCount)+" blocks")

	line := strings.Join([]string{disk, services, finality, history}, "  |  ")
	return m.panel(line)
}

// renderSparkline right-aligns the TPS history so the newest sample
// hugs the right edge.
func (m Model) renderSparkline() string {
	width := m.innerWidth()

	data := m.state.TPSSparkline()
	if len(data) > width {
		data = data[len(data)-width:]
	}

	var peak uint64
	for _, v := range data {
		if v > peak {
			peak = v
		}
	}

	var sb strings.Builder
	for i := 0; i < width-len(data); i++ {
		sb.WriteByte(' ')
	}
	for _, v := range data {
		if peak == 0 {
			sb.WriteRune(sparklineBlocks[0])
			continue
		}
		idx := int(v * uint64(len(sparklineBlocks)-1) / peak)
		sb.WriteRune(sparklineBlocks[idx])
	}

	return m.panel(
		MutedStyle.Render("TPS") + "\n" + SparklineStyle.Render(sb.String()))
}

func (m Model) renderBlocks() string {
	blocks := m.state.RecentBlocks()

	rows := m.blockRows()
	wide := m.innerWidth() >= 100

	header := fmt.Sprintf("%-14s  %-10s  %-*s  %-9s  %s",
		"BLOCK", "TXS", hashWidth(wide), "HASH", "GAS", "AGE")
	lines := []string{LabelStyle.Render(header)}

	now := uint64(time.Now().Unix())
	shown := blocks
	if len(shown) > rows {
		shown = shown[:rows]
	}
	for _, b := range shown {
		age := "..."
		if b.Timestamp > 0 && now >= b.Timestamp {
			age = fmt.Sprintf("%ds ago", now-b.Timestamp)
		}
		lines = append(lines, MutedStyle.Render(fmt.Sprintf("%-14s  %-10s  %-*s  %-9s  %s",
			"#"+formatNumber(b.Number),
			fmt.Sprintf("%d txs", b.TxCount),
			hashWidth(wide), elideHash(b.Hash, wide),
			gasBar(b.GasUsed, b.GasLimit),
			age,
		)))
	}
	if len(blocks) == 0 {
		lines = append(lines, MutedStyle.Render("waiting for blocks..."))
	}

	return m.panel(MutedStyle.Render("RECENT BLOCKS") + "\n" + strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	s := m.state

	version := "..."
	if s.RPC.ClientVersion != "" {
		version = strings.Replace(s.RPC.ClientVersion, "Monad/", "v", 1)
	}

	status := MutedStyle.Render("last: ...")
	if err := s.LastError(); err != "" {
		status = ErrorBannerStyle.Render("⚠ " + err)
	} else if since, ok := s.TimeSinceLastBlock(); ok {
		status = MutedStyle.Render(fmt.Sprintf("last: %.1fs", since.Seconds()))
	}

	parts := []string{
		LabelStyle.Render("UPTIME: ") + ValueStyle.Render(s.Metrics.UptimeHuman()),
		LabelStyle.Render("GAS: ") + ValueStyle.Render(fmt.Sprintf("%.0fgwei", s.RPC.GasPriceGwei)),
		LabelStyle.Render("NET: ") + ValueStyle.Render(
			"↓"+state.FormatBandwidth(s.RxRate())+" ↑"+state.FormatBandwidth(s.TxRate())),
		MutedStyle.Render(version),
		status,
		MutedStyle.Render("q: quit  ?: help"),
	}
	return m.panel(strings.Join(parts, "  |  "))
}

func (m Model) renderHelp() string {
	title := HelpTitleStyle.Render("nodetop keys")
	if !m.helpReady {
		return title + "\n" + helpContent()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.helpView.View(),
		MutedStyle.Render("  ?: close  esc: close  q: quit"),
	)
}

func helpContent() string {
	rows := [][2]string{
		{"q / esc / ctrl+c", "quit"},
		{"r", "refresh all sources now"},
		{"?", "toggle this help"},
		{"↑/k ↓/j", "scroll help"},
	}
	var sb strings.Builder
	sb.WriteString("\n")
	for _, row := range rows {
		sb.WriteString("  ")
		sb.WriteString(ValueStyle.Render(fmt.Sprintf("%-18s", row[0])))
		sb.WriteString(LabelStyle.Render(row[1]))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(LabelStyle.Render("  The header pulse dot flashes on every new block.\n"))
	sb.WriteString(LabelStyle.Render("  The error banner clears on the next good metrics poll.\n"))
	return sb.String()
}

// panel wraps content in the bordered panel style, sized to the
// terminal when known.
func (m Model) panel(content string) string {
	style := PanelStyle
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	return style.Render(content)
}

func (m Model) innerWidth() int {
	if m.width > 8 {
		return m.width - 6
	}
	return 72
}

func (m Model) cardWidth(columns int) int {
	if m.width > columns*8 {
		return m.width/columns - 4
	}
	return 18
}

// blockRows is how many block rows fit under the fixed chrome.
func (m Model) blockRows() int {
	if m.height == 0 {
		return 10
	}
	rows := m.height - 18
	if rows < 3 {
		return 3
	}
	return rows
}

func renderCard(width int, label string, lines ...string) string {
	content := []string{LabelStyle.Render(label)}
	content = append(content, lines...)
	return PanelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Center, content...))
}

// trendArrow renders the three-valued trend. inverted flips the
// good/bad coloring for metrics where rising is bad.
func trendArrow(trend int, inverted bool) string {
	if trend == 0 {
		return ""
	}
	up := trend > 0
	good := up != inverted
	style := HealthyStyle
	if !good {
		style = CriticalStyle
	}
	glyph := TrendDownGlyph
	if up {
		glyph = TrendUpGlyph
	}
	return " " + style.Render(glyph)
}

// elideHash shortens 0x-hashes on narrow terminals: 0x1234abcd...ef01.
func elideHash(hash string, wide bool) string {
	if wide || len(hash) <= 14 {
		return hash
	}
	return hash[:8] + "..." + hash[len(hash)-4:]
}

func hashWidth(wide bool) int {
	if wide {
		return 66
	}
	return 16
}

// gasBar draws a 9-cell fill bar with the percentage embedded:
// "███47%░░░".
func gasBar(gasUsed, gasLimit uint64) string {
	var pct float64
	if gasLimit > 0 {
		pct = float64(gasUsed) / float64(gasLimit) * 100
	}

	pctStr := fmt.Sprintf("%.0f%%", pct)
	space := 9 - len(pctStr)
	filled := int(pct/100*float64(space) + 0.5)
	if filled > space {
		filled = space
	}
	return strings.Repeat("█", filled) + pctStr + strings.Repeat("░", space-filled)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
