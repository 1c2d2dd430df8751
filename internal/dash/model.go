// Package dash renders the live dashboard: a Bubble Tea model that
// drains the feed channel into the aggregate and redraws on a fast
// tick so animation never waits on data.
package dash

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/nodetop/nodetop/internal/config"
	"github.com/nodetop/nodetop/internal/errors"
	"github.com/nodetop/nodetop/internal/feed"
	"github.com/nodetop/nodetop/internal/logger"
	"github.com/nodetop/nodetop/internal/state"
)

// redrawInterval is the UI tick. Fast enough that the pulse fade looks
// continuous, independent of data cadence.
const redrawInterval = 100 * time.Millisecond

// tickMsg signals a redraw.
type tickMsg time.Time

// updateMsg carries one producer update off the feed channel.
type updateMsg feed.Update

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	cfg        *config.Config
	state      *state.AppState
	dispatcher *feed.Dispatcher
	updates    <-chan feed.Update
	log        logger.Logger

	width  int
	height int

	// No data has arrived yet; show the connecting screen.
	connected bool
	spin      spinner.Model

	helpView  viewport.Model
	helpReady bool
	showHelp  bool

	quitting bool
}

// NewModel builds the dashboard model around a started dispatcher.
func NewModel(cfg *config.Config, dispatcher *feed.Dispatcher, log logger.Logger) Model {
	if log == nil {
		log = logger.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = TitleStyle

	return Model{
		cfg:        cfg,
		state:      state.New(cfg.SystemInterval),
		dispatcher: dispatcher,
		updates:    dispatcher.Updates(),
		log:        log,
		spin:       sp,
	}
}

// Init starts the redraw tick, the feed poll, and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.pollUpdateCmd(), m.spin.Tick)
}

// Update handles messages and mutates the aggregate.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeHelp()

	case tickMsg:
		return m, m.tickCmd()

	case updateMsg:
		m.applyUpdate(feed.Update(msg))
		return m, m.pollUpdateCmd()

	case spinner.TickMsg:
		if !m.connected {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// View renders the current frame.
func (m Model) View() string {
	switch {
	case m.quitting:
		return ""
	case m.showHelp:
		return m.renderHelp()
	case !m.connected:
		return m.renderConnecting()
	default:
		return m.renderDashboard()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		if m.showHelp && msg.String() == "esc" {
			m.showHelp = false
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		if m.showHelp {
			m.resizeHelp()
		}
		return m, nil

	case "r":
		m.dispatcher.Refresh()
		return m, nil

	case "up", "k", "down", "j":
		if m.showHelp && m.helpReady {
			var cmd tea.Cmd
			m.helpView, cmd = m.helpView.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// applyUpdate folds one producer result into the aggregate, in arrival
// order. Errors land in the banner; successes land in their slot.
func (m *Model) applyUpdate(u feed.Update) {
	if u.Err != nil {
		m.state.SetError(u.Err.Error())
		return
	}

	m.connected = true
	switch u.Source {
	case feed.SourceMetrics:
		m.state.UpdateMetrics(u.Metrics)
	case feed.SourceRPC:
		m.state.UpdateRPC(u.RPC)
	case feed.SourceSystem:
		m.state.UpdateSystem(u.System)
	}
}

// tickCmd schedules the next redraw.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(redrawInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// pollUpdateCmd blocks on the feed channel for the next update.
func (m Model) pollUpdateCmd() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return nil
		}
		return updateMsg(u)
	}
}

func (m *Model) resizeHelp() {
	height := m.height - 4
	if height < 1 {
		height = 1
	}
	if !m.helpReady {
		m.helpView = viewport.New(m.width, height)
		m.helpReady = true
	} else {
		m.helpView.Width = m.width
		m.helpView.Height = height
	}
	m.helpView.SetContent(helpContent())
}

// Run starts the producers and hands the terminal to Bubble Tea. It
// returns when the user quits or the terminal is unusable.
func Run(cfg *config.Config, log logger.Logger) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrTerm,
			"Standard output is not a terminal",
			"Run nodetop in an interactive terminal, or use 'nodetop status' for plain output")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := feed.New(cfg, log)
	dispatcher.Start(ctx)

	p := tea.NewProgram(NewModel(cfg, dispatcher, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrTerm, "Dashboard crashed", "")
	}
	return nil
}
