// Package tui is a terminal front end for the engine: it draws snapshots,
// maps keys to direction changes and drives Step on a timer.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/snekworld/game"
	"github.com/brensch/snekworld/rules"
)

// Options configures a Model.
type Options struct {
	// NewWorld creates the world for each game, including restarts.
	NewWorld func() (*game.World, error)
	Interval time.Duration
	// Autopilot steers with rules.Autopilot instead of the keyboard.
	Autopilot bool
	// OnStart is called once the first reward is placed, OnStep after every
	// step and OnFinish once per finished game.
	OnStart  func(*game.World)
	OnStep   func(*game.World)
	OnFinish func(*game.World)
}

var (
	headStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7878db")).Bold(true)
	bodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00"))
	rewardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Bold(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type Model struct {
	opts     Options
	world    *game.World
	games    int
	finished bool
	err      error
}

// TickMsg asks the model to advance the world one step.
type TickMsg time.Time

func New(opts Options) (Model, error) {
	if opts.NewWorld == nil {
		return Model{}, fmt.Errorf("tui: NewWorld is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	w, err := opts.NewWorld()
	if err != nil {
		return Model{}, err
	}
	return Model{opts: opts, world: w, games: 1}, nil
}

// World exposes the current game for callers that inspect the final state.
func (m Model) World() *game.World { return m.world }
func (m Model) Err() error         { return m.err }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		m.step()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "enter":
		m.startOrRestart()
		return m, nil
	}

	if m.opts.Autopilot {
		return m, nil
	}
	if d, err := game.ParseDirection(key); err == nil {
		m.world.ChangeSnakeDirection(d)
	}
	return m, nil
}

func (m *Model) startOrRestart() {
	status, ok := m.world.GameStatus()
	switch {
	case !ok:
		if err := m.world.StartGame(); err != nil {
			m.err = err
			return
		}
		if m.opts.OnStart != nil {
			m.opts.OnStart(m.world)
		}
		m.finishIfTerminal()
	case status.Terminal():
		w, err := m.opts.NewWorld()
		if err != nil {
			m.err = err
			return
		}
		m.world, m.finished = w, false
		m.games++
	}
}

func (m *Model) step() {
	status, ok := m.world.GameStatus()
	if !ok || status != game.Played {
		return
	}
	if m.opts.Autopilot {
		m.world.ChangeSnakeDirection(rules.Autopilot(m.world))
	}
	if err := m.world.Step(); err != nil {
		m.err = err
		return
	}
	if m.opts.OnStep != nil {
		m.opts.OnStep(m.world)
	}
	m.finishIfTerminal()
}

func (m *Model) finishIfTerminal() {
	status, _ := m.world.GameStatus()
	if !status.Terminal() || m.finished {
		return
	}
	m.finished = true
	if m.opts.OnFinish != nil {
		m.opts.OnFinish(m.world)
	}
}

func (m Model) View() string {
	w := m.world
	reward, hasReward := w.RewardCell()

	var grid strings.Builder
	for idx := 0; idx < w.Size(); idx++ {
		switch {
		case idx == w.SnakeHead():
			grid.WriteString(headStyle.Render("@ "))
		case w.Occupied(idx):
			grid.WriteString(bodyStyle.Render("o "))
		case hasReward && idx == reward:
			grid.WriteString(rewardStyle.Render("* "))
		default:
			grid.WriteString(emptyStyle.Render(". "))
		}
		if (idx+1)%w.Width() == 0 && idx+1 < w.Size() {
			grid.WriteByte('\n')
		}
	}

	var b strings.Builder
	b.WriteString(boardStyle.Render(grid.String()))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s  points: %d  length: %d  game: %d\n",
		statusStyle.Render(w.GameStatusText()), w.Points(), w.SnakeLength(), m.games)
	if m.err != nil {
		fmt.Fprintf(&b, "error: %v\n", m.err)
	}
	b.WriteString(helpStyle.Render(m.help()))
	b.WriteByte('\n')
	return b.String()
}

func (m Model) help() string {
	status, ok := m.world.GameStatus()
	action := "space: play"
	if ok && status.Terminal() {
		action = "space: replay"
	} else if ok {
		action = ""
	}
	keys := "arrows/wasd: steer"
	if m.opts.Autopilot {
		keys = "autopilot"
	}
	return strings.TrimSpace(strings.Join([]string{action, keys, "q: quit"}, "  "))
}
