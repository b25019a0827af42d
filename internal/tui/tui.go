package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/scoring"
)

const sidebarMinWidth = 24

// EventMsg carries a session event into the program
type EventMsg struct {
	Event game.Event
}

// SessionDoneMsg is sent once the session has stopped and every buffered
// event has been delivered
type SessionDoneMsg struct{}

// Model is the big-screen view of a session. It never issues commands; all
// state is rebuilt from the events it receives.
type Model struct {
	events        <-chan game.Event
	done          <-chan struct{}
	startingChips int
	formatter     game.EventFormatter

	// Board state
	phase       game.Phase
	remaining   int
	roundIndex  int
	totalRounds int
	question    string
	buckets     []scoring.Bucket
	result      *game.RoundResultEvent
	standings   []scoring.Standing
	players     []game.Player
	names       map[string]string

	logViewport viewport.Model
	gameLog     []string

	width    int
	height   int
	quitting bool
}

// NewModel creates a model reading events until done is closed. A nil done
// channel keeps the model running until the user quits.
func NewModel(events <-chan game.Event, done <-chan struct{}, cfg game.GameConfig) *Model {
	m := &Model{
		events:        events,
		done:          done,
		startingChips: cfg.StartingChips,
		phase:         game.PhaseLobby,
		names:         make(map[string]string),
		logViewport:   viewport.New(10, 5),
	}
	m.formatter = game.EventFormatter{Name: func(id string) string { return m.names[id] }}
	return m
}

// Init starts listening for events
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-m.events:
			return EventMsg{Event: e}
		case <-m.done:
		}
		// Drain what was published before the session stopped
		select {
		case e := <-m.events:
			return EventMsg{Event: e}
		default:
			return SessionDoneMsg{}
		}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.apply(msg.Event)
		if line := m.formatter.Format(msg.Event); line != "" {
			m.AddLogEntry(LineStyle(line).Render(line))
		}
		return m, m.waitForEvent()

	case SessionDoneMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// apply folds an event into the board state
func (m *Model) apply(event game.Event) {
	switch e := event.(type) {
	case game.PhaseChangeEvent:
		m.phase = e.Phase
		m.remaining = e.Remaining
		m.roundIndex = e.RoundIndex
		m.totalRounds = e.TotalRounds
		switch e.Phase {
		case game.PhaseLobby:
			m.question = ""
			m.buckets = nil
			m.result = nil
		case game.PhaseQuestion:
			if e.RoundIndex == 0 {
				m.standings = nil
				for i := range m.players {
					m.players[i].Chips = m.startingChips
				}
			}
			m.buckets = nil
			m.result = nil
			if e.Round != nil {
				m.question = e.Round.Question.Text
			}
		case game.PhaseBetting:
			if e.Round != nil {
				m.buckets = e.Round.Buckets
			}
		}

	case game.TickEvent:
		m.phase = e.Phase
		m.remaining = e.Remaining

	case game.PlayerJoinedEvent:
		m.players = append(m.players, e.Player)
		m.names[e.Player.ID] = e.Player.Name

	case game.BucketsComputedEvent:
		m.buckets = e.Buckets

	case game.RoundResultEvent:
		m.result = &e
		m.players = slices.Clone(e.Players)

	case game.GameOverEvent:
		m.standings = e.Standings
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()

	sidebarContent := m.renderPlayers()
	sidebarWidth := max(sidebarMinWidth, lipgloss.Width(sidebarContent))
	boardContent := m.renderBoard()
	boardWidth := max(1, m.width-sidebarWidth-4)
	topHeight := max(lipgloss.Height(boardContent), lipgloss.Height(sidebarContent))

	boardPane := paneStyle.Width(boardWidth).Height(topHeight).Render(boardContent)
	sidebarPane := paneStyle.Width(sidebarWidth).Height(topHeight).Render(sidebarContent)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, boardPane, sidebarPane)

	// Header, two bordered rows
	m.logViewport.Width = max(1, m.width-2)
	m.logViewport.Height = max(1, m.height-lipgloss.Height(header)-lipgloss.Height(topRow)-2)
	logPane := paneStyle.Width(m.logViewport.Width).Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, topRow, logPane)
}

func (m *Model) renderHeader() string {
	title := HeaderStyle.Render("BRAINS & BETS  " + strings.ToUpper(m.phase.String()))
	countdown := CountdownStyle.Render(fmt.Sprintf("%ds", m.remaining))
	parts := []string{title, countdown}
	if m.phase != game.PhaseLobby && m.totalRounds > 0 {
		parts = append(parts, InfoStyle.Render(fmt.Sprintf("Question %d of %d", m.roundIndex+1, m.totalRounds)))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderBoard() string {
	var b strings.Builder

	if m.question == "" {
		if len(m.standings) > 0 {
			b.WriteString(m.renderStandings())
			return b.String()
		}
		b.WriteString(InfoStyle.Render(fmt.Sprintf("Waiting for players... %d joined", len(m.players))))
		return b.String()
	}

	b.WriteString(QuestionStyle.Render(m.question))
	b.WriteString("\n")

	if len(m.buckets) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderBuckets())
	}

	if m.result != nil {
		b.WriteString("\n")
		b.WriteString(m.renderResult())
	}
	return b.String()
}

func (m *Model) renderBuckets() string {
	var lines []string

	lowerStyle := BucketStyle
	if m.result != nil && m.result.LowerThanAll {
		lowerStyle = WinningBucketStyle
	}
	lines = append(lines, lowerStyle.Render("[0] lower than all")+"  "+
		MultiplierStyle.Render(fmt.Sprintf("x%d", scoring.PayoutMultiplier(scoring.LowerThanAll))))

	for _, bucket := range m.buckets {
		style := BucketStyle
		if m.result != nil && m.result.HasWinner && m.result.WinningBucket == bucket.Label {
			style = WinningBucketStyle
		}
		line := style.Render(fmt.Sprintf("[%d] %s", bucket.Label, game.FormatNumber(bucket.Value))) + "  " +
			MultiplierStyle.Render(fmt.Sprintf("x%d", scoring.PayoutMultiplier(bucket.Label))) + "  " +
			InfoStyle.Render(fmt.Sprintf("(%d guess(es))", len(bucket.PlayerIDs)))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderResult() string {
	var b strings.Builder
	b.WriteString(SuccessStyle.Render(fmt.Sprintf("Answer: %d", m.result.Question.Answer)))
	if m.result.Question.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render(m.result.Question.Explanation))
	}
	if !m.result.HasWinner {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("No winning bucket"))
		return b.String()
	}
	for _, p := range m.result.Players {
		delta, ok := m.result.Payouts[p.ID]
		if !ok || delta == 0 {
			continue
		}
		b.WriteString("\n")
		if delta > 0 {
			b.WriteString(SuccessStyle.Render(fmt.Sprintf("%s +%d", p.Name, delta)))
		} else {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("%s %d", p.Name, delta)))
		}
	}
	return b.String()
}

func (m *Model) renderStandings() string {
	lines := []string{WarningStyle.Render("Final standings")}
	for i, s := range m.standings {
		name := m.names[s.PlayerID]
		if name == "" {
			name = s.PlayerID
		}
		lines = append(lines, fmt.Sprintf("%d. %s  %d chips  %d LP", i+1, name, s.Chips, s.LeaderboardPoints))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderPlayers() string {
	if len(m.players) == 0 {
		return InfoStyle.Render("No players yet")
	}
	var b strings.Builder
	b.WriteString(InfoStyle.Render("Players:"))
	for _, p := range m.players {
		b.WriteString(fmt.Sprintf("\n  %s: %d", p.Name, p.Chips))
	}
	return b.String()
}

// AddLogEntry appends a line to the event log and scrolls to it
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// Log returns the event log lines
func (m *Model) Log() []string {
	out := make([]string, len(m.gameLog))
	copy(out, m.gameLog)
	return out
}
