package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/brainsbets/internal/game"
)

// SessionView is the part of a session the big screen watches
type SessionView interface {
	Config() game.GameConfig
	Subscribe(subscriber game.EventSubscriber)
	Unsubscribe(subscriber game.EventSubscriber)
	Done() <-chan struct{}
}

const eventBuffer = 256

// Run shows the big screen until the session stops or the user quits
func Run(session SessionView, opts ...tea.ProgramOption) error {
	sub := game.NewChannelSubscriber(eventBuffer)
	session.Subscribe(sub)
	defer func() {
		sub.Close()
		session.Unsubscribe(sub)
	}()

	model := NewModel(sub.Events(), session.Done(), session.Config())
	program := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	_, err := program.Run()
	return err
}
