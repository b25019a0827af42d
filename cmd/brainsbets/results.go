package main

import (
	"github.com/charmbracelet/log"

	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/results"
)

// recordResults saves standings under dir at every game over. An empty dir
// disables recording.
func recordResults(session *game.Session, dir string, logger *log.Logger) error {
	if dir == "" {
		return nil
	}
	recorder, err := results.NewRecorder(dir, session.ID(), logger)
	if err != nil {
		return err
	}
	session.Subscribe(recorder)
	logger.Info("Recording results", "dir", dir)
	return nil
}
