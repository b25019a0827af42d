package game

import (
	"errors"
	"fmt"
	"time"
)

// Phase is a stage of the round state machine.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseQuestion Phase = "question"
	PhaseBetting  Phase = "betting"
	PhaseReveal   Phase = "reveal"
	PhaseScores   Phase = "scores"
)

// Phases lists every phase in the order a round visits them.
var Phases = []Phase{PhaseLobby, PhaseQuestion, PhaseBetting, PhaseReveal, PhaseScores}

func (p Phase) String() string {
	return string(p)
}

// PhaseDurations holds the countdown length of each phase in seconds.
type PhaseDurations struct {
	Lobby    int `json:"lobby"`
	Question int `json:"question"`
	Betting  int `json:"betting"`
	Reveal   int `json:"reveal"`
	Scores   int `json:"scores"`
}

// For returns the configured duration of phase in seconds.
func (d PhaseDurations) For(phase Phase) int {
	switch phase {
	case PhaseLobby:
		return d.Lobby
	case PhaseQuestion:
		return d.Question
	case PhaseBetting:
		return d.Betting
	case PhaseReveal:
		return d.Reveal
	case PhaseScores:
		return d.Scores
	default:
		return 0
	}
}

// Duration is For as a time.Duration.
func (d PhaseDurations) Duration(phase Phase) time.Duration {
	return time.Duration(d.For(phase)) * time.Second
}

// GameConfig is fixed for the life of a session.
type GameConfig struct {
	QuestionsPerGame int            `json:"questionsPerGame"`
	StartingChips    int            `json:"startingChips"`
	Durations        PhaseDurations `json:"durations"`
	MinPlayers       int            `json:"minPlayers"`
	Category         string         `json:"category"`
}

// DefaultGameConfig returns the standard party game settings.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		QuestionsPerGame: 6,
		StartingChips:    3,
		Durations: PhaseDurations{
			Lobby:    45,
			Question: 50,
			Betting:  35,
			Reveal:   18,
			Scores:   18,
		},
		MinPlayers: 3,
		Category:   "General",
	}
}

// Validate checks that the configuration can drive a game.
func (c GameConfig) Validate() error {
	var errs []error
	if c.QuestionsPerGame < 1 {
		errs = append(errs, fmt.Errorf("questions per game must be at least 1, got %d", c.QuestionsPerGame))
	}
	if c.StartingChips < 1 {
		errs = append(errs, fmt.Errorf("starting chips must be at least 1, got %d", c.StartingChips))
	}
	if c.MinPlayers < 0 {
		errs = append(errs, fmt.Errorf("min players cannot be negative, got %d", c.MinPlayers))
	}
	if c.Category == "" {
		errs = append(errs, errors.New("category is required"))
	}
	for _, phase := range Phases {
		if d := c.Durations.For(phase); d < 1 {
			errs = append(errs, fmt.Errorf("%s duration must be at least 1 second, got %d", phase, d))
		}
	}
	return errors.Join(errs...)
}
