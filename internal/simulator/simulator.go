package simulator

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/scoring"
)

// Session is the part of a game session scripted players drive
type Session interface {
	AddPlayer(id, name string, origin game.Origin) bool
	SubmitGuess(playerID string, value float64) bool
	SubmitBets(playerID string, bets []scoring.Bet) bool
	Player(id string) (game.Player, bool)
	Subscribe(subscriber game.EventSubscriber)
	Unsubscribe(subscriber game.EventSubscriber)
	Done() <-chan struct{}
}

// Strategy picks a bet set from the round's buckets
type Strategy func(buckets []scoring.Bucket) []scoring.Bet

// Player is a scripted participant. It guesses the answer scaled by
// GuessFactor and bets whatever Strategy picks, trimmed to its balance.
type Player struct {
	ID          string
	Name        string
	Origin      game.Origin
	GuessFactor float64
	Strategy    Strategy
}

// Config holds configuration for a simulation
type Config struct {
	Players []Player

	// Pauses before acting on a phase, measured on Clock
	GuessDelay time.Duration
	BetDelay   time.Duration

	Clock  quartz.Clock
	Logger *log.Logger
}

// Simulator plays scripted players against a session
type Simulator struct {
	session Session
	config  Config
	clock   quartz.Clock
	logger  *log.Logger
}

const eventBuffer = 256

// New creates a new simulator with the given configuration
func New(session Session, config Config) *Simulator {
	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Simulator{
		session: session,
		config:  config,
		clock:   clock,
		logger:  logger.WithPrefix("simulator"),
	}
}

// Run joins every player and plays until ctx is cancelled or the session
// stops.
func (s *Simulator) Run(ctx context.Context) error {
	sub := game.NewChannelSubscriber(eventBuffer)
	s.session.Subscribe(sub)
	defer func() {
		sub.Close()
		s.session.Unsubscribe(sub)
	}()

	for _, p := range s.config.Players {
		if !s.session.AddPlayer(p.ID, p.Name, p.Origin) {
			s.logger.Warn("Player could not join", "player", p.ID)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.session.Done():
			return nil
		case event := <-sub.Events():
			pc, ok := event.(game.PhaseChangeEvent)
			if !ok || pc.Round == nil {
				continue
			}
			switch pc.Phase {
			case game.PhaseQuestion:
				if !s.pause(ctx, s.config.GuessDelay, "guess") {
					return nil
				}
				s.guess(pc.Round.Question.Answer)
			case game.PhaseBetting:
				if len(pc.Round.Buckets) == 0 {
					continue
				}
				if !s.pause(ctx, s.config.BetDelay, "bet") {
					return nil
				}
				s.bet(pc.Round.Buckets)
			}
		}
	}
}

// pause waits d on the simulator clock, returning false if ctx ends first
func (s *Simulator) pause(ctx context.Context, d time.Duration, tag string) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := s.clock.NewTimer(d, "simulator", tag)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Simulator) guess(answer int) {
	for _, p := range s.config.Players {
		value := math.Round(float64(answer) * p.GuessFactor)
		if !s.session.SubmitGuess(p.ID, value) {
			s.logger.Debug("Guess refused", "player", p.ID, "guess", value)
		}
	}
}

func (s *Simulator) bet(buckets []scoring.Bucket) {
	for _, p := range s.config.Players {
		if p.Strategy == nil {
			continue
		}
		current, ok := s.session.Player(p.ID)
		if !ok {
			continue
		}
		bets := Affordable(p.Strategy(buckets), current.Chips)
		if len(bets) == 0 {
			s.logger.Debug("Sitting out", "player", p.ID, "chips", current.Chips)
			continue
		}
		if !s.session.SubmitBets(p.ID, bets) {
			s.logger.Debug("Bets refused", "player", p.ID, "bets", game.FormatBets(bets))
		}
	}
}

// Affordable trims bets to a balance in order, dropping repeated buckets and
// stakes that no longer fit.
func Affordable(bets []scoring.Bet, balance int) []scoring.Bet {
	var out []scoring.Bet
	seen := make(map[scoring.Label]bool, len(bets))
	for _, b := range bets {
		if seen[b.Bucket] || b.Chips <= 0 {
			continue
		}
		stake := min(b.Chips, balance)
		if stake <= 0 {
			break
		}
		seen[b.Bucket] = true
		balance -= stake
		out = append(out, scoring.Bet{Bucket: b.Bucket, Chips: stake})
		if len(out) == game.MaxBetsPerRound {
			break
		}
	}
	return out
}
