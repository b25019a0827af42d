package game

import (
	"fmt"
	"slices"

	"github.com/lox/brainsbets/internal/scoring"
)

// Origin tags where a player joined from.
type Origin string

const (
	OriginTwitch  Origin = "twitch"
	OriginYouTube Origin = "youtube"
	OriginLocal   Origin = "local"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	switch o {
	case OriginTwitch, OriginYouTube, OriginLocal:
		return true
	}
	return false
}

// ParseOrigin converts a wire value to an Origin.
func ParseOrigin(s string) (Origin, error) {
	o := Origin(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown origin %q", s)
	}
	return o, nil
}

// Player is a registered participant. Values handed out by the session are
// copies.
type Player struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Origin Origin        `json:"origin"`
	Chips  int           `json:"chips"`
	Guess  *float64      `json:"guess,omitempty"`
	Bets   []scoring.Bet `json:"bets,omitempty"`
}

func (p *Player) clone() Player {
	c := *p
	if p.Guess != nil {
		g := *p.Guess
		c.Guess = &g
	}
	c.Bets = slices.Clone(p.Bets)
	return c
}

func (p *Player) resetRound() {
	p.Guess = nil
	p.Bets = nil
}

// MaxBetsPerRound caps the entries in a bet set.
const MaxBetsPerRound = 2

// RejectReason explains why a command was refused.
type RejectReason string

const (
	RejectNotRunning        RejectReason = "session not running"
	RejectWrongPhase        RejectReason = "wrong phase"
	RejectInvalidPlayer     RejectReason = "invalid player"
	RejectDuplicatePlayer   RejectReason = "player already registered"
	RejectUnknownPlayer     RejectReason = "unknown player"
	RejectAlreadyGuessed    RejectReason = "guess already submitted"
	RejectInvalidGuess      RejectReason = "guess is not a finite number"
	RejectAlreadyBet        RejectReason = "bets already submitted"
	RejectBetCount          RejectReason = "bet set must have one or two bets"
	RejectInsufficientChips RejectReason = "not enough chips"
	RejectNonPositiveTotal  RejectReason = "total stake must be positive"
	RejectDuplicateBucket   RejectReason = "bets must target different buckets"
	RejectNonPositiveStake  RejectReason = "each bet must stake at least one chip"
	RejectInvalidBucket     RejectReason = "unknown bucket label"
)

// RejectedError is returned by the Try variants of session commands.
type RejectedError struct {
	Action string
	Reason RejectReason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Action, e.Reason)
}

// ValidateBets applies the bet set rules in order and returns the first
// violation, or "" when the set is acceptable for a player holding balance
// chips.
func ValidateBets(bets []scoring.Bet, balance int) RejectReason {
	if len(bets) == 0 || len(bets) > MaxBetsPerRound {
		return RejectBetCount
	}
	total := 0
	for _, b := range bets {
		total += b.Chips
	}
	if total > balance {
		return RejectInsufficientChips
	}
	if total <= 0 {
		return RejectNonPositiveTotal
	}
	seen := make(map[scoring.Label]bool, len(bets))
	for _, b := range bets {
		if seen[b.Bucket] {
			return RejectDuplicateBucket
		}
		seen[b.Bucket] = true
	}
	for _, b := range bets {
		if b.Chips <= 0 {
			return RejectNonPositiveStake
		}
	}
	for _, b := range bets {
		if !b.Bucket.Bettable() {
			return RejectInvalidBucket
		}
	}
	return ""
}
