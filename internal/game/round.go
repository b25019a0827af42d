package game

import (
	"maps"
	"slices"

	"github.com/lox/brainsbets/internal/questions"
	"github.com/lox/brainsbets/internal/scoring"
)

// roundState is the live state of one question. It is created on entering
// the question phase and dropped on the next question or on return to lobby.
type roundState struct {
	index     int
	question  questions.Question
	guesses   map[string]float64
	buckets   []scoring.Bucket
	bets      map[string][]scoring.Bet
	winning   scoring.Label
	resolved  bool
	hasWinner bool
	payouts   map[string]int
}

func newRoundState(index int, q questions.Question) *roundState {
	return &roundState{
		index:    index,
		question: q,
		guesses:  make(map[string]float64),
		bets:     make(map[string][]scoring.Bet),
	}
}

// RoundSnapshot is a detached copy of the current round.
type RoundSnapshot struct {
	Index         int                      `json:"index"`
	Question      questions.Question       `json:"question"`
	Guesses       map[string]float64       `json:"guesses"`
	Buckets       []scoring.Bucket         `json:"buckets"`
	Bets          map[string][]scoring.Bet `json:"bets"`
	Resolved      bool                     `json:"resolved"`
	HasWinner     bool                     `json:"hasWinner"`
	WinningBucket scoring.Label            `json:"winningBucket"`
	Payouts       map[string]int           `json:"payouts,omitempty"`
}

func (r *roundState) snapshot() RoundSnapshot {
	bets := make(map[string][]scoring.Bet, len(r.bets))
	for id, b := range r.bets {
		bets[id] = slices.Clone(b)
	}
	return RoundSnapshot{
		Index:         r.index,
		Question:      r.question,
		Guesses:       maps.Clone(r.guesses),
		Buckets:       cloneBuckets(r.buckets),
		Bets:          bets,
		Resolved:      r.resolved,
		HasWinner:     r.hasWinner,
		WinningBucket: r.winning,
		Payouts:       maps.Clone(r.payouts),
	}
}

func cloneBuckets(buckets []scoring.Bucket) []scoring.Bucket {
	if buckets == nil {
		return nil
	}
	out := make([]scoring.Bucket, len(buckets))
	for i, b := range buckets {
		b.PlayerIDs = slices.Clone(b.PlayerIDs)
		out[i] = b
	}
	return out
}
