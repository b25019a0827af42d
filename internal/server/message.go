package server

import (
	"encoding/json"
	"time"

	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/scoring"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinData struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

type GuessData struct {
	Value float64 `json:"value"`
}

type BetData struct {
	Bets []scoring.Bet `json:"bets"`
}

// Server → Client Messages

type JoinedData struct {
	Player PlayerData `json:"player"`
}

type AckData struct {
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PlayerData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Origin string `json:"origin"`
	Chips  int    `json:"chips"`
}

type BucketData struct {
	Label      int      `json:"label"`
	Value      float64  `json:"value"`
	PlayerIDs  []string `json:"playerIds"`
	Multiplier int      `json:"multiplier"`
}

// RoundData describes the current round. The answer is withheld until the
// round is resolved.
type RoundData struct {
	Index         int          `json:"index"`
	Question      string       `json:"question"`
	Answer        *int         `json:"answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	GuessCount    int          `json:"guessCount"`
	BetCount      int          `json:"betCount"`
	Buckets       []BucketData `json:"buckets"`
	WinningBucket *int         `json:"winningBucket,omitempty"`
}

type StateData struct {
	SessionID   string       `json:"sessionId"`
	Phase       string       `json:"phase"`
	Remaining   int          `json:"remaining"`
	RoundIndex  int          `json:"roundIndex"`
	TotalRounds int          `json:"totalRounds"`
	Round       *RoundData   `json:"round,omitempty"`
	Players     []PlayerData `json:"players"`
}

type PhaseChangeData struct {
	Phase       string     `json:"phase"`
	Remaining   int        `json:"remaining"`
	RoundIndex  int        `json:"roundIndex"`
	TotalRounds int        `json:"totalRounds"`
	Round       *RoundData `json:"round,omitempty"`
}

type TickData struct {
	Phase     string `json:"phase"`
	Remaining int    `json:"remaining"`
}

type PlayerJoinedData struct {
	Player PlayerData `json:"player"`
}

type GuessReceivedData struct {
	PlayerID string  `json:"playerId"`
	Guess    float64 `json:"guess"`
}

type BetReceivedData struct {
	PlayerID string        `json:"playerId"`
	Bets     []scoring.Bet `json:"bets"`
}

type BucketsComputedData struct {
	Buckets []BucketData `json:"buckets"`
}

type RoundResultData struct {
	RoundIndex    int            `json:"roundIndex"`
	Answer        int            `json:"answer"`
	Explanation   string         `json:"explanation,omitempty"`
	HasWinner     bool           `json:"hasWinner"`
	WinningBucket int            `json:"winningBucket"`
	LowerThanAll  bool           `json:"lowerThanAll"`
	Payouts       map[string]int `json:"payouts"`
	Players       []PlayerData   `json:"players"`
}

type GameOverData struct {
	Standings []scoring.Standing `json:"standings"`
}

type SessionErrorData struct {
	Message string `json:"message"`
}

// Helper functions to convert between session types and message types

func PlayerDataFromGame(p game.Player) PlayerData {
	return PlayerData{
		ID:     p.ID,
		Name:   p.Name,
		Origin: string(p.Origin),
		Chips:  p.Chips,
	}
}

func playersFromGame(players []game.Player) []PlayerData {
	out := make([]PlayerData, len(players))
	for i, p := range players {
		out[i] = PlayerDataFromGame(p)
	}
	return out
}

func BucketsFromScoring(buckets []scoring.Bucket) []BucketData {
	out := make([]BucketData, len(buckets))
	for i, b := range buckets {
		out[i] = BucketData{
			Label:      int(b.Label),
			Value:      b.Value,
			PlayerIDs:  b.PlayerIDs,
			Multiplier: scoring.PayoutMultiplier(b.Label),
		}
	}
	return out
}

func RoundDataFromGame(r game.RoundSnapshot) *RoundData {
	data := &RoundData{
		Index:      r.Index,
		Question:   r.Question.Text,
		GuessCount: len(r.Guesses),
		BetCount:   len(r.Bets),
		Buckets:    BucketsFromScoring(r.Buckets),
	}
	if r.Resolved {
		answer := r.Question.Answer
		data.Answer = &answer
		data.Explanation = r.Question.Explanation
		if r.HasWinner {
			label := int(r.WinningBucket)
			data.WinningBucket = &label
		}
	}
	return data
}

// EventMessage converts a session event into its wire message
func EventMessage(event game.Event) (*Message, error) {
	var data any
	switch e := event.(type) {
	case game.PhaseChangeEvent:
		d := PhaseChangeData{
			Phase:       e.Phase.String(),
			Remaining:   e.Remaining,
			RoundIndex:  e.RoundIndex,
			TotalRounds: e.TotalRounds,
		}
		if e.Round != nil {
			d.Round = RoundDataFromGame(*e.Round)
		}
		data = d
	case game.TickEvent:
		data = TickData{Phase: e.Phase.String(), Remaining: e.Remaining}
	case game.PlayerJoinedEvent:
		data = PlayerJoinedData{Player: PlayerDataFromGame(e.Player)}
	case game.GuessReceivedEvent:
		data = GuessReceivedData{PlayerID: e.PlayerID, Guess: e.Guess}
	case game.BetReceivedEvent:
		data = BetReceivedData{PlayerID: e.PlayerID, Bets: e.Bets}
	case game.BucketsComputedEvent:
		data = BucketsComputedData{Buckets: BucketsFromScoring(e.Buckets)}
	case game.RoundResultEvent:
		data = RoundResultData{
			RoundIndex:    e.RoundIndex,
			Answer:        e.Question.Answer,
			Explanation:   e.Question.Explanation,
			HasWinner:     e.HasWinner,
			WinningBucket: int(e.WinningBucket),
			LowerThanAll:  e.LowerThanAll,
			Payouts:       e.Payouts,
			Players:       playersFromGame(e.Players),
		}
	case game.GameOverEvent:
		data = GameOverData{Standings: e.Standings}
	case game.ErrorEvent:
		data = SessionErrorData{Message: e.Err.Error()}
	default:
		data = struct{}{}
	}

	msg, err := NewMessage(MessageType(event.EventType()), data)
	if err != nil {
		return nil, err
	}
	msg.Timestamp = event.Timestamp()
	return msg, nil
}
