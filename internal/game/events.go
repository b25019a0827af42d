package game

import (
	"sync"
	"time"

	"github.com/lox/brainsbets/internal/questions"
	"github.com/lox/brainsbets/internal/scoring"
)

// EventType represents a session event type with type safety
type EventType string

// EventType constants for session events
const (
	EventTypePhaseChange     EventType = "phase_change"
	EventTypeTick            EventType = "tick"
	EventTypePlayerJoined    EventType = "player_joined"
	EventTypeGuessReceived   EventType = "guess_received"
	EventTypeBetReceived     EventType = "bet_received"
	EventTypeBucketsComputed EventType = "buckets_computed"
	EventTypeRoundResult     EventType = "round_result"
	EventTypeGameOver        EventType = "game_over"
	EventTypeError           EventType = "session_error"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is anything a session publishes to its subscribers.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// PhaseChangeEvent is published on every phase entry. Round is nil in the
// lobby.
type PhaseChangeEvent struct {
	Phase       Phase
	Remaining   int
	RoundIndex  int
	TotalRounds int
	Round       *RoundSnapshot
	timestamp   time.Time
}

func (e PhaseChangeEvent) EventType() EventType { return EventTypePhaseChange }
func (e PhaseChangeEvent) Timestamp() time.Time { return e.timestamp }

// NewPhaseChangeEvent creates a new phase change event
func NewPhaseChangeEvent(at time.Time, phase Phase, remaining, roundIndex, totalRounds int, round *RoundSnapshot) PhaseChangeEvent {
	return PhaseChangeEvent{
		Phase:       phase,
		Remaining:   remaining,
		RoundIndex:  roundIndex,
		TotalRounds: totalRounds,
		Round:       round,
		timestamp:   at,
	}
}

// TickEvent is published once per second while a phase counts down
type TickEvent struct {
	Phase     Phase
	Remaining int
	timestamp time.Time
}

func (e TickEvent) EventType() EventType { return EventTypeTick }
func (e TickEvent) Timestamp() time.Time { return e.timestamp }

// NewTickEvent creates a new tick event
func NewTickEvent(at time.Time, phase Phase, remaining int) TickEvent {
	return TickEvent{Phase: phase, Remaining: remaining, timestamp: at}
}

// PlayerJoinedEvent is published when a player registers in the lobby
type PlayerJoinedEvent struct {
	Player    Player
	timestamp time.Time
}

func (e PlayerJoinedEvent) EventType() EventType { return EventTypePlayerJoined }
func (e PlayerJoinedEvent) Timestamp() time.Time { return e.timestamp }

// NewPlayerJoinedEvent creates a new player joined event
func NewPlayerJoinedEvent(at time.Time, player Player) PlayerJoinedEvent {
	return PlayerJoinedEvent{Player: player, timestamp: at}
}

// GuessReceivedEvent is published for every accepted guess
type GuessReceivedEvent struct {
	PlayerID  string
	Guess     float64
	timestamp time.Time
}

func (e GuessReceivedEvent) EventType() EventType { return EventTypeGuessReceived }
func (e GuessReceivedEvent) Timestamp() time.Time { return e.timestamp }

// NewGuessReceivedEvent creates a new guess received event
func NewGuessReceivedEvent(at time.Time, playerID string, guess float64) GuessReceivedEvent {
	return GuessReceivedEvent{PlayerID: playerID, Guess: guess, timestamp: at}
}

// BetReceivedEvent is published for every accepted bet set
type BetReceivedEvent struct {
	PlayerID  string
	Bets      []scoring.Bet
	timestamp time.Time
}

func (e BetReceivedEvent) EventType() EventType { return EventTypeBetReceived }
func (e BetReceivedEvent) Timestamp() time.Time { return e.timestamp }

// NewBetReceivedEvent creates a new bet received event
func NewBetReceivedEvent(at time.Time, playerID string, bets []scoring.Bet) BetReceivedEvent {
	cp := make([]scoring.Bet, len(bets))
	copy(cp, bets)
	return BetReceivedEvent{PlayerID: playerID, Bets: cp, timestamp: at}
}

// BucketsComputedEvent is published on entering the betting phase
type BucketsComputedEvent struct {
	Buckets   []scoring.Bucket
	timestamp time.Time
}

func (e BucketsComputedEvent) EventType() EventType { return EventTypeBucketsComputed }
func (e BucketsComputedEvent) Timestamp() time.Time { return e.timestamp }

// NewBucketsComputedEvent creates a new buckets computed event
func NewBucketsComputedEvent(at time.Time, buckets []scoring.Bucket) BucketsComputedEvent {
	return BucketsComputedEvent{Buckets: cloneBuckets(buckets), timestamp: at}
}

// RoundResultEvent is published on entering reveal. HasWinner is false when
// nobody guessed, in which case no chips move.
type RoundResultEvent struct {
	RoundIndex    int
	Question      questions.Question
	HasWinner     bool
	WinningBucket scoring.Label
	LowerThanAll  bool
	Payouts       map[string]int
	Players       []Player
	timestamp     time.Time
}

func (e RoundResultEvent) EventType() EventType { return EventTypeRoundResult }
func (e RoundResultEvent) Timestamp() time.Time { return e.timestamp }

// GameOverEvent carries final standings sorted by chips, highest first
type GameOverEvent struct {
	Standings []scoring.Standing
	timestamp time.Time
}

func (e GameOverEvent) EventType() EventType { return EventTypeGameOver }
func (e GameOverEvent) Timestamp() time.Time { return e.timestamp }

// NewGameOverEvent creates a new game over event
func NewGameOverEvent(at time.Time, standings []scoring.Standing) GameOverEvent {
	return GameOverEvent{Standings: standings, timestamp: at}
}

// ErrorEvent is published when the session cannot make progress, for
// example when the question draw fails at the end of the lobby
type ErrorEvent struct {
	Err       error
	timestamp time.Time
}

func (e ErrorEvent) EventType() EventType { return EventTypeError }
func (e ErrorEvent) Timestamp() time.Time { return e.timestamp }

// NewErrorEvent creates a new error event
func NewErrorEvent(at time.Time, err error) ErrorEvent {
	return ErrorEvent{Err: err, timestamp: at}
}

// EventSubscriber can subscribe to session events
type EventSubscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus implementation
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers in subscription order
func (bus *SimpleEventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := make([]EventSubscriber, len(bus.subscribers))
	copy(subs, bus.subscribers)
	bus.mu.RUnlock()

	for _, subscriber := range subs {
		subscriber.OnEvent(event)
	}
}

// ChannelSubscriber forwards events onto a buffered channel. A full buffer
// blocks delivery until the reader catches up or the subscriber is closed.
type ChannelSubscriber struct {
	ch        chan Event
	closed    chan struct{}
	closeOnce sync.Once
}

// NewChannelSubscriber creates a subscriber with the given buffer size
func NewChannelSubscriber(buffer int) *ChannelSubscriber {
	return &ChannelSubscriber{
		ch:     make(chan Event, buffer),
		closed: make(chan struct{}),
	}
}

// OnEvent implements EventSubscriber
func (c *ChannelSubscriber) OnEvent(event Event) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.ch <- event:
	case <-c.closed:
	}
}

// Events returns the receive side of the subscription
func (c *ChannelSubscriber) Events() <-chan Event {
	return c.ch
}

// Close stops delivery. Events already buffered stay readable.
func (c *ChannelSubscriber) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}
