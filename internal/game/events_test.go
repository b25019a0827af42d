package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/brainsbets/internal/questions"
	"github.com/lox/brainsbets/internal/scoring"
)

type recordingSubscriber struct {
	events []Event
}

func (r *recordingSubscriber) OnEvent(e Event) {
	r.events = append(r.events, e)
}

func TestSimpleEventBus(t *testing.T) {
	t.Parallel()
	bus := NewEventBus()
	first := &recordingSubscriber{}
	second := &recordingSubscriber{}
	bus.Subscribe(first)
	bus.Subscribe(second)

	now := time.Now()
	bus.Publish(NewTickEvent(now, PhaseLobby, 5))
	bus.Unsubscribe(first)
	bus.Publish(NewTickEvent(now, PhaseLobby, 4))

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 2)
	assert.Equal(t, EventTypeTick, second.events[1].EventType())
	assert.Equal(t, now, second.events[1].Timestamp())
}

func TestDispatcherPreservesOrder(t *testing.T) {
	t.Parallel()
	bus := NewEventBus()
	sub := NewChannelSubscriber(100)
	bus.Subscribe(sub)

	d := newDispatcher(bus)
	go d.run()
	for i := range 50 {
		d.enqueue(NewTickEvent(time.Time{}, PhaseQuestion, i))
	}
	d.close()
	<-d.done

	for i := range 50 {
		e := <-sub.Events()
		assert.Equal(t, i, e.(TickEvent).Remaining)
	}
}

func TestChannelSubscriberClose(t *testing.T) {
	t.Parallel()
	sub := NewChannelSubscriber(1)
	sub.OnEvent(NewTickEvent(time.Time{}, PhaseLobby, 1))

	done := make(chan struct{})
	go func() {
		sub.OnEvent(NewTickEvent(time.Time{}, PhaseLobby, 0)) // blocks on the full buffer
		close(done)
	}()
	sub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnEvent did not unblock after Close")
	}
	sub.Close()
	e := <-sub.Events()
	assert.Equal(t, 1, e.(TickEvent).Remaining)
}

func TestEventFormatter(t *testing.T) {
	t.Parallel()
	names := map[string]string{"tw:alice": "Alice"}
	f := &EventFormatter{Name: func(id string) string { return names[id] }}
	at := time.Now()

	round := &RoundSnapshot{Question: questions.Question{Text: "How tall is Everest?", Answer: 8849}}
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"question phase", NewPhaseChangeEvent(at, PhaseQuestion, 50, 0, 6, round), ">>> Phase: QUESTION (50s)  Q1/6: How tall is Everest?"},
		{"lobby phase", NewPhaseChangeEvent(at, PhaseLobby, 45, 0, 0, nil), ">>> Phase: LOBBY (45s)"},
		{"tick hidden", NewTickEvent(at, PhaseLobby, 3), ""},
		{"join", NewPlayerJoinedEvent(at, Player{Name: "Alice", Origin: OriginTwitch}), "+ Alice joined (twitch)"},
		{"guess", NewGuessReceivedEvent(at, "tw:alice", 8000), "Alice guessed: 8000"},
		{"guess unknown name", NewGuessReceivedEvent(at, "yt:bob", 12.5), "yt:bob guessed: 12.5"},
		{
			"bets",
			NewBetReceivedEvent(at, "tw:alice", []scoring.Bet{{Bucket: 3, Chips: 2}, {Bucket: scoring.LowerThanAll, Chips: 1}}),
			"Alice bet: 2 chip(s) on bucket 3, 1 chip(s) on lower than all",
		},
		{
			"buckets",
			NewBucketsComputedEvent(at, []scoring.Bucket{{Label: 3, Value: 10}, {Label: 4, Value: 1e6}}),
			"Buckets: [3] 10  [4] 1000000",
		},
		{"no buckets", NewBucketsComputedEvent(at, nil), "No guesses, no buckets"},
		{
			"result",
			RoundResultEvent{Question: questions.Question{Answer: 42}, HasWinner: true, WinningBucket: 5},
			"Correct answer: 42, winning bucket 5",
		},
		{
			"game over",
			NewGameOverEvent(at, []scoring.Standing{{PlayerID: "tw:alice", Chips: 9, LeaderboardPoints: 10}}),
			"=== GAME OVER === Alice: 9 chips, 10 LP",
		},
		{"error", NewErrorEvent(at, errors.New("boom")), "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.event))
		})
	}
}

func TestGameConfigValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultGameConfig().Validate())

	cfg := DefaultGameConfig()
	cfg.QuestionsPerGame = 0
	cfg.Category = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "questions per game")
	assert.Contains(t, err.Error(), "category is required")
}

func TestParseOrigin(t *testing.T) {
	t.Parallel()
	o, err := ParseOrigin("youtube")
	require.NoError(t, err)
	assert.Equal(t, OriginYouTube, o)

	_, err = ParseOrigin("facebook")
	assert.Error(t, err)
}
