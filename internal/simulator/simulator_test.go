package simulator

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/questions"
	"github.com/lox/brainsbets/internal/scoring"
)

const eventTimeout = 2 * time.Second

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// fixedSource deals questions in a known order
type fixedSource []questions.Question

func (f fixedSource) Sample(_ context.Context, _ string, n int) ([]questions.Question, error) {
	return f[:min(n, len(f))], nil
}

type table struct {
	t       *testing.T
	ctx     context.Context
	clock   *quartz.Mock
	session *game.Session
	sub     *game.ChannelSubscriber
}

func newTable(t *testing.T, qs ...questions.Question) *table {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	cfg := game.GameConfig{
		QuestionsPerGame: len(qs),
		StartingChips:    3,
		Durations:        game.PhaseDurations{Lobby: 2, Question: 5, Betting: 4, Reveal: 2, Scores: 2},
		MinPlayers:       2,
		Category:         "General",
	}
	clock := quartz.NewMock(t)
	session, err := game.NewSession(cfg, fixedSource(qs), game.WithClock(clock), game.WithLogger(testLogger()))
	require.NoError(t, err)

	sub := game.NewChannelSubscriber(1024)
	session.Subscribe(sub)
	require.NoError(t, session.Start(ctx))

	t.Cleanup(func() {
		session.Stop()
		sub.Close()
		cancel()
	})
	return &table{t: t, ctx: ctx, clock: clock, session: session, sub: sub}
}

func waitEvent[T game.Event](tb *table) T {
	tb.t.Helper()
	timeout := time.After(eventTimeout)
	for {
		select {
		case e := <-tb.sub.Events():
			if match, ok := e.(T); ok {
				return match
			}
		case <-timeout:
			var zero T
			tb.t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

// expire runs the current countdown to zero one tick at a time
func (tb *table) expire() {
	tb.t.Helper()
	for range tb.session.TimeRemaining() {
		tb.clock.Advance(time.Second).MustWait(tb.ctx)
		waitEvent[game.TickEvent](tb)
		_ = tb.session.Phase()
	}
}

func (tb *table) run(cfg Config) <-chan error {
	cfg.Clock = tb.clock
	cfg.Logger = testLogger()
	sim := New(tb.session, cfg)
	errCh := make(chan error, 1)
	go func() { errCh <- sim.Run(tb.ctx) }()
	return errCh
}

func TestDemoPlayersPlayTwoRounds(t *testing.T) {
	tb := newTable(t,
		questions.Question{Text: "A hundred", Answer: 100},
		questions.Question{Text: "Ten", Answer: 10},
	)
	tb.run(Config{Players: DemoPlayers()})

	for range 4 {
		waitEvent[game.PlayerJoinedEvent](tb)
	}
	tb.expire()

	// Guesses 80, 120, 95 and 105: the board is 80 95 105 120 and 95 wins,
	// which nobody backed.
	buckets := waitEvent[game.BucketsComputedEvent](tb)
	require.Len(t, buckets.Buckets, 4)

	first := waitEvent[game.RoundResultEvent](tb)
	require.True(t, first.HasWinner)
	assert.Equal(t, map[string]int{"tw:alice": -2, "tw:bob": -2, "yt:carol": -3, "tw:dave": -2}, first.Payouts)
	chips := make(map[string]int)
	for _, p := range first.Players {
		chips[p.ID] = p.Chips
	}
	assert.Equal(t, map[string]int{"tw:alice": 1, "tw:bob": 1, "yt:carol": 0, "tw:dave": 1}, chips)

	_ = tb.session.Phase()
	tb.expire() // reveal
	tb.expire() // scores

	// Carol is broke and sits out, so betting runs to the deadline
	for range 3 {
		bet := waitEvent[game.BetReceivedEvent](tb)
		assert.NotEqual(t, "yt:carol", bet.PlayerID)
		require.Len(t, bet.Bets, 1, "stakes are trimmed to the balance")
		assert.Equal(t, 1, bet.Bets[0].Chips)
	}
	require.Equal(t, game.PhaseBetting, tb.session.Phase())
	tb.expire()

	second := waitEvent[game.RoundResultEvent](tb)
	require.True(t, second.HasWinner)
	assert.Equal(t, map[string]int{"tw:alice": -1, "tw:bob": -1, "yt:carol": 0, "tw:dave": -1}, second.Payouts)
}

func TestRunStopsWithContext(t *testing.T) {
	tb := newTable(t, questions.Question{Text: "Q", Answer: 1})
	ctx, cancel := context.WithCancel(tb.ctx)
	sim := New(tb.session, Config{Players: DemoPlayers()[:2], Clock: tb.clock, Logger: testLogger()})

	errCh := make(chan error, 1)
	go func() { errCh <- sim.Run(ctx) }()
	for range 2 {
		waitEvent[game.PlayerJoinedEvent](tb)
	}
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(eventTimeout):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunStopsWithSession(t *testing.T) {
	tb := newTable(t, questions.Question{Text: "Q", Answer: 1})
	errCh := tb.run(Config{Players: DemoPlayers()[:1]})
	waitEvent[game.PlayerJoinedEvent](tb)

	tb.session.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(eventTimeout):
		t.Fatal("Run did not return after session stop")
	}
}

func TestDuplicateJoinIsTolerated(t *testing.T) {
	tb := newTable(t, questions.Question{Text: "Q", Answer: 1})
	require.True(t, tb.session.AddPlayer("tw:alice", "Alice", game.OriginTwitch))
	waitEvent[game.PlayerJoinedEvent](tb)

	tb.run(Config{Players: DemoPlayers()[:2]})
	bob := waitEvent[game.PlayerJoinedEvent](tb)
	assert.Equal(t, "tw:bob", bob.Player.ID)
	assert.Len(t, tb.session.Players(), 2)
}

func TestPauseHonoursContext(t *testing.T) {
	t.Parallel()
	sim := New(nil, Config{Clock: quartz.NewMock(t)})

	assert.True(t, sim.pause(context.Background(), 0, "guess"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sim.pause(ctx, 0, "guess"))
	assert.False(t, sim.pause(ctx, time.Second, "bet"))
}

func TestAffordable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		bets    []scoring.Bet
		balance int
		want    []scoring.Bet
	}{
		{
			name:    "fits",
			bets:    []scoring.Bet{{Bucket: 3, Chips: 2}},
			balance: 3,
			want:    []scoring.Bet{{Bucket: 3, Chips: 2}},
		},
		{
			name:    "trimmed",
			bets:    []scoring.Bet{{Bucket: 3, Chips: 3}},
			balance: 1,
			want:    []scoring.Bet{{Bucket: 3, Chips: 1}},
		},
		{
			name:    "second stake dropped",
			bets:    []scoring.Bet{{Bucket: 1, Chips: 1}, {Bucket: 7, Chips: 1}},
			balance: 1,
			want:    []scoring.Bet{{Bucket: 1, Chips: 1}},
		},
		{
			name:    "repeated bucket",
			bets:    []scoring.Bet{{Bucket: 4, Chips: 1}, {Bucket: 4, Chips: 1}},
			balance: 3,
			want:    []scoring.Bet{{Bucket: 4, Chips: 1}},
		},
		{
			name:    "broke",
			bets:    []scoring.Bet{{Bucket: 4, Chips: 2}},
			balance: 0,
			want:    nil,
		},
		{
			name:    "capped at two bets",
			bets:    []scoring.Bet{{Bucket: 1, Chips: 1}, {Bucket: 2, Chips: 1}, {Bucket: 3, Chips: 1}},
			balance: 3,
			want:    []scoring.Bet{{Bucket: 1, Chips: 1}, {Bucket: 2, Chips: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Affordable(tt.bets, tt.balance)
			assert.Equal(t, tt.want, got)
			if len(got) > 0 {
				assert.Empty(t, game.ValidateBets(got, tt.balance), "trimmed bets are valid")
			}
		})
	}
}

func TestStrategies(t *testing.T) {
	t.Parallel()
	board := []scoring.Bucket{{Label: 2, Value: 10}, {Label: 3, Value: 20}, {Label: 4, Value: 30}, {Label: 5, Value: 40}, {Label: 6, Value: 50}}

	assert.Equal(t, []scoring.Bet{{Bucket: 4, Chips: 2}}, MiddleBucket(2)(board))
	assert.Equal(t, []scoring.Bet{{Bucket: 6, Chips: 2}}, LastBucket(2)(board))
	assert.Equal(t, []scoring.Bet{{Bucket: 2, Chips: 1}, {Bucket: 6, Chips: 1}}, Edges(1)(board))
	assert.Equal(t, []scoring.Bet{{Bucket: scoring.LowerThanAll, Chips: 1}}, LowerThanAll(1)(board))

	assert.Nil(t, MiddleBucket(2)(nil))
	assert.Nil(t, LastBucket(2)(nil))
	assert.Nil(t, Edges(1)(nil))
}

func TestDemoPlayers(t *testing.T) {
	t.Parallel()
	players := DemoPlayers()
	require.Len(t, players, 4)
	for _, p := range players {
		assert.True(t, p.Origin.Valid(), p.ID)
		assert.NotNil(t, p.Strategy, p.ID)
	}
}
