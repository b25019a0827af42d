package game

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/brainsbets/internal/questions"
)

const eventTimeout = 2 * time.Second

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func testConfig() GameConfig {
	return GameConfig{
		QuestionsPerGame: 2,
		StartingChips:    3,
		Durations: PhaseDurations{
			Lobby:    3,
			Question: 5,
			Betting:  4,
			Reveal:   2,
			Scores:   2,
		},
		MinPlayers: 2,
		Category:   "General",
	}
}

func testRepository() *questions.Repository {
	repo := questions.NewRepository()
	repo.Add("general", []questions.Question{
		{Text: "How many keys on a piano?", Answer: 88},
		{Text: "Boiling point of water at sea level in Fahrenheit?", Answer: 212},
		{Text: "Year the first iPhone was released?", Answer: 2007, Explanation: "June 29th"},
	})
	return repo
}

// harness drives a session with a mock clock and records its events.
type harness struct {
	t       *testing.T
	ctx     context.Context
	clock   *quartz.Mock
	session *Session
	sub     *ChannelSubscriber
}

func newHarness(t *testing.T, cfg GameConfig, source questions.Source) *harness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	clock := quartz.NewMock(t)
	s, err := NewSession(cfg, source, WithClock(clock), WithLogger(testLogger()), WithID("test"))
	require.NoError(t, err)

	sub := NewChannelSubscriber(1024)
	s.Subscribe(sub)

	h := &harness{t: t, ctx: ctx, clock: clock, session: s, sub: sub}
	t.Cleanup(func() {
		s.Stop()
		sub.Close()
		cancel()
	})
	return h
}

func startHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, testConfig(), testRepository())
	require.NoError(t, h.session.Start(h.ctx))
	h.waitPhase(PhaseLobby)
	return h
}

func (h *harness) waitFor(desc string, match func(Event) bool) Event {
	h.t.Helper()
	timeout := time.After(eventTimeout)
	for {
		select {
		case e := <-h.sub.Events():
			if match(e) {
				return e
			}
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s", desc)
			return nil
		}
	}
}

func (h *harness) waitPhase(phase Phase) PhaseChangeEvent {
	h.t.Helper()
	e := h.waitFor("phase "+string(phase), func(e Event) bool {
		pc, ok := e.(PhaseChangeEvent)
		return ok && pc.Phase == phase
	})
	return e.(PhaseChangeEvent)
}

func waitEvent[T Event](h *harness) T {
	h.t.Helper()
	e := h.waitFor("event", func(e Event) bool {
		_, ok := e.(T)
		return ok
	})
	return e.(T)
}

// tick advances the clock by one second and waits until the session has
// fully processed the resulting tick.
func (h *harness) tick() TickEvent {
	h.t.Helper()
	h.clock.Advance(time.Second).MustWait(h.ctx)
	e := waitEvent[TickEvent](h)
	// The tick is handled under the session lock, so taking it here means the
	// ticker has been re-armed before the next advance.
	_ = h.session.Phase()
	return e
}

// expire runs the current countdown down to zero.
func (h *harness) expire() {
	h.t.Helper()
	for range h.session.TimeRemaining() {
		h.tick()
	}
}

func (h *harness) addPlayers(ids ...string) {
	h.t.Helper()
	for _, id := range ids {
		require.True(h.t, h.session.AddPlayer(id, "Player "+id, OriginLocal), "add %s", id)
	}
}

// startGame adds players and lets the lobby expire into the first question.
func (h *harness) startGame(ids ...string) PhaseChangeEvent {
	h.t.Helper()
	h.addPlayers(ids...)
	h.expire()
	return h.waitPhase(PhaseQuestion)
}
