package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/questions"
	"github.com/lox/brainsbets/internal/scoring"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type testEnv struct {
	t       *testing.T
	ctx     context.Context
	clock   *quartz.Mock
	session *game.Session
	srv     *Server
	http    *httptest.Server
}

func newTestEnv(t *testing.T, minPlayers int) *testEnv {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	repo := questions.NewRepository()
	repo.Add("general", []questions.Question{{Text: "How many legs does a spider have?", Answer: 8}})

	cfg := game.DefaultGameConfig()
	cfg.QuestionsPerGame = 1
	cfg.MinPlayers = minPlayers
	cfg.Durations = game.PhaseDurations{Lobby: 1, Question: 10, Betting: 10, Reveal: 5, Scores: 5}

	clock := quartz.NewMock(t)
	session, err := game.NewSession(cfg, repo, game.WithClock(clock), game.WithLogger(testLogger()), game.WithID("table-1"))
	require.NoError(t, err)

	srv := NewServer("127.0.0.1:0", session, testLogger())
	httpSrv := httptest.NewServer(srv.Handler())
	require.NoError(t, session.Start(ctx))

	t.Cleanup(func() {
		srv.Stop()
		httpSrv.Close()
		session.Stop()
		cancel()
	})
	return &testEnv{t: t, ctx: ctx, clock: clock, session: session, srv: srv, http: httpSrv}
}

func (e *testEnv) dial() *websocket.Conn {
	e.t.Helper()
	wsURL := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = ws.Close() })

	require.Eventually(e.t, func() bool { return e.srv.ConnectionCount() > 0 }, time.Second, 10*time.Millisecond)
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msgType MessageType, data any) {
	t.Helper()
	msg, err := NewMessage(msgType, data)
	require.NoError(t, err)
	msg.RequestID = "req-" + msgType.String()
	require.NoError(t, ws.WriteJSON(msg))
}

// readUntil reads messages until one of msgType arrives and decodes its
// data into out.
func readUntil(t *testing.T, ws *websocket.Conn, msgType MessageType, out any) *Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg Message
		require.NoError(t, ws.ReadJSON(&msg), "waiting for %s", msgType)
		if msg.Type != msgType {
			continue
		}
		if out != nil {
			require.NoError(t, json.Unmarshal(msg.Data, out))
		}
		return &msg
	}
}

func TestServerHealth(t *testing.T) {
	env := newTestEnv(t, 1)

	resp, err := http.Get(env.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestStateEndpoint(t *testing.T) {
	env := newTestEnv(t, 1)
	require.True(t, env.session.AddPlayer("tw:alice", "Alice", game.OriginTwitch))

	resp, err := http.Get(env.http.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var state StateData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "table-1", state.SessionID)
	assert.Equal(t, "lobby", state.Phase)
	assert.Equal(t, 1, state.Remaining)
	assert.Nil(t, state.Round)
	require.Len(t, state.Players, 1)
	assert.Equal(t, PlayerData{ID: "tw:alice", Name: "Alice", Origin: "twitch", Chips: 3}, state.Players[0])
}

func TestJoin(t *testing.T) {
	env := newTestEnv(t, 1)
	ws := env.dial()

	send(t, ws, MessageTypeJoin, JoinData{ID: "yt:carol", Name: "Carol", Origin: "youtube"})

	var ack AckData
	msg := readUntil(t, ws, MessageTypeAck, &ack)
	assert.Equal(t, "req-join", msg.RequestID)
	assert.Equal(t, AckData{Action: "join", Accepted: true}, ack)

	var joined JoinedData
	readUntil(t, ws, MessageTypeJoined, &joined)
	assert.Equal(t, "yt:carol", joined.Player.ID)
	assert.Equal(t, 3, joined.Player.Chips)

	players := env.session.Players()
	require.Len(t, players, 1)
	assert.Equal(t, game.OriginYouTube, players[0].Origin)

	send(t, ws, MessageTypeJoin, JoinData{Name: "Carol", Origin: "youtube"})
	var errData ErrorData
	readUntil(t, ws, MessageTypeError, &errData)
	assert.Equal(t, ErrCodeAlreadyJoined, errData.Code)
}

func TestJoinAssignsID(t *testing.T) {
	env := newTestEnv(t, 1)
	ws := env.dial()

	send(t, ws, MessageTypeJoin, JoinData{Name: "Local Larry", Origin: "local"})
	var joined JoinedData
	readUntil(t, ws, MessageTypeJoined, &joined)
	assert.Len(t, joined.Player.ID, 36)

	_, ok := env.session.Player(joined.Player.ID)
	assert.True(t, ok)
}

func TestJoinValidation(t *testing.T) {
	env := newTestEnv(t, 1)
	ws := env.dial()

	tests := []struct {
		name string
		data JoinData
		code string
	}{
		{"missing name", JoinData{Origin: "twitch"}, ErrCodeInvalidJoin},
		{"bad origin", JoinData{Name: "Mallory", Origin: "myspace"}, ErrCodeInvalidOrigin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, ws, MessageTypeJoin, tt.data)
			var errData ErrorData
			readUntil(t, ws, MessageTypeError, &errData)
			assert.Equal(t, tt.code, errData.Code)
		})
	}
	assert.Empty(t, env.session.Players())
}

func TestDuplicatePlayerIsRejected(t *testing.T) {
	env := newTestEnv(t, 1)
	require.True(t, env.session.AddPlayer("tw:bob", "Bob", game.OriginTwitch))
	ws := env.dial()

	send(t, ws, MessageTypeJoin, JoinData{ID: "tw:bob", Name: "Bob", Origin: "twitch"})
	var ack AckData
	readUntil(t, ws, MessageTypeAck, &ack)
	assert.False(t, ack.Accepted)
	assert.Equal(t, string(game.RejectDuplicatePlayer), ack.Reason)
}

func TestCommandsRequireJoin(t *testing.T) {
	env := newTestEnv(t, 1)
	ws := env.dial()

	send(t, ws, MessageTypeGuess, GuessData{Value: 10})
	var errData ErrorData
	readUntil(t, ws, MessageTypeError, &errData)
	assert.Equal(t, ErrCodeNotJoined, errData.Code)

	send(t, ws, MessageType("shout"), struct{}{})
	readUntil(t, ws, MessageTypeError, &errData)
	assert.Equal(t, ErrCodeUnknownType, errData.Code)
}

func TestGuessInLobbyIsRefused(t *testing.T) {
	env := newTestEnv(t, 1)
	ws := env.dial()

	send(t, ws, MessageTypeJoin, JoinData{ID: "p1", Name: "One", Origin: "local"})
	readUntil(t, ws, MessageTypeJoined, nil)

	send(t, ws, MessageTypeGuess, GuessData{Value: 10})
	var ack AckData
	for ack.Action != "guess" {
		readUntil(t, ws, MessageTypeAck, &ack)
	}
	assert.False(t, ack.Accepted)
	assert.Equal(t, string(game.RejectWrongPhase), ack.Reason)
}

func TestRoundOverWebSocket(t *testing.T) {
	env := newTestEnv(t, 1)
	ws := env.dial()

	send(t, ws, MessageTypeJoin, JoinData{ID: "p1", Name: "One", Origin: "local"})
	readUntil(t, ws, MessageTypeJoined, nil)

	env.clock.Advance(time.Second).MustWait(env.ctx)
	var phase PhaseChangeData
	for phase.Phase != "question" {
		readUntil(t, ws, MessageTypePhaseChange, &phase)
	}
	require.NotNil(t, phase.Round)
	assert.Equal(t, "How many legs does a spider have?", phase.Round.Question)
	assert.Nil(t, phase.Round.Answer, "answer is hidden until reveal")

	send(t, ws, MessageTypeGuess, GuessData{Value: 6})
	var buckets BucketsComputedData
	readUntil(t, ws, MessageTypeBucketsComputed, &buckets)
	require.Len(t, buckets.Buckets, 1)
	assert.Equal(t, BucketData{Label: 4, Value: 6, PlayerIDs: []string{"p1"}, Multiplier: 2}, buckets.Buckets[0])

	send(t, ws, MessageTypeBet, BetData{Bets: []scoring.Bet{{Bucket: 4, Chips: 3}}})
	var result RoundResultData
	readUntil(t, ws, MessageTypeRoundResult, &result)
	assert.True(t, result.HasWinner)
	assert.Equal(t, 8, result.Answer)
	assert.Equal(t, 4, result.WinningBucket)
	assert.Equal(t, map[string]int{"p1": 6}, result.Payouts)

	send(t, ws, MessageTypeState, struct{}{})
	var state StateData
	readUntil(t, ws, MessageTypeState, &state)
	assert.Equal(t, "reveal", state.Phase)
	require.NotNil(t, state.Round)
	require.NotNil(t, state.Round.Answer)
	assert.Equal(t, 8, *state.Round.Answer)
	require.Len(t, state.Players, 1)
	assert.Equal(t, 9, state.Players[0].Chips)
}

func TestEventMessageRedactsAnswer(t *testing.T) {
	t.Parallel()
	round := &game.RoundSnapshot{Question: questions.Question{Text: "Q", Answer: 42, Explanation: "because"}}
	msg, err := EventMessage(game.NewPhaseChangeEvent(time.Unix(100, 0), game.PhaseBetting, 10, 0, 1, round))
	require.NoError(t, err)
	assert.Equal(t, MessageTypePhaseChange, msg.Type)
	assert.Equal(t, time.Unix(100, 0), msg.Timestamp)
	assert.NotContains(t, string(msg.Data), "42")
	assert.NotContains(t, string(msg.Data), "because")
}
