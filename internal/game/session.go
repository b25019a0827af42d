package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/brainsbets/internal/questions"
	"github.com/lox/brainsbets/internal/scoring"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("game: session already started")

const tickInterval = time.Second

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock driving the phase ticker.
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithLogger sets the parent logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithEventBus publishes events to bus instead of a private one.
func WithEventBus(bus EventBus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session runs one game table: the roster, the phase state machine, the
// current round and the countdown. Every exported method is safe for
// concurrent use; commands and ticks are serialized by a single mutex.
type Session struct {
	id     string
	cfg    GameConfig
	source questions.Source
	clock  quartz.Clock
	logger *log.Logger
	bus    EventBus
	events *dispatcher

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	ticker    *quartz.Ticker
	started   bool
	running   bool
	phase     Phase
	remaining int
	// enteredAt is when the current phase began. Ticks stamped at or before
	// it belong to an earlier phase and are dropped.
	enteredAt  time.Time
	players    map[string]*Player
	order      []string
	questions  []questions.Question
	roundIndex int
	round      *roundState
}

// NewSession creates a session in the lobby. It does nothing until Start.
func NewSession(cfg GameConfig, source questions.Source, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game: invalid config: %w", err)
	}
	if source == nil {
		return nil, errors.New("game: question source is required")
	}

	s := &Session{
		cfg:     cfg,
		source:  source,
		phase:   PhaseLobby,
		players: make(map[string]*Player),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.bus == nil {
		s.bus = NewEventBus()
	}
	s.logger = s.logger.WithPrefix("session").With("session", s.id)
	s.events = newDispatcher(s.bus)
	return s, nil
}

// Subscribe registers subscriber on the session's event bus.
func (s *Session) Subscribe(subscriber EventSubscriber) {
	s.bus.Subscribe(subscriber)
}

// Unsubscribe removes subscriber from the session's event bus.
func (s *Session) Unsubscribe(subscriber EventSubscriber) {
	s.bus.Unsubscribe(subscriber)
}

// Start checks that the configured category can be served, enters the lobby
// and arms the phase ticker. The session stops when ctx is cancelled.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if _, err := s.source.Sample(ctx, s.cfg.Category, 1); err != nil {
		return fmt.Errorf("game: cannot start session: %w", err)
	}

	s.started = true
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.ticker = s.clock.NewTicker(tickInterval, "session", "tick")

	go s.events.run()
	go s.tickLoop(s.ctx, s.ticker)

	s.logger.Info("Session started", "category", s.cfg.Category, "questions", s.cfg.QuestionsPerGame)
	s.enterPhase(PhaseLobby)
	return nil
}

// Stop cancels the ticker. No ticks or transitions happen afterwards. Stop is
// idempotent and safe to call from an event subscriber.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop("session", "stop")
	s.cancel()
	s.mu.Unlock()

	s.events.close()
	s.logger.Info("Session stopped")
}

// Done is closed once the session has stopped and every queued event has
// been delivered.
func (s *Session) Done() <-chan struct{} {
	return s.events.done
}

func (s *Session) tickLoop(ctx context.Context, ticker *quartz.Ticker) {
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case at := <-ticker.C:
			s.onTick(at)
		}
	}
}

func (s *Session) onTick(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || !at.After(s.enteredAt) {
		return
	}
	s.remaining--
	s.emit(NewTickEvent(s.clock.Now(), s.phase, s.remaining))
	if s.remaining <= 0 {
		s.advancePhase()
	}
}

// AddPlayer registers a player while the session is in the lobby. It returns
// false if the id is taken or the phase is wrong.
func (s *Session) AddPlayer(id, name string, origin Origin) bool {
	return s.TryAddPlayer(id, name, origin) == nil
}

// TryAddPlayer is AddPlayer with the rejection reason.
func (s *Session) TryAddPlayer(id, name string, origin Origin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reason := s.checkAddPlayer(id, origin); reason != "" {
		return s.reject("join", reason, "player", id)
	}

	p := &Player{
		ID:     id,
		Name:   name,
		Origin: origin,
		Chips:  s.cfg.StartingChips,
	}
	s.players[id] = p
	s.order = append(s.order, id)

	s.logger.Info("Player joined", "player", id, "name", name, "origin", origin, "players", len(s.order))
	s.emit(NewPlayerJoinedEvent(s.clock.Now(), p.clone()))
	return nil
}

func (s *Session) checkAddPlayer(id string, origin Origin) RejectReason {
	switch {
	case !s.running:
		return RejectNotRunning
	case s.phase != PhaseLobby:
		return RejectWrongPhase
	case id == "" || !origin.Valid():
		return RejectInvalidPlayer
	}
	if _, exists := s.players[id]; exists {
		return RejectDuplicatePlayer
	}
	return ""
}

// SubmitGuess records a player's first guess for the current question.
// Once every registered player has guessed the session moves to betting.
func (s *Session) SubmitGuess(playerID string, value float64) bool {
	return s.TrySubmitGuess(playerID, value) == nil
}

// TrySubmitGuess is SubmitGuess with the rejection reason.
func (s *Session) TrySubmitGuess(playerID string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reason RejectReason
	var p *Player
	switch {
	case !s.running:
		reason = RejectNotRunning
	case s.phase != PhaseQuestion || s.round == nil:
		reason = RejectWrongPhase
	default:
		var ok bool
		if p, ok = s.players[playerID]; !ok {
			reason = RejectUnknownPlayer
		} else if _, guessed := s.round.guesses[playerID]; guessed {
			reason = RejectAlreadyGuessed
		} else if math.IsNaN(value) || math.IsInf(value, 0) {
			reason = RejectInvalidGuess
		}
	}
	if reason != "" {
		return s.reject("guess", reason, "player", playerID)
	}

	s.round.guesses[playerID] = value
	g := value
	p.Guess = &g

	s.logger.Debug("Guess received", "player", playerID, "guess", value)
	s.emit(NewGuessReceivedEvent(s.clock.Now(), playerID, value))

	if len(s.round.guesses) >= len(s.players) {
		s.logger.Debug("All players guessed, advancing")
		s.advancePhase()
	}
	return nil
}

// SubmitBets records a player's bet set for the current round. The set is
// checked in a fixed order: bet count, total against balance, positive
// total, distinct buckets, positive stakes, known labels. Once every
// registered player has bet the session moves to reveal.
func (s *Session) SubmitBets(playerID string, bets []scoring.Bet) bool {
	return s.TrySubmitBets(playerID, bets) == nil
}

// TrySubmitBets is SubmitBets with the rejection reason.
func (s *Session) TrySubmitBets(playerID string, bets []scoring.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reason RejectReason
	var p *Player
	switch {
	case !s.running:
		reason = RejectNotRunning
	case s.phase != PhaseBetting || s.round == nil:
		reason = RejectWrongPhase
	default:
		var ok bool
		if p, ok = s.players[playerID]; !ok {
			reason = RejectUnknownPlayer
		} else if _, placed := s.round.bets[playerID]; placed {
			reason = RejectAlreadyBet
		} else {
			reason = ValidateBets(bets, p.Chips)
		}
	}
	if reason != "" {
		return s.reject("bet", reason, "player", playerID)
	}

	placed := make([]scoring.Bet, len(bets))
	copy(placed, bets)
	s.round.bets[playerID] = placed
	p.Bets = placed

	s.logger.Debug("Bets received", "player", playerID, "bets", len(placed))
	s.emit(NewBetReceivedEvent(s.clock.Now(), playerID, placed))

	if len(s.round.bets) >= len(s.players) {
		s.logger.Debug("All players bet, advancing")
		s.advancePhase()
	}
	return nil
}

func (s *Session) reject(action string, reason RejectReason, keyvals ...any) error {
	s.logger.Debug("Command rejected", append([]any{"action", action, "reason", reason, "phase", s.phase}, keyvals...)...)
	return &RejectedError{Action: action, Reason: reason}
}

// enterPhase runs the entry action of phase, publishes the change and
// restarts the countdown.
func (s *Session) enterPhase(phase Phase) {
	s.phase = phase
	s.remaining = s.cfg.Durations.For(phase)
	s.enteredAt = s.clock.Now()

	switch phase {
	case PhaseLobby:
		s.onEnterLobby()
	case PhaseQuestion:
		s.onEnterQuestion()
	case PhaseBetting:
		s.onEnterBetting()
	case PhaseReveal:
		s.onEnterReveal()
	case PhaseScores:
	}

	var round *RoundSnapshot
	if s.round != nil {
		snap := s.round.snapshot()
		round = &snap
	}
	s.logger.Info("Phase changed", "phase", phase, "remaining", s.remaining, "round", s.roundIndex+1, "of", len(s.questions))
	s.emit(NewPhaseChangeEvent(s.clock.Now(), phase, s.remaining, s.roundIndex, len(s.questions), round))

	s.ticker.Reset(tickInterval, "session", "reset")
}

func (s *Session) advancePhase() {
	switch s.phase {
	case PhaseLobby:
		s.leaveLobby()
	case PhaseQuestion:
		s.enterPhase(PhaseBetting)
	case PhaseBetting:
		s.enterPhase(PhaseReveal)
	case PhaseReveal:
		s.enterPhase(PhaseScores)
	case PhaseScores:
		if s.roundIndex < len(s.questions)-1 {
			s.roundIndex++
			s.enterPhase(PhaseQuestion)
		} else {
			s.gameOver()
		}
	}
}

// leaveLobby starts a game if enough players are present and questions can
// be drawn. Otherwise the lobby countdown starts again.
func (s *Session) leaveLobby() {
	if len(s.players) < s.cfg.MinPlayers {
		s.logger.Info("Not enough players to start", "players", len(s.players), "min", s.cfg.MinPlayers)
		s.enterPhase(PhaseLobby)
		return
	}

	drawn, err := s.source.Sample(s.ctx, s.cfg.Category, s.cfg.QuestionsPerGame)
	if err == nil && len(drawn) == 0 {
		err = fmt.Errorf("%w: %q", questions.ErrCategoryNotFound, s.cfg.Category)
	}
	if err != nil {
		err = fmt.Errorf("game: drawing questions: %w", err)
		s.logger.Error("Cannot start game", "error", err)
		s.emit(NewErrorEvent(s.clock.Now(), err))
		s.enterPhase(PhaseLobby)
		return
	}

	s.questions = drawn
	s.roundIndex = 0
	for _, p := range s.players {
		p.Chips = s.cfg.StartingChips
		p.resetRound()
	}
	s.logger.Info("Game starting", "players", len(s.players), "questions", len(drawn))
	s.enterPhase(PhaseQuestion)
}

func (s *Session) onEnterLobby() {
	s.round = nil
	s.roundIndex = 0
	s.questions = nil
	for _, p := range s.players {
		p.resetRound()
	}
}

func (s *Session) onEnterQuestion() {
	s.round = newRoundState(s.roundIndex, s.questions[s.roundIndex])
	for _, p := range s.players {
		p.resetRound()
	}
}

func (s *Session) onEnterBetting() {
	s.round.buckets = scoring.ComputeBuckets(s.round.guesses)
	s.logger.Debug("Buckets computed", "buckets", len(s.round.buckets), "guesses", len(s.round.guesses))
	s.emit(NewBucketsComputedEvent(s.clock.Now(), s.round.buckets))
}

func (s *Session) onEnterReveal() {
	r := s.round
	answer := r.question.Answer
	r.resolved = true
	r.winning, r.hasWinner = scoring.FindWinningBucket(r.buckets, answer)

	if r.hasWinner {
		bets := make([]scoring.PlayerBets, 0, len(s.order))
		for _, id := range s.order {
			bets = append(bets, scoring.PlayerBets{PlayerID: id, Bets: r.bets[id]})
		}
		r.payouts = scoring.CalculatePayouts(bets, r.buckets, r.winning, answer)
		for id, net := range r.payouts {
			if p, ok := s.players[id]; ok {
				p.Chips = max(0, p.Chips+net)
			}
		}
	} else {
		r.payouts = map[string]int{}
	}

	s.logger.Info("Round resolved", "answer", answer, "winner", r.hasWinner, "bucket", r.winning)
	s.emit(RoundResultEvent{
		RoundIndex:    r.index,
		Question:      r.question,
		HasWinner:     r.hasWinner,
		WinningBucket: r.winning,
		LowerThanAll:  scoring.IsLowerThanAll(r.buckets, answer),
		Payouts:       maps.Clone(r.payouts),
		Players:       s.rosterLocked(),
		timestamp:     s.clock.Now(),
	})
}

func (s *Session) gameOver() {
	standings := make([]scoring.Standing, 0, len(s.order))
	for _, id := range s.order {
		standings = append(standings, scoring.Standing{PlayerID: id, Chips: s.players[id].Chips})
	}
	ranked := scoring.RankStandings(standings)

	s.logger.Info("Game over", "players", len(ranked))
	s.emit(NewGameOverEvent(s.clock.Now(), ranked))
	s.enterPhase(PhaseLobby)
}

// emit must be called with s.mu held so events keep state order.
func (s *Session) emit(e Event) {
	s.events.enqueue(e)
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Config returns the game configuration.
func (s *Session) Config() GameConfig {
	return s.cfg
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// TimeRemaining returns the seconds left on the current countdown.
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// RoundIndex returns the zero-based index of the current question.
func (s *Session) RoundIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundIndex
}

// TotalRounds returns the number of questions drawn for the running game,
// or 0 in the lobby.
func (s *Session) TotalRounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// Round returns a copy of the current round, if any.
func (s *Session) Round() (RoundSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil {
		return RoundSnapshot{}, false
	}
	return s.round.snapshot(), true
}

// Players returns the roster in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}

// Player returns a copy of one player.
func (s *Session) Player(id string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return Player{}, false
	}
	return p.clone(), true
}

func (s *Session) rosterLocked() []Player {
	out := make([]Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.players[id].clone())
	}
	return out
}
