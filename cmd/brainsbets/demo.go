package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/brainsbets/cmd/brainsbets/shared"
	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/questions"
	"github.com/lox/brainsbets/internal/simulator"
	"github.com/lox/brainsbets/internal/tui"
)

// DemoCmd plays one game with scripted players and stops at game over
type DemoCmd struct {
	TUI        bool   `help:"Show the big screen instead of console output"`
	NoColor    bool   `help:"Disable colour output"`
	Questions  string `type:"existingdir" help:"Load questions from this directory instead of the built-in bank"`
	Category   string `default:"General" help:"Question category"`
	Rounds     int    `default:"3" help:"Questions per game"`
	Seed       int64  `help:"Seed for question order (0 picks one at random)"`
	ResultsDir string `help:"Write final standings as JSON into this directory"`
}

func (c *DemoCmd) Run(g *Globals) error {
	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	var logger *log.Logger
	if c.TUI && !g.Debug {
		// Log lines would tear the alt screen
		logger = shared.NewLogger(io.Discard, log.InfoLevel, g.LogFormat)
	} else {
		logger = shared.SetupLogger(shared.ParseLevel("warn", g.Debug), g.LogFormat)
	}

	ctx, cancel := shared.SetupSignalHandler(context.Background(), logger)
	defer cancel()

	repo, err := loadQuestions(ctx, c.Questions, c.Seed)
	if err != nil {
		return err
	}
	session, err := game.NewSession(demoConfig(c.Rounds, c.Category), repo, game.WithLogger(logger))
	if err != nil {
		return err
	}

	// The console and recorder subscribe ahead of the stopper so they see
	// the final standings before the session shuts down.
	var console *game.ChannelSubscriber
	if !c.TUI {
		console = game.NewChannelSubscriber(256)
		session.Subscribe(console)
		defer console.Close()
	}
	if err := recordResults(session, c.ResultsDir, logger); err != nil {
		return err
	}
	session.Subscribe(stopOnGameOver{session: session})

	sim := simulator.New(session, simulator.Config{
		Players:    simulator.DemoPlayers(),
		GuessDelay: 1500 * time.Millisecond,
		BetDelay:   time.Second,
		Logger:     logger,
	})

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return sim.Run(egCtx)
	})
	if c.TUI {
		eg.Go(func() error {
			defer cancel()
			return tui.Run(session)
		})
	} else {
		fmt.Fprintln(os.Stdout, tui.HeaderStyle.Render("Brains & Bets demo"))
		eg.Go(func() error {
			formatter := &game.EventFormatter{Name: playerName(session)}
			printEvents(os.Stdout, console.Events(), session.Done(), formatter)
			return nil
		})
	}
	return eg.Wait()
}

// demoConfig shortens every phase so a game finishes in about a minute
func demoConfig(rounds int, category string) game.GameConfig {
	cfg := game.DefaultGameConfig()
	cfg.QuestionsPerGame = rounds
	cfg.Category = category
	cfg.MinPlayers = 2
	cfg.Durations = game.PhaseDurations{
		Lobby:    5,
		Question: 8,
		Betting:  6,
		Reveal:   4,
		Scores:   4,
	}
	return cfg
}

func loadQuestions(ctx context.Context, dir string, seed int64) (*questions.Repository, error) {
	opts := seedOptions(seed)
	if dir == "" {
		return questions.Builtin(ctx, opts...)
	}
	repo := questions.NewRepository(opts...)
	if err := repo.LoadDir(ctx, dir); err != nil {
		return nil, fmt.Errorf("loading questions: %w", err)
	}
	return repo, nil
}

func seedOptions(seed int64) []questions.Option {
	if seed == 0 {
		return nil
	}
	return []questions.Option{questions.WithSeed(seed)}
}

type stopOnGameOver struct {
	session *game.Session
}

func (s stopOnGameOver) OnEvent(event game.Event) {
	if _, ok := event.(game.GameOverEvent); ok {
		s.session.Stop()
	}
}

func playerName(session *game.Session) func(string) string {
	return func(id string) string {
		if p, ok := session.Player(id); ok {
			return p.Name
		}
		return ""
	}
}

// printEvents writes one styled line per event until done is closed and the
// buffer is drained
func printEvents(w io.Writer, events <-chan game.Event, done <-chan struct{}, formatter *game.EventFormatter) {
	emit := func(e game.Event) {
		if line := formatter.Format(e); line != "" {
			fmt.Fprintln(w, tui.LineStyle(line).Render(line))
		}
	}
	for {
		select {
		case e := <-events:
			emit(e)
		case <-done:
			for {
				select {
				case e := <-events:
					emit(e)
				default:
					return
				}
			}
		}
	}
}
