package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/brainsbets/cmd/brainsbets/shared"
	"github.com/lox/brainsbets/internal/config"
	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/questions"
	"github.com/lox/brainsbets/internal/server"
)

// ServeCmd runs a session behind the WebSocket server
type ServeCmd struct {
	Config     string `short:"c" default:"brainsbets.hcl" help:"Path to HCL configuration file"`
	Addr       string `short:"a" help:"Listen address host:port (overrides config)"`
	Questions  string `help:"Questions directory (overrides config)"`
	Category   string `help:"Question category (overrides config)"`
	Rounds     int    `help:"Questions per game (overrides config)"`
	Seed       int64  `help:"Seed for question order (0 picks one at random)"`
	ResultsDir string `help:"Write final standings as JSON into this directory"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := shared.SetupLogger(shared.ParseLevel(cfg.Server.LogLevel, g.Debug), g.LogFormat)
	ctx, cancel := shared.SetupSignalHandler(context.Background(), logger)
	defer cancel()

	repo := questions.NewRepository(seedOptions(c.Seed)...)
	if err := repo.LoadDir(ctx, cfg.Game.QuestionsDir); err != nil {
		return fmt.Errorf("loading questions: %w", err)
	}
	logger.Info("Loaded questions",
		"dir", cfg.Game.QuestionsDir,
		"categories", repo.Categories(),
		"category", cfg.Game.Category,
		"count", repo.Count(cfg.Game.Category))

	session, err := game.NewSession(cfg.GameConfig(), repo, game.WithLogger(logger))
	if err != nil {
		return err
	}

	if err := recordResults(session, c.ResultsDir, logger); err != nil {
		return err
	}

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := server.NewServer(addr, session, logger)

	logger.Info("Starting Brains & Bets server",
		"addr", addr,
		"session", session.ID(),
		"questions_per_game", cfg.Game.QuestionsPerGame,
		"min_players", *cfg.Game.MinPlayers)

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.Serve(egCtx)
	})
	eg.Go(func() error {
		select {
		case <-session.Done():
			if egCtx.Err() != nil {
				return nil
			}
			return errors.New("session stopped unexpectedly")
		case <-egCtx.Done():
			return nil
		}
	})
	return eg.Wait()
}

func (c *ServeCmd) applyOverrides(cfg *config.Config) {
	if c.Questions != "" {
		cfg.Game.QuestionsDir = c.Questions
	}
	if c.Category != "" {
		cfg.Game.Category = c.Category
	}
	if c.Rounds > 0 {
		cfg.Game.QuestionsPerGame = c.Rounds
	}
}
