package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lox/brainsbets/internal/config"
	"github.com/lox/brainsbets/internal/questions"
)

// ValidateConfigCmd loads a configuration file and checks it can run a game
type ValidateConfigCmd struct {
	Config string `arg:"" default:"brainsbets.hcl" help:"Path to HCL configuration file"`
}

func (c *ValidateConfigCmd) Run() error {
	return validateConfig(context.Background(), os.Stdout, c.Config)
}

func validateConfig(ctx context.Context, w io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	repo := questions.NewRepository()
	if err := repo.LoadDir(ctx, cfg.Game.QuestionsDir); err != nil {
		return fmt.Errorf("loading questions: %w", err)
	}
	count := repo.Count(cfg.Game.Category)
	if count == 0 {
		return fmt.Errorf("%w: %q in %s", questions.ErrCategoryNotFound, cfg.Game.Category, cfg.Game.QuestionsDir)
	}
	if count < cfg.Game.QuestionsPerGame {
		fmt.Fprintf(w, "warning: category %s has %d questions, games will be %d rounds\n",
			cfg.Game.Category, count, count)
	}

	fmt.Fprintf(w, "%s: OK (listen %s, %d questions per game, category %s)\n",
		path, cfg.ServerAddress(), cfg.Game.QuestionsPerGame, cfg.Game.Category)
	return nil
}
