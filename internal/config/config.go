// Package config loads the HCL configuration for a Brains & Bets server.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/brainsbets/internal/game"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings
	Game   GameSettings
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings configures the game session
type GameSettings struct {
	QuestionsPerGame int               `hcl:"questions_per_game,optional"`
	StartingChips    int               `hcl:"starting_chips,optional"`
	MinPlayers       *int              `hcl:"min_players,optional"`
	Category         string            `hcl:"category,optional"`
	QuestionsDir     string            `hcl:"questions_dir,optional"`
	Durations        *DurationSettings `hcl:"durations,block"`
}

// DurationSettings holds per-phase countdowns in seconds
type DurationSettings struct {
	Lobby    int `hcl:"lobby,optional"`
	Question int `hcl:"question,optional"`
	Betting  int `hcl:"betting,optional"`
	Reveal   int `hcl:"reveal,optional"`
	Scores   int `hcl:"scores,optional"`
}

// fileConfig mirrors the file layout; both top-level blocks are optional.
type fileConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// DefaultQuestionsDir is where question files are looked up by default.
const DefaultQuestionsDir = "questions"

// Default returns the default configuration
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	var raw fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filename, diags.Error())
	}

	c := &Config{}
	if raw.Server != nil {
		c.Server = *raw.Server
	}
	if raw.Game != nil {
		c.Game = *raw.Game
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	def := game.DefaultGameConfig()

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	g := &c.Game
	if g.QuestionsPerGame == 0 {
		g.QuestionsPerGame = def.QuestionsPerGame
	}
	if g.StartingChips == 0 {
		g.StartingChips = def.StartingChips
	}
	if g.MinPlayers == nil {
		n := def.MinPlayers
		g.MinPlayers = &n
	}
	if g.Category == "" {
		g.Category = def.Category
	}
	if g.QuestionsDir == "" {
		g.QuestionsDir = DefaultQuestionsDir
	}
	if g.Durations == nil {
		g.Durations = &DurationSettings{}
	}
	d := g.Durations
	if d.Lobby == 0 {
		d.Lobby = def.Durations.Lobby
	}
	if d.Question == 0 {
		d.Question = def.Durations.Question
	}
	if d.Betting == 0 {
		d.Betting = def.Durations.Betting
	}
	if d.Reveal == 0 {
		d.Reveal = def.Durations.Reveal
	}
	if d.Scores == 0 {
		d.Scores = def.Durations.Scores
	}
}

// GameConfig converts the game block into a session configuration
func (c *Config) GameConfig() game.GameConfig {
	cfg := game.GameConfig{
		QuestionsPerGame: c.Game.QuestionsPerGame,
		StartingChips:    c.Game.StartingChips,
		Category:         c.Game.Category,
	}
	if c.Game.MinPlayers != nil {
		cfg.MinPlayers = *c.Game.MinPlayers
	}
	if d := c.Game.Durations; d != nil {
		cfg.Durations = game.PhaseDurations{
			Lobby:    d.Lobby,
			Question: d.Question,
			Betting:  d.Betting,
			Reveal:   d.Reveal,
			Scores:   d.Scores,
		}
	}
	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Server.LogLevel, err)
	}
	if err := c.GameConfig().Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	return nil
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
