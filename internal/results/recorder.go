// Package results writes the final standings of each finished game to disk
// as JSON, one file per game.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/brainsbets/internal/game"
)

// Standing is one ranked line of a result file
type Standing struct {
	Rank              int    `json:"rank"`
	PlayerID          string `json:"playerId"`
	Name              string `json:"name,omitempty"`
	Chips             int    `json:"chips"`
	LeaderboardPoints int    `json:"leaderboardPoints"`
}

// Result is the document written for a finished game
type Result struct {
	SessionID  string     `json:"sessionId"`
	Game       int        `json:"game"`
	FinishedAt time.Time  `json:"finishedAt"`
	Standings  []Standing `json:"standings"`
}

// Recorder is a game.EventSubscriber that saves standings at game over.
// Write failures are logged and never reach the session.
type Recorder struct {
	dir       string
	sessionID string
	logger    *log.Logger

	mu      sync.Mutex
	names   map[string]string
	games   int
	written []string
}

// NewRecorder creates the results directory if needed
func NewRecorder(dir, sessionID string, logger *log.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &Recorder{
		dir:       dir,
		sessionID: sessionID,
		logger:    logger.WithPrefix("results"),
		names:     make(map[string]string),
	}, nil
}

// OnEvent implements game.EventSubscriber
func (r *Recorder) OnEvent(event game.Event) {
	switch e := event.(type) {
	case game.PlayerJoinedEvent:
		r.mu.Lock()
		r.names[e.Player.ID] = e.Player.Name
		r.mu.Unlock()
	case game.GameOverEvent:
		path, err := r.record(e)
		if err != nil {
			r.logger.Error("Failed to write results", "error", err)
			return
		}
		r.logger.Info("Results written", "path", path, "players", len(e.Standings))
	}
}

func (r *Recorder) record(e game.GameOverEvent) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games++
	result := Result{
		SessionID:  r.sessionID,
		Game:       r.games,
		FinishedAt: e.Timestamp().UTC(),
		Standings:  make([]Standing, len(e.Standings)),
	}
	for i, s := range e.Standings {
		result.Standings[i] = Standing{
			Rank:              i + 1,
			PlayerID:          s.PlayerID,
			Name:              r.names[s.PlayerID],
			Chips:             s.Chips,
			LeaderboardPoints: s.LeaderboardPoints,
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, fmt.Sprintf("%s-game-%03d.json", r.sessionID, r.games))
	if err := writeFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	r.written = append(r.written, path)
	return path, nil
}

// Written returns the paths of the result files saved so far
func (r *Recorder) Written() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.written...)
}

// Load reads a result file
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &result, nil
}
