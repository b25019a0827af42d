package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/brainsbets/internal/scoring"
)

// EventFormatter renders events as single log lines for consoles and the
// big screen.
type EventFormatter struct {
	// Name resolves a player id to a display name. Ids are shown as-is when
	// nil or when it returns "".
	Name func(id string) string
	// ShowTicks includes countdown ticks, which are noisy in logs.
	ShowTicks bool
}

func (f *EventFormatter) name(id string) string {
	if f.Name != nil {
		if n := f.Name(id); n != "" {
			return n
		}
	}
	return id
}

// Format returns the line for event, or "" when it should not be shown.
func (f *EventFormatter) Format(event Event) string {
	switch e := event.(type) {
	case PhaseChangeEvent:
		line := fmt.Sprintf(">>> Phase: %s (%ds)", strings.ToUpper(string(e.Phase)), e.Remaining)
		if e.Phase == PhaseQuestion && e.Round != nil {
			line += fmt.Sprintf("  Q%d/%d: %s", e.RoundIndex+1, e.TotalRounds, e.Round.Question.Text)
		}
		return line
	case TickEvent:
		if !f.ShowTicks {
			return ""
		}
		return fmt.Sprintf("%s: %ds", e.Phase, e.Remaining)
	case PlayerJoinedEvent:
		return fmt.Sprintf("+ %s joined (%s)", e.Player.Name, e.Player.Origin)
	case GuessReceivedEvent:
		return fmt.Sprintf("%s guessed: %s", f.name(e.PlayerID), FormatNumber(e.Guess))
	case BetReceivedEvent:
		return fmt.Sprintf("%s bet: %s", f.name(e.PlayerID), FormatBets(e.Bets))
	case BucketsComputedEvent:
		if len(e.Buckets) == 0 {
			return "No guesses, no buckets"
		}
		parts := make([]string, len(e.Buckets))
		for i, b := range e.Buckets {
			parts[i] = fmt.Sprintf("[%d] %s", b.Label, FormatNumber(b.Value))
		}
		return "Buckets: " + strings.Join(parts, "  ")
	case RoundResultEvent:
		line := fmt.Sprintf("Correct answer: %d", e.Question.Answer)
		switch {
		case !e.HasWinner:
			line += ", no winning bucket"
		case e.LowerThanAll:
			line += fmt.Sprintf(", lower than every guess (bucket %d takes the fallback)", e.WinningBucket)
		default:
			line += fmt.Sprintf(", winning bucket %d", e.WinningBucket)
		}
		return line
	case GameOverEvent:
		parts := make([]string, len(e.Standings))
		for i, s := range e.Standings {
			parts[i] = fmt.Sprintf("%s: %d chips, %d LP", f.name(s.PlayerID), s.Chips, s.LeaderboardPoints)
		}
		return "=== GAME OVER === " + strings.Join(parts, "; ")
	case ErrorEvent:
		return fmt.Sprintf("Error: %v", e.Err)
	default:
		return ""
	}
}

// FormatBets renders a bet set, e.g. "2 chip(s) on bucket 4".
func FormatBets(bets []scoring.Bet) string {
	parts := make([]string, len(bets))
	for i, b := range bets {
		target := "bucket " + b.Bucket.String()
		if b.Bucket == scoring.LowerThanAll {
			target = "lower than all"
		}
		parts[i] = fmt.Sprintf("%d chip(s) on %s", b.Chips, target)
	}
	return strings.Join(parts, ", ")
}

// FormatNumber prints whole numbers without a fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
