package simulator

import (
	"github.com/lox/brainsbets/internal/game"
	"github.com/lox/brainsbets/internal/scoring"
)

// MiddleBucket stakes chips on the middle bucket of the board
func MiddleBucket(chips int) Strategy {
	return func(buckets []scoring.Bucket) []scoring.Bet {
		if len(buckets) == 0 {
			return nil
		}
		return []scoring.Bet{{Bucket: buckets[len(buckets)/2].Label, Chips: chips}}
	}
}

// LastBucket stakes chips on the highest bucket
func LastBucket(chips int) Strategy {
	return func(buckets []scoring.Bucket) []scoring.Bet {
		if len(buckets) == 0 {
			return nil
		}
		return []scoring.Bet{{Bucket: buckets[len(buckets)-1].Label, Chips: chips}}
	}
}

// Edges splits chips between the lowest and highest buckets
func Edges(chips int) Strategy {
	return func(buckets []scoring.Bucket) []scoring.Bet {
		if len(buckets) == 0 {
			return nil
		}
		return []scoring.Bet{
			{Bucket: buckets[0].Label, Chips: chips},
			{Bucket: buckets[len(buckets)-1].Label, Chips: chips},
		}
	}
}

// LowerThanAll always bets the answer is below every guess
func LowerThanAll(chips int) Strategy {
	return func([]scoring.Bucket) []scoring.Bet {
		return []scoring.Bet{{Bucket: scoring.LowerThanAll, Chips: chips}}
	}
}

// DemoPlayers returns the four players used by the demo: guesses spread
// around the answer and a mix of safe and edge bets.
func DemoPlayers() []Player {
	return []Player{
		{ID: "tw:alice", Name: "Alice", Origin: game.OriginTwitch, GuessFactor: 0.8, Strategy: MiddleBucket(2)},
		{ID: "tw:bob", Name: "Bob", Origin: game.OriginTwitch, GuessFactor: 1.2, Strategy: Edges(1)},
		{ID: "yt:carol", Name: "Carol", Origin: game.OriginYouTube, GuessFactor: 0.95, Strategy: MiddleBucket(3)},
		{ID: "tw:dave", Name: "Dave", Origin: game.OriginTwitch, GuessFactor: 1.05, Strategy: LastBucket(2)},
	}
}
