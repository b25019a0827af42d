package scoring

import "sort"

// MinRankedPlayers is the smallest field that earns leaderboard points.
const MinRankedPlayers = 3

// participationPoints is awarded when no tier matches.
const participationPoints = 1

// PercentileTier awards Points to players whose rank percentile is at most
// MaxPercentile.
type PercentileTier struct {
	MaxPercentile float64
	Points        int
}

// PercentileTiers is scanned in order; the first matching tier wins.
var PercentileTiers = []PercentileTier{
	{MaxPercentile: 0.01, Points: 100},
	{MaxPercentile: 0.02, Points: 75},
	{MaxPercentile: 0.03, Points: 60},
	{MaxPercentile: 0.05, Points: 50},
	{MaxPercentile: 0.10, Points: 35},
	{MaxPercentile: 0.25, Points: 20},
	{MaxPercentile: 0.50, Points: 10},
	{MaxPercentile: 0.75, Points: 5},
	{MaxPercentile: 1.00, Points: 1},
}

// Standing is a player's final position in a game.
type Standing struct {
	PlayerID          string `json:"playerId"`
	Chips             int    `json:"chips"`
	LeaderboardPoints int    `json:"leaderboardPoints"`
}

// RankStandings sorts standings by chips, highest first, keeping the input
// order for ties, and fills in leaderboard points. The input is not modified.
func RankStandings(standings []Standing) []Standing {
	ranked := make([]Standing, len(standings))
	copy(ranked, standings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Chips > ranked[j].Chips
	})

	total := len(ranked)
	for rank := range ranked {
		ranked[rank].LeaderboardPoints = pointsForRank(rank, total)
	}
	return ranked
}

// LeaderboardPoints maps each player to the points earned for their final
// chip count.
func LeaderboardPoints(standings []Standing) map[string]int {
	points := make(map[string]int, len(standings))
	for _, s := range RankStandings(standings) {
		points[s.PlayerID] = s.LeaderboardPoints
	}
	return points
}

func pointsForRank(rank, total int) int {
	if total < MinRankedPlayers {
		return 0
	}
	percentile := float64(rank+1) / float64(total)
	for _, tier := range PercentileTiers {
		if percentile <= tier.MaxPercentile {
			return tier.Points
		}
	}
	return participationPoints
}
