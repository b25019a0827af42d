package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardPointsFewPlayers(t *testing.T) {
	t.Parallel()
	points := LeaderboardPoints([]Standing{
		{PlayerID: "p1", Chips: 100},
		{PlayerID: "p2", Chips: 50},
	})
	assert.Equal(t, map[string]int{"p1": 0, "p2": 0}, points)
	assert.Empty(t, LeaderboardPoints(nil))
}

func TestLeaderboardPointsThreePlayers(t *testing.T) {
	t.Parallel()
	points := LeaderboardPoints([]Standing{
		{PlayerID: "p3", Chips: 10},
		{PlayerID: "p1", Chips: 100},
		{PlayerID: "p2", Chips: 50},
	})
	assert.Equal(t, map[string]int{"p1": 10, "p2": 5, "p3": 1}, points)
}

func TestLeaderboardPointsLargeField(t *testing.T) {
	t.Parallel()
	standings := make([]Standing, 100)
	for i := range standings {
		standings[i] = Standing{PlayerID: fmt.Sprintf("p%d", i), Chips: 1000 - i}
	}
	points := LeaderboardPoints(standings)

	tests := map[string]int{
		"p0":  100, // 1%
		"p1":  75,  // 2%
		"p2":  60,  // 3%
		"p4":  50,  // 5%
		"p9":  35,  // 10%
		"p24": 20,  // 25%
		"p49": 10,  // 50%
		"p74": 5,   // 75%
		"p99": 1,   // 100%
	}
	for id, want := range tests {
		assert.Equal(t, want, points[id], "player %s", id)
	}
}

func TestRankStandings(t *testing.T) {
	t.Parallel()
	input := []Standing{
		{PlayerID: "a", Chips: 5},
		{PlayerID: "b", Chips: 9},
		{PlayerID: "c", Chips: 5},
		{PlayerID: "d", Chips: 0},
	}
	ranked := RankStandings(input)
	require.Len(t, ranked, 4)

	ids := []string{ranked[0].PlayerID, ranked[1].PlayerID, ranked[2].PlayerID, ranked[3].PlayerID}
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids, "ties keep insertion order")
	assert.Equal(t, []int{20, 10, 5, 1}, []int{
		ranked[0].LeaderboardPoints,
		ranked[1].LeaderboardPoints,
		ranked[2].LeaderboardPoints,
		ranked[3].LeaderboardPoints,
	})
	assert.Equal(t, "a", input[0].PlayerID, "input is not reordered")
	assert.Zero(t, input[0].LeaderboardPoints)
}
