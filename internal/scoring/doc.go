// Package scoring implements the pure scoring rules of a Brains & Bets round.
//
// A round is scored in three steps:
//
//   - ComputeBuckets groups the numeric guesses into at most seven ordered
//     wager buckets, labelled 1..7 and centred on the board.
//   - FindWinningBucket picks the bucket closest to the answer without going
//     over, and CalculatePayouts turns each player's bets into a net chip
//     change using the edge-weighted multiplier table.
//   - At the end of a game RankStandings converts final chip counts into
//     percentile-tiered leaderboard points.
//
// Nothing in this package holds state; the game session owns the round.
package scoring
