package scoring

// LowerThanAllMultiplier is the payout multiplier for a winning bet on the
// LowerThanAll label.
const LowerThanAllMultiplier = 4

// Buckets nearer the edges of the board pay more.
var payoutMultipliers = [MaxBuckets + 1]int{
	1: 4,
	2: 3,
	3: 2,
	4: 2,
	5: 2,
	6: 3,
	7: 4,
}

// PayoutMultiplier returns the multiplier paid on a winning bet on label, or 0
// for labels that cannot be bet on.
func PayoutMultiplier(label Label) int {
	switch {
	case label == LowerThanAll:
		return LowerThanAllMultiplier
	case label.Valid():
		return payoutMultipliers[label]
	default:
		return 0
	}
}

// Bet stakes chips on a bucket label.
type Bet struct {
	Bucket Label `json:"bucket"`
	Chips  int   `json:"chips"`
}

// PlayerBets is the bet set a player placed in a round.
type PlayerBets struct {
	PlayerID string
	Bets     []Bet
}

// FindWinningBucket returns the label of the bucket closest to answer without
// going over. When every bucket is over the answer the lowest bucket wins. The
// second result is false only when there are no buckets.
func FindWinningBucket(buckets []Bucket, answer int) (Label, bool) {
	if len(buckets) == 0 {
		return 0, false
	}

	target := float64(answer)
	var best *Bucket
	for i := range buckets {
		b := &buckets[i]
		if b.Value <= target && (best == nil || b.Value > best.Value) {
			best = b
		}
	}
	if best == nil {
		best = &buckets[0]
		for i := range buckets {
			if buckets[i].Value < best.Value {
				best = &buckets[i]
			}
		}
	}
	return best.Label, true
}

// IsLowerThanAll reports whether answer is strictly below every bucket value.
// It is false when there are no buckets.
func IsLowerThanAll(buckets []Bucket, answer int) bool {
	if len(buckets) == 0 {
		return false
	}
	target := float64(answer)
	for _, b := range buckets {
		if target >= b.Value {
			return false
		}
	}
	return true
}

// CalculatePayouts returns each player's net chip change for the round. A bet
// on the winning bucket pays stake times the bucket multiplier, a bet on
// LowerThanAll pays stake times four when the answer is below every bucket,
// and every other bet loses its stake. Results are not clamped.
func CalculatePayouts(players []PlayerBets, buckets []Bucket, winning Label, answer int) map[string]int {
	lower := IsLowerThanAll(buckets, answer)
	results := make(map[string]int, len(players))

	for _, p := range players {
		net := 0
		for _, bet := range p.Bets {
			switch {
			case bet.Bucket == winning && winning.Valid():
				net += bet.Chips * PayoutMultiplier(winning)
			case bet.Bucket == LowerThanAll && lower:
				net += bet.Chips * LowerThanAllMultiplier
			default:
				net -= bet.Chips
			}
		}
		results[p.PlayerID] = net
	}
	return results
}
