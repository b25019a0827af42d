package scoring

import (
	"fmt"
	"math"
	"sort"
)

const (
	// MaxBuckets is the number of wager labels on the board.
	MaxBuckets = 7

	// LowerThanAll is the reserved bet label meaning the answer is below every
	// guess submitted this round.
	LowerThanAll Label = 0

	clusterMaxIterations = 50
	clusterTolerance     = 1e-9
)

// Label identifies a wager bucket on the 1..7 board.
type Label int

// Valid reports whether l is a bucket label (1..7).
func (l Label) Valid() bool {
	return l >= 1 && l <= MaxBuckets
}

// Bettable reports whether a bet may reference l (0..7).
func (l Label) Bettable() bool {
	return l == LowerThanAll || l.Valid()
}

func (l Label) String() string {
	if l == LowerThanAll {
		return "lower"
	}
	return fmt.Sprintf("%d", int(l))
}

// Bucket groups similar guesses into a single betting target.
type Bucket struct {
	Label     Label    `json:"label"`
	Value     float64  `json:"value"`
	PlayerIDs []string `json:"playerIds"`
}

// ComputeBuckets groups guesses (player id to value) into at most seven
// buckets ordered by value. Identical guesses share a bucket. With more than
// seven distinct values the values are clustered and each bucket is
// represented by the median of its members. Labels are centred on the board,
// so two buckets get labels 3 and 4. Non-finite guesses are ignored.
func ComputeBuckets(guesses map[string]float64) []Bucket {
	byValue := make(map[float64][]string)
	for playerID, v := range guesses {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		byValue[v] = append(byValue[v], playerID)
	}
	if len(byValue) == 0 {
		return []Bucket{}
	}

	values := make([]float64, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Float64s(values)

	var groups [][]float64
	if len(values) <= MaxBuckets {
		groups = make([][]float64, len(values))
		for i, v := range values {
			groups[i] = []float64{v}
		}
	} else {
		groups = clusterSorted(values, MaxBuckets)
	}

	buckets := make([]Bucket, len(groups))
	for i, group := range groups {
		var ids []string
		for _, v := range group {
			ids = append(ids, byValue[v]...)
		}
		sort.Strings(ids)
		buckets[i] = Bucket{
			Value:     group[len(group)/2],
			PlayerIDs: ids,
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Value < buckets[j].Value
	})

	offset := (MaxBuckets-len(buckets))/2 + 1
	for i := range buckets {
		label := Label(i + offset)
		if !label.Valid() {
			panic(fmt.Sprintf("scoring: bucket %d of %d got label %d outside 1..%d", i, len(buckets), label, MaxBuckets))
		}
		buckets[i].Label = label
	}
	return buckets
}

// clusterSorted partitions ascending distinct values into exactly k ordered,
// non-empty groups using one-dimensional k-means. len(values) must exceed k.
func clusterSorted(values []float64, k int) [][]float64 {
	n := len(values)
	centroids := make([]float64, k)
	for i := range centroids {
		centroids[i] = values[(2*i+1)*n/(2*k)]
	}

	tol := clusterTolerance * math.Max(1, values[n-1]-values[0])
	assign := make([]int, n)
	sums := make([]float64, k)
	counts := make([]int, k)

	for range clusterMaxIterations {
		for i, v := range values {
			best, bestDist := 0, math.Abs(v-centroids[0])
			for j := 1; j < k; j++ {
				if d := math.Abs(v - centroids[j]); d < bestDist {
					best, bestDist = j, d
				}
			}
			assign[i] = best
		}

		clear(sums)
		clear(counts)
		for i, v := range values {
			sums[assign[i]] += v
			counts[assign[i]]++
		}

		shift := 0.0
		for j := range centroids {
			if counts[j] == 0 {
				continue
			}
			next := sums[j] / float64(counts[j])
			shift = math.Max(shift, math.Abs(next-centroids[j]))
			centroids[j] = next
		}
		if shift <= tol {
			break
		}
	}

	// Nearest-centroid cells are intervals on the number line, so each
	// cluster is a contiguous run of the sorted values.
	byCluster := make([][]float64, k)
	for i, v := range values {
		byCluster[assign[i]] = append(byCluster[assign[i]], v)
	}
	groups := make([][]float64, 0, k)
	for _, g := range byCluster {
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	for len(groups) < k {
		widest := 0
		for i, g := range groups {
			if len(g) > len(groups[widest]) {
				widest = i
			}
		}
		g := groups[widest]
		mid := len(g) / 2
		lower, upper := g[:mid:mid], g[mid:]
		groups = append(groups[:widest], append([][]float64{lower, upper}, groups[widest+1:]...)...)
	}
	return groups
}
