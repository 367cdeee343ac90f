package trellis

import "github.com/strandgate/helix/pkg/model"

// Metric scores how costly it is to hypothesize that the true base at a
// trellis position was hypothesis, given that observed was actually read
// off the strand. The default, HammingMetric, treats the channel as a
// simple substitution channel. Keeping this pluggable lets a future
// symbol-specific error model (e.g. A<->G transition priors in nanopore
// sequencing, per spec §9) replace Hamming distance without touching the
// trellis topology below.
type Metric func(hypothesis, observed model.Base) int

// HammingMetric costs 0 for a match and 1 for any mismatch.
func HammingMetric(hypothesis, observed model.Base) int {
	if hypothesis == observed {
		return 0
	}
	return 1
}

const infCost = int(^uint(0) >> 1) // max int, used as "unreachable"

// ViterbiCorrect treats noisy as the observed output of the rotating
// trellis seeded at start and finds the minimum-cost base sequence that
// (a) never repeats a base at adjacent positions and (b) minimizes the
// sum of metric(hypothesis, observed) over all positions. It returns the
// corrected sequence and true, or ("", false) if noisy contains a
// character outside {A,C,G,T} or is empty.
//
// This is a textbook Viterbi dynamic program over a 4-state trellis
// (one state per base): O(L) positions, O(4) states, O(3) legal
// transitions per state (spec §4.3: "time O(L·4·3)").
func ViterbiCorrect(noisy string, start model.Base, metric Metric) (string, bool) {
	n := len(noisy)
	if n == 0 {
		return "", false
	}

	observed := make([]model.Base, n)
	for i := 0; i < n; i++ {
		b, ok := model.BaseFromChar(noisy[i])
		if !ok {
			return "", false
		}
		observed[i] = b
	}

	// cost[i][s] is the minimum accumulated cost of a legal path of
	// length i ending in state s. parent[i][s] is the predecessor state
	// that achieved it.
	cost := make([][4]int, n+1)
	parent := make([][4]int, n+1)

	for s := model.Base(0); s < 4; s++ {
		if s == start {
			cost[0][s] = 0
		} else {
			cost[0][s] = infCost
		}
	}

	for i := 1; i <= n; i++ {
		obs := observed[i-1]
		for curr := model.Base(0); curr < 4; curr++ {
			best := infCost
			bestParent := model.Base(0)
			for prev := model.Base(0); prev < 4; prev++ {
				if prev == curr {
					continue // the trellis forbids this transition
				}
				if cost[i-1][prev] == infCost {
					continue
				}
				total := cost[i-1][prev] + metric(curr, obs)
				if total < best {
					best = total
					bestParent = prev
				}
			}
			cost[i][curr] = best
			parent[i][curr] = int(bestParent)
		}
	}

	bestEnd := infCost
	endState := model.Base(0)
	for s := model.Base(0); s < 4; s++ {
		if cost[n][s] < bestEnd {
			bestEnd = cost[n][s]
			endState = s
		}
	}
	if bestEnd == infCost {
		return "", false
	}

	path := make([]byte, n)
	cur := endState
	for i := n; i >= 1; i-- {
		path[i-1] = cur.Char()
		cur = model.Base(parent[i][cur])
	}
	return string(path), true
}
