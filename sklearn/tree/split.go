package tree

import (
	"math"
	"math/rand"
	"slices"
)

// impurityFunc computes node impurity from class counts.
type impurityFunc func(counts []int, n int) float64

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func entropy(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

func impurityFor(criterion string) impurityFunc {
	if criterion == "entropy" {
		return entropy
	}
	return gini
}

// split is the best candidate found at a node.
type split struct {
	feature   int
	threshold float64
	impurity  float64 // weighted impurity of the two children
}

// splitter searches thresholds for one fit.
type splitter struct {
	X        [][]float64
	y        []int
	nClasses int
	mode     TrainingMode
	steps    int
	impurity impurityFunc
	rng      *rand.Rand

	// scratch buffers reused across candidates
	left, right []int
	values      []float64
}

// threshold returns the i-th evenly spaced interior threshold of [lo, hi].
func (s *splitter) threshold(i int, lo, hi float64) float64 {
	return lo + (hi-lo)*float64(i+1)/(float64(s.steps)+1)
}

// evaluate returns the weighted child impurity of splitting samples on
// x[f] < t. ok is false when one side is empty.
func (s *splitter) evaluate(samples []int, f int, t float64) (w float64, ok bool) {
	clear(s.left)
	clear(s.right)
	n, nLeft := len(samples), 0
	for _, i := range samples {
		if s.X[i][f] < t {
			s.left[s.y[i]]++
			nLeft++
		} else {
			s.right[s.y[i]]++
		}
	}
	nRight := n - nLeft
	if nLeft == 0 || nRight == 0 {
		return 0, false
	}
	return (float64(nLeft)*s.impurity(s.left, nLeft) + float64(nRight)*s.impurity(s.right, nRight)) / float64(n), true
}

// iterativeCandidates calls fn with the first evenly spaced threshold that
// falls in each gap between consecutive distinct values, in increasing
// order. Every other threshold in the same gap yields the same partition,
// so the work is bounded by the number of samples, not by steps.
func (s *splitter) iterativeCandidates(values []float64, fn func(t float64)) {
	lo, hi := values[0], values[len(values)-1]
	for k := 0; k+1 < len(values); k++ {
		// smallest i with threshold(i) > values[k]
		i := s.steps
		if est := math.Floor((values[k] - lo) / (hi - lo) * (float64(s.steps) + 1)); est < float64(s.steps) {
			i = max(int(est), 0)
		}
		for i > 0 && s.threshold(i-1, lo, hi) > values[k] {
			i--
		}
		for i < s.steps && s.threshold(i, lo, hi) <= values[k] {
			i++
		}
		if i == s.steps {
			return
		}
		if t := s.threshold(i, lo, hi); t <= values[k+1] {
			fn(t)
		}
	}
}

// best returns the split minimising weighted child impurity over the given
// features. ok is false when no threshold puts samples on both sides.
func (s *splitter) best(samples, features []int) (best split, ok bool) {
	best.impurity = math.Inf(1)

	try := func(f int, t float64) {
		if w, valid := s.evaluate(samples, f, t); valid && w < best.impurity {
			best = split{feature: f, threshold: t, impurity: w}
			ok = true
		}
	}

	for _, f := range features {
		s.values = s.values[:0]
		for _, i := range samples {
			s.values = append(s.values, s.X[i][f])
		}
		slices.Sort(s.values)
		s.values = slices.Compact(s.values)
		if len(s.values) < 2 {
			continue
		}
		lo, hi := s.values[0], s.values[len(s.values)-1]

		if s.mode == BestRandomSplit {
			for range s.steps {
				try(f, lo+s.rng.Float64()*(hi-lo))
			}
			continue
		}
		s.iterativeCandidates(s.values, func(t float64) { try(f, t) })
	}
	return best, ok
}
