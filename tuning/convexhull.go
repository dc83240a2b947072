package tuning

import (
	"math"
	"sort"

	"github.com/ieee0824/travatar-go/eval"
	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

// epsilon nudges each reported interval boundary strictly inside its true
// range, the same role the original's use of DBL_MIN plays: it keeps
// adjacent scored spans from sharing a boundary point while the interval
// endpoints otherwise line up exactly with the hull's true breakpoints.
const epsilon = 1e-9

// ScoredSpan is one piece of a ConvexHull: the step-size interval
// [XMin, XMax) over which a single derivation is optimal, and that
// derivation's evaluation against the reference.
type ScoredSpan struct {
	XMin, XMax float64
	Stats      *eval.Stats
}

// ConvexHull is the ordered (by XMin) list of ScoredSpans covering every
// step size, produced by a line search along one gradient direction.
type ConvexHull []ScoredSpan

func posZero(x float64) float64 {
	if x == 0 {
		return 0
	}
	return x
}

func reconstructSentence(g *hypergraph.HyperGraph, l line) symbol.Sentence {
	e := g.Edge(l.edge)
	tailWords := make([]symbol.Sentence, len(l.tails))
	for i, t := range l.tails {
		tailWords[i] = reconstructSentence(g, t)
	}
	return substituteTrgData(e.TrgData, tailWords)
}

func substituteTrgData(trg rule.CfgDataVector, tailWords []symbol.Sentence) symbol.Sentence {
	if len(trg) == 0 {
		return nil
	}
	out := make(symbol.Sentence, 0, len(trg[0].Words))
	for _, w := range trg[0].Words {
		if symbol.IsNonTerminal(w) {
			out = append(out, tailWords[symbol.SlotIndex(w)]...)
			continue
		}
		out = append(out, w)
	}
	return out
}

// buildConvexHull walks the root hull's lines in ascending-slope (x) order
// and, for each, reconstructs its derivation's sentence and scores it
// against ref, projecting the line onto the x-range where it is optimal.
// A segment whose left boundary lands exactly on 0 (the current weights
// sit precisely on a breakpoint) gets a zero-width marker interval
// inserted at 0 carrying currStats, so a caller reading the hull at t=0
// always sees the actual current-weights evaluation rather than an
// arbitrary neighboring derivation's.
func buildConvexHull(g *hypergraph.HyperGraph, hull Hull, ref symbol.Sentence, measure *eval.Measure, currStats *eval.Stats) ConvexHull {
	sorted := make([]line, len(hull.lines))
	copy(sorted, hull.lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].slope < sorted[j].slope })

	if len(sorted) == 0 {
		return ConvexHull{{XMin: math.Inf(-1), XMax: math.Inf(1), Stats: currStats}}
	}

	ret := make(ConvexHull, 0, len(sorted)+1)
	for i, l := range sorted {
		left := math.Inf(-1)
		if i > 0 {
			left = posZero(intersectX(sorted[i-1], l))
		}
		right := math.Inf(1)
		if i < len(sorted)-1 {
			right = posZero(intersectX(l, sorted[i+1]))
		}

		if left == 0 {
			ret = append(ret, ScoredSpan{XMin: -epsilon, XMax: epsilon, Stats: currStats})
		}

		sent := reconstructSentence(g, l)
		stats := measure.CalculateStats(ref, sent, eval.NoCache, eval.NoCache)
		ret = append(ret, ScoredSpan{XMin: left + epsilon, XMax: right - epsilon, Stats: stats})
	}
	return ret
}
