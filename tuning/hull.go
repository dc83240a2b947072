// Package tuning implements MERT-style line-search tuning support: a
// per-sentence forest of accumulated hypotheses, the potential-gain
// feature bookkeeping MERT's gradient step needs, and the inside convex
// hull used to do an exact line search for the best step size along a
// given direction.
package tuning

import (
	"sort"

	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/rule"
)

// line is one derivation's score expressed as a function of the line
// search step size t: score(t) = slope*t + intercept. edge and tails
// carry enough of that derivation's structure to reconstruct its target
// sentence once a winning line is chosen from the root hull.
type line struct {
	slope, intercept float64
	edge             hypergraph.EdgeId
	tails            []line // chosen line for each of edge's tails, in order
}

// Hull is the upper envelope of a set of lines: for any t there is
// exactly one line in Hull whose score is maximal, and the lines are kept
// sorted by ascending slope (equivalently, by the x at which each becomes
// the maximum).
type Hull struct {
	lines []line
}

func intersectX(a, b line) float64 {
	return (b.intercept - a.intercept) / (a.slope - b.slope)
}

// envelope reduces an arbitrary set of lines to their upper envelope,
// discarding any line that is never strictly maximal over all t.
func envelope(lines []line) Hull {
	if len(lines) == 0 {
		return Hull{}
	}
	sorted := make([]line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].slope != sorted[j].slope {
			return sorted[i].slope < sorted[j].slope
		}
		return sorted[i].intercept > sorted[j].intercept
	})

	deduped := sorted[:0]
	for _, l := range sorted {
		if len(deduped) > 0 && deduped[len(deduped)-1].slope == l.slope {
			continue
		}
		deduped = append(deduped, l)
	}

	var stack []line
	for _, l := range deduped {
		for len(stack) >= 2 {
			lo, mid := stack[len(stack)-2], stack[len(stack)-1]
			if intersectX(lo, l) <= intersectX(lo, mid) {
				stack = stack[:len(stack)-1]
				continue
			}
			break
		}
		stack = append(stack, l)
	}
	return Hull{lines: stack}
}

// times computes the Minkowski sum of h and o (every pair of lines added
// together) and reduces the result to its upper envelope, preserving h's
// edge identity on every combined line and appending o's chosen line as
// one more resolved tail. This is the per-tail multiplication step of
// Hull(n) = Σ_e LineOf(e) * Π_tail Hull(tail): called once per tail, with
// h starting as LineOf(e) before any tail has been folded in.
func (h Hull) times(o Hull) Hull {
	if len(h.lines) == 0 {
		return o
	}
	if len(o.lines) == 0 {
		return h
	}
	combined := make([]line, 0, len(h.lines)*len(o.lines))
	for _, a := range h.lines {
		for _, b := range o.lines {
			tails := make([]line, len(a.tails), len(a.tails)+1)
			copy(tails, a.tails)
			tails = append(tails, b)
			combined = append(combined, line{
				slope:     a.slope + b.slope,
				intercept: a.intercept + b.intercept,
				edge:      a.edge,
				tails:     tails,
			})
		}
	}
	return envelope(combined)
}

// plus is the union of two hulls' lines, reduced to their upper envelope.
func (h Hull) plus(o Hull) Hull {
	combined := make([]line, 0, len(h.lines)+len(o.lines))
	combined = append(combined, h.lines...)
	combined = append(combined, o.lines...)
	return envelope(combined)
}

// CalculateHull computes the MERT inside hull of g along direction
// gradient from weights: for every node, the upper envelope, over all
// incoming edges and their tails' own hulls, of that subtree's score as a
// function of step size t. Results are memoised per node since the same
// tail can be shared by many derivations.
func CalculateHull(g *hypergraph.HyperGraph, weights, gradient rule.SparseMap) Hull {
	memo := make(map[hypergraph.NodeId]Hull, g.NumNodes())
	var recurse func(id hypergraph.NodeId) Hull
	recurse = func(id hypergraph.NodeId) Hull {
		if h, ok := memo[id]; ok {
			return h
		}
		n := g.Node(id)
		acc := Hull{}
		for _, eid := range n.Edges {
			e := g.Edge(eid)
			my := Hull{lines: []line{{
				slope:     e.Features.Dot(gradient),
				intercept: e.Features.Dot(weights),
				edge:      eid,
			}}}
			for _, t := range e.Tails {
				my = my.times(recurse(t))
			}
			acc = acc.plus(my)
		}
		memo[id] = acc
		return acc
	}
	return recurse(g.Root())
}
