package hypergraph

import "github.com/ieee0824/travatar-go/internal/mathutil"

// CalcViterbi computes the inside Viterbi score of node (and, recursively,
// every node reachable through its edges' tails), memoising each node's
// result so repeated calls across overlapping derivations cost O(1) after
// the first. A node with no incoming edges (a terminal leaf) has Viterbi
// score 0 and no Viterbi edge.
//
// Because the hypergraph is acyclic by span construction, ordinary
// recursion serves as the post-order topological walk; there is no need
// for an explicit stack-based sort.
func (g *HyperGraph) CalcViterbi(id NodeId) float64 {
	n := &g.nodes[id]
	if n.viterbiKnown {
		return n.viterbiScore
	}
	// viterbiKnown is only set after this node's own score is resolved
	// below (not before recursing into tails): the graph is acyclic by
	// span construction, so a node is never on its own call stack and
	// there is no cycle for an early mark to guard against.
	if len(n.Edges) == 0 {
		n.viterbiScore = 0
		n.viterbiEdge = -1
		n.viterbiKnown = true
		return 0
	}

	best := mathutil.LogZero
	bestEdge := EdgeId(-1)
	// Edge ids ascend in append order; iterating n.Edges in that order and
	// using strict > for the update gives the required ascending-id tie-break.
	for _, eid := range n.Edges {
		e := &g.edges[eid]
		score := e.Score
		for _, t := range e.Tails {
			score += g.CalcViterbi(t)
		}
		if score > best {
			best = score
			bestEdge = eid
		}
	}
	n.viterbiScore = best
	n.viterbiEdge = bestEdge
	n.viterbiKnown = true
	return best
}
