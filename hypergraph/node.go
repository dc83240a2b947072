// Package hypergraph implements the weighted hypergraph that holds partial
// and complete translations: nodes keyed by source span and label, edges
// carrying a rule's target pattern and feature vector, and the Viterbi /
// n-best algorithms that read a best (or k-best) derivation out of it.
//
// Per the arena re-architecture noted for this component, nodes and edges
// are owned by integer index inside a HyperGraph rather than linked by raw
// pointers: edges store Head and Tails node ids, and the graph is acyclic by
// construction since every edge's tails strictly nest inside its head span.
package hypergraph

import "github.com/ieee0824/travatar-go/symbol"

// NodeId indexes a HyperNode within its owning HyperGraph.
type NodeId int32

// Span is a half-open source interval [Begin, End).
type Span struct {
	Begin int
	End   int
}

// HyperNode is a chart cell occupant: a span, a non-terminal label, and the
// ordered set of edges that can produce it. The Viterbi score and edge
// are filled in by CalcViterbi and are stale (and must not be read) until
// this node's viterbiKnown flag is set; ResetViterbi clears it.
type HyperNode struct {
	Id    NodeId
	Span  Span
	Sym   symbol.WordId
	Edges []EdgeId

	viterbiScore float64
	viterbiEdge  EdgeId // -1 if none
	viterbiKnown bool
}

// ViterbiScore returns the memoised inside score, panicking if CalcViterbi
// has not been run on this node since the last ResetViterbi (callers in
// this package always calc before reading; this guards accidental misuse
// from new code).
func (n *HyperNode) ViterbiScore() float64 {
	if !n.viterbiKnown {
		panic("hypergraph: ViterbiScore read before CalcViterbi")
	}
	return n.viterbiScore
}
