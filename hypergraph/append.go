package hypergraph

import (
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

var zeroFeatures = rule.NewSparseVector(nil)

// passthroughTrgData wraps a single tail's translation unchanged, so
// Nbest's word reconstruction passes through a synthetic wrapper edge
// transparently.
var passthroughTrgData = rule.CfgDataVector{
	rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0)}, symbol.WordId(-1), symbol.Sentence{symbol.WordId(-1)}),
}

// Append copies every node and edge of other into g, shifting every node
// and edge id by a fixed offset, and returns the id that other's root maps
// to in g (or -1 if other has no root). This is a graph homomorphism: for
// every node id x in other there is exactly one node in g isomorphic to x,
// with id x+nodeOffset.
func (g *HyperGraph) Append(other *HyperGraph) NodeId {
	nodeOffset := NodeId(len(g.nodes))
	edgeOffset := EdgeId(len(g.edges))

	for _, n := range other.nodes {
		cp := HyperNode{
			Id:          n.Id + nodeOffset,
			Span:        n.Span,
			Sym:         n.Sym,
			viterbiEdge: -1,
		}
		cp.Edges = make([]EdgeId, len(n.Edges))
		for i, e := range n.Edges {
			cp.Edges[i] = e + edgeOffset
		}
		g.nodes = append(g.nodes, cp)
	}
	for _, e := range other.edges {
		cp := HyperEdge{
			Id:       e.Id + edgeOffset,
			Head:     e.Head + nodeOffset,
			Rule:     e.Rule,
			Features: e.Features,
			Score:    e.Score,
			TrgData:  e.TrgData,
		}
		cp.Tails = make([]NodeId, len(e.Tails))
		for i, t := range e.Tails {
			cp.Tails[i] = t + nodeOffset
		}
		g.edges = append(g.edges, cp)
	}
	if other.root < 0 {
		return -1
	}
	return other.root + nodeOffset
}

// AppendUnderRoot appends other's structure into g and, if g already has a
// root, attaches the embedded copy as an alternative derivation of that
// root by adding a synthetic zero-feature edge from g's root to the
// embedded root (a forest-merge used by tuning to accumulate several
// sentences' hypotheses into one combined forest for hull construction).
// If g has no root yet, the embedded root becomes g's root outright.
func (g *HyperGraph) AppendUnderRoot(other *HyperGraph) {
	embeddedRoot := g.Append(other)
	if embeddedRoot < 0 {
		return
	}
	if g.root < 0 {
		g.root = embeddedRoot
		return
	}
	g.AddEdge(g.root, []NodeId{embeddedRoot}, nil, zeroFeatures, passthroughTrgData)
	g.ResetViterbi()
}
