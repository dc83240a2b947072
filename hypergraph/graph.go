package hypergraph

import (
	"fmt"

	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

// HyperGraph owns all nodes and edges for one sentence's decode. Node and
// edge ids are monotonically assigned and never reused within a graph.
type HyperGraph struct {
	nodes []HyperNode
	edges []HyperEdge
	root  NodeId // -1 if not yet set
}

// New returns an empty HyperGraph with no root.
func New() *HyperGraph {
	return &HyperGraph{root: -1}
}

// AddNode appends a new node and returns its id. The caller retains the
// returned id as the non-owning reference to use in edge Head/Tails.
func (g *HyperGraph) AddNode(span Span, sym symbol.WordId) NodeId {
	id := NodeId(len(g.nodes))
	g.nodes = append(g.nodes, HyperNode{Id: id, Span: span, Sym: sym, viterbiEdge: -1})
	return id
}

// AddEdge appends a new edge, registers it on its head node's incoming
// edge list, and returns its id.
func (g *HyperGraph) AddEdge(head NodeId, tails []NodeId, r *rule.TranslationRule, features rule.SparseVector, trgData rule.CfgDataVector) EdgeId {
	id := EdgeId(len(g.edges))
	tailsCopy := make([]NodeId, len(tails))
	copy(tailsCopy, tails)
	g.edges = append(g.edges, HyperEdge{
		Id:       id,
		Head:     head,
		Tails:    tailsCopy,
		Rule:     r,
		Features: features,
		TrgData:  trgData,
	})
	g.nodes[head].Edges = append(g.nodes[head].Edges, id)
	return id
}

// SetRoot designates which node is the sentence's root; Nbest and
// CalcViterbi operate relative to it unless given an explicit node.
func (g *HyperGraph) SetRoot(id NodeId) { g.root = id }

// Root returns the designated root id, or -1 if none was set (an empty
// hypergraph).
func (g *HyperGraph) Root() NodeId { return g.root }

// Empty reports whether the graph carries no root, the "no translation"
// outcome.
func (g *HyperGraph) Empty() bool { return g.root < 0 || len(g.nodes) == 0 }

// Node returns a pointer to the node with the given id.
func (g *HyperGraph) Node(id NodeId) *HyperNode { return &g.nodes[id] }

// Edge returns a pointer to the edge with the given id.
func (g *HyperGraph) Edge(id EdgeId) *HyperEdge { return &g.edges[id] }

// NumNodes returns the number of nodes currently owned by the graph.
func (g *HyperGraph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges currently owned by the graph.
func (g *HyperGraph) NumEdges() int { return len(g.edges) }

// ScoreEdges sets every edge's Score to weights·Features and marks all
// Viterbi scores stale.
func (g *HyperGraph) ScoreEdges(weights rule.SparseMap) {
	for i := range g.edges {
		g.edges[i].Score = g.edges[i].Features.Dot(weights)
	}
	g.ResetViterbi()
}

// ResetViterbi marks every node's memoised Viterbi score stale, forcing
// the next CalcViterbi to recompute it.
func (g *HyperGraph) ResetViterbi() {
	for i := range g.nodes {
		g.nodes[i].viterbiKnown = false
		g.nodes[i].viterbiEdge = -1
	}
}

// ErrBadNodeId reports a reference to a node id outside the graph.
type ErrBadNodeId struct{ Id NodeId }

func (e ErrBadNodeId) Error() string {
	return fmt.Sprintf("hypergraph: bad node id %d", e.Id)
}
