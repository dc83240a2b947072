package hypergraph

import (
	"testing"

	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featVec(id rule.FeatureId, v float64) rule.SparseVector {
	return rule.NewSparseVector(rule.SparseMap{id: v})
}

// TestNbestOrdering is the spec's concrete scenario 2: a root with two
// edges (scores 1.0 and 2.0, no tails); nbest(2) must return [2.0, 1.0].
func TestNbestOrdering(t *testing.T) {
	g := New()
	root := g.AddNode(Span{0, 1}, symbol.WordId(1))
	g.SetRoot(root)
	g.AddEdge(root, nil, nil, featVec("f", 1.0), nil)
	g.AddEdge(root, nil, nil, featVec("f", 2.0), nil)
	g.ScoreEdges(rule.SparseMap{"f": 1.0})

	best := g.CalcViterbi(root)
	assert.InDelta(t, 2.0, best, 1e-9)

	nb := g.Nbest(2)
	require.Len(t, nb, 2)
	assert.InDelta(t, 2.0, nb[0].Score, 1e-9)
	assert.InDelta(t, 1.0, nb[1].Score, 1e-9)
}

func TestScoreEdgesInvalidatesViterbi(t *testing.T) {
	g := New()
	root := g.AddNode(Span{0, 1}, symbol.WordId(1))
	g.SetRoot(root)
	g.AddEdge(root, nil, nil, featVec("f", 1.0), nil)
	g.ScoreEdges(rule.SparseMap{"f": 1.0})
	assert.InDelta(t, 1.0, g.CalcViterbi(root), 1e-9)

	g.ScoreEdges(rule.SparseMap{"f": 5.0})
	assert.InDelta(t, 5.0, g.CalcViterbi(root), 1e-9)
}

func TestCalcViterbiWithTails(t *testing.T) {
	g := New()
	a := g.AddNode(Span{0, 1}, symbol.NonTerminal(0))
	b := g.AddNode(Span{1, 2}, symbol.NonTerminal(0))
	g.AddEdge(a, nil, nil, featVec("f", 3.0), nil)
	g.AddEdge(b, nil, nil, featVec("f", 4.0), nil)
	root := g.AddNode(Span{0, 2}, symbol.WordId(1))
	g.SetRoot(root)
	g.AddEdge(root, []NodeId{a, b}, nil, featVec("f", 1.0), nil)
	g.ScoreEdges(rule.SparseMap{"f": 1.0})

	assert.InDelta(t, 8.0, g.CalcViterbi(root), 1e-9)
}

func TestAppendIsHomomorphism(t *testing.T) {
	src := New()
	n0 := src.AddNode(Span{0, 1}, symbol.WordId(1))
	src.SetRoot(n0)
	src.AddEdge(n0, nil, nil, featVec("f", 1.0), nil)

	dst := New()
	d0 := dst.AddNode(Span{0, 1}, symbol.WordId(2))
	dst.SetRoot(d0)

	shiftedRoot := dst.Append(src)
	require.Equal(t, NodeId(1), shiftedRoot)
	assert.Equal(t, 2, dst.NumNodes())
	assert.Equal(t, 1, dst.NumEdges())
	assert.Equal(t, src.nodes[0].Sym, dst.nodes[1].Sym)
}

func TestAppendUnderRootMergesAlternatives(t *testing.T) {
	g := New()
	root := g.AddNode(Span{0, 1}, symbol.WordId(1))
	g.SetRoot(root)
	g.AddEdge(root, nil, nil, featVec("f", 1.0), nil)

	other := New()
	oroot := other.AddNode(Span{0, 1}, symbol.WordId(1))
	other.SetRoot(oroot)
	other.AddEdge(oroot, nil, nil, featVec("f", 9.0), nil)

	g.AppendUnderRoot(other)
	g.ScoreEdges(rule.SparseMap{"f": 1.0})
	assert.InDelta(t, 9.0, g.CalcViterbi(g.Root()), 1e-9)
}

func TestEmptyGraphNbest(t *testing.T) {
	g := New()
	assert.True(t, g.Empty())
	assert.Nil(t, g.Nbest(5))
}
