package compose

import (
	"testing"

	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/lm"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLM charges a fixed cost per word and flags one chosen word as
// OOV, letting tests assert on both the lmN feature and the unkN count
// without needing a real n-gram model.
type countingLM struct {
	costPerWord float64
	oovWord     symbol.WordId
	finalBonus  float64
}

func (m countingLM) BeginState() lm.ChartState { return "" }
func (m countingLM) Score(state lm.ChartState, word symbol.WordId) (float64, lm.ChartState, bool) {
	return m.costPerWord, state, word == m.oovWord
}
func (m countingLM) FinalScore(lm.ChartState) float64 { return m.finalBonus }

func leafRule(trg symbol.WordId) *rule.TranslationRule {
	return &rule.TranslationRule{
		TrgData: rule.CfgDataVector{rule.NewCfgData(symbol.Sentence{trg}, -1, nil)},
	}
}

func TestComposeScoresLeafEdgeWords(t *testing.T) {
	dict := symbol.New()
	a := dict.MustWID("A")

	g := hypergraph.New()
	leaf := g.AddNode(hypergraph.Span{Begin: 0, End: 1}, a)
	g.SetRoot(leaf)
	eid := g.AddEdge(leaf, nil, nil, rule.NewSparseVector(nil), rule.CfgDataVector{rule.NewCfgData(symbol.Sentence{a}, -1, nil)})
	g.Edge(eid).Score = 0

	out := Compose(g, countingLM{costPerWord: -1, oovWord: -1, finalBonus: -2}, 0)
	require.False(t, out.Empty())

	lmFeature, unkFeature, finalFeature := Names(0)
	outEdge := out.Edge(0)
	var gotLM, gotFinal float64
	outEdge.Features.Each(func(fid rule.FeatureId, v float64) {
		if fid == lmFeature {
			gotLM = v
		}
		if fid == finalFeature {
			gotFinal = v
		}
	})
	assert.Equal(t, -1.0, gotLM)
	assert.Equal(t, -2.0, gotFinal)
	_ = unkFeature
}

// TestComposeRootEdgeCarriesOnlyItsOwnIncrementalContribution checks that
// the glue edge over two leaves (which introduces no new terminal words
// of its own) is attached a zero LM feature and a zero OOV count: its
// full substituted yield "A B" costs -2 and has one OOV word, but both
// leaves already account for that in full, so the edge's own share,
// after subtracting its tails' totals, is 0 — not the tails' combined
// total restated on top of them.
func TestComposeRootEdgeCarriesOnlyItsOwnIncrementalContribution(t *testing.T) {
	dict := symbol.New()
	a, b := dict.MustWID("A"), dict.MustWID("B")

	g := hypergraph.New()
	leftLeaf := g.AddNode(hypergraph.Span{Begin: 0, End: 1}, a)
	rightLeaf := g.AddNode(hypergraph.Span{Begin: 1, End: 2}, b)
	root := g.AddNode(hypergraph.Span{Begin: 0, End: 2}, symbol.WordId(-1))
	g.SetRoot(root)

	leftEdge := g.AddEdge(leftLeaf, nil, nil, rule.NewSparseVector(nil), leafRule(a).TrgData)
	g.Edge(leftEdge).Score = 0
	rightEdge := g.AddEdge(rightLeaf, nil, nil, rule.NewSparseVector(nil), leafRule(b).TrgData)
	g.Edge(rightEdge).Score = 0

	glueTrg := rule.CfgDataVector{rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0), symbol.NonTerminal(1)}, -1, nil)}
	rootEdge := g.AddEdge(root, []hypergraph.NodeId{leftLeaf, rightLeaf}, nil, rule.NewSparseVector(nil), glueTrg)
	g.Edge(rootEdge).Score = 0

	out := Compose(g, countingLM{costPerWord: -1, oovWord: b, finalBonus: 0}, 0)
	require.False(t, out.Empty())

	lmFeature, unkFeature, _ := Names(0)
	rootOutEdge := out.Edge(rootEdge)
	var gotLM, gotUnk float64
	rootOutEdge.Features.Each(func(fid rule.FeatureId, v float64) {
		if fid == lmFeature {
			gotLM = v
		}
		if fid == unkFeature {
			gotUnk = v
		}
	})
	assert.Equal(t, 0.0, gotLM)
	assert.Equal(t, 0.0, gotUnk)

	out.ScoreEdges(rule.SparseMap{lmFeature: 1})
	assert.InDelta(t, -2.0, out.CalcViterbi(out.Root()), 1e-9)
}

func TestComposeOnEmptyGraphReturnsEmpty(t *testing.T) {
	out := Compose(hypergraph.New(), countingLM{}, 0)
	assert.True(t, out.Empty())
}
