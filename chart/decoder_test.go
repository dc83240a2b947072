package chart

import (
	"testing"

	"github.com/ieee0824/travatar-go/lm"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/rulefsm"
	"github.com/ieee0824/travatar-go/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroLM is a black-box LM stub that never penalizes anything, isolating
// the decoder's chart/cube-pruning logic from language-model scoring.
type zeroLM struct{}

func (zeroLM) BeginState() lm.ChartState { return "" }
func (zeroLM) Score(state lm.ChartState, word symbol.WordId) (float64, lm.ChartState, bool) {
	return 0, state, false
}
func (zeroLM) FinalScore(lm.ChartState) float64 { return 0 }

// bigramLM is a hand-built bigram model keyed by the previous word's
// string: it scores a two-word sentence differently depending on order,
// so a buggy decoder that rescores every chart node's full yield and then
// sums those rescores up the tree (rather than attaching only each edge's
// incremental contribution) produces a detectably wrong total instead of
// one that merely happens to agree by symmetry.
type bigramLM struct {
	dict   *symbol.Dictionary
	bigram map[[2]string]float64
	final  map[string]float64
}

func (m bigramLM) BeginState() lm.ChartState { return "<s>" }

func (m bigramLM) Score(state lm.ChartState, word symbol.WordId) (float64, lm.ChartState, bool) {
	w := m.dict.WSym(word)
	return m.bigram[[2]string{string(state), w}], lm.ChartState(w), false
}

func (m bigramLM) FinalScore(state lm.ChartState) float64 {
	return m.final[string(state)]
}

func mkTermRule(src, trg symbol.WordId, head rule.HieroHeadLabels) *rule.TranslationRule {
	return &rule.TranslationRule{
		SrcPattern: rule.NewCfgData(symbol.Sentence{src}, head.Labels()[0], nil),
		TrgData:    rule.CfgDataVector{rule.NewCfgData(symbol.Sentence{trg}, head.Labels()[0], nil)},
		Features:   rule.NewSparseVector(nil),
		HeadLabels: head,
	}
}

// TestDecodeGlueTwoTerminals is the spec's concrete scenario 4: source
// "a b" glued via a binary rule into target "A B".
func TestDecodeGlueTwoTerminals(t *testing.T) {
	dict := symbol.New()
	a, b := dict.MustWID("a"), dict.MustWID("b")
	bigA, bigB := dict.MustWID("A"), dict.MustWID("B")

	labelX := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(100)})
	labelS := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(200)})

	fsm := rulefsm.New()
	fsm.Insert(mkTermRule(a, bigA, labelX))
	fsm.Insert(mkTermRule(b, bigB, labelX))

	glue := &rule.TranslationRule{
		SrcPattern:      rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0), symbol.NonTerminal(1)}, labelS.Labels()[0], nil),
		TrgData:         rule.CfgDataVector{rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0), symbol.NonTerminal(1)}, labelS.Labels()[0], nil)},
		Features:        rule.NewSparseVector(nil),
		HeadLabels:      labelS,
		ChildHeadLabels: []rule.HieroHeadLabels{labelX, labelX},
	}
	fsm.Insert(glue)

	d := New(fsm, []lm.Model{zeroLM{}}, rule.SparseMap{}, Config{PopLimit: -1, ChartLimit: -1, RootSymbol: labelS})
	g := d.Decode(symbol.Sentence{a, b})

	require.False(t, g.Empty())
	best := g.Nbest(1)
	require.Len(t, best, 1)
	assert.Equal(t, symbol.Sentence{bigA, bigB}, best[0].Words)
	assert.Equal(t, 0.0, g.CalcViterbi(g.Root()))
}

// TestDecodeNoRootSymbolYieldsEmptyGraph covers the "no translation"
// fallback when RootSymbol never appears over the full span.
func TestDecodeNoRootSymbolYieldsEmptyGraph(t *testing.T) {
	dict := symbol.New()
	a := dict.MustWID("a")
	bigA := dict.MustWID("A")
	labelX := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(1)})
	unreachable := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(2)})

	fsm := rulefsm.New()
	fsm.Insert(mkTermRule(a, bigA, labelX))

	d := New(fsm, []lm.Model{zeroLM{}}, rule.SparseMap{}, Config{PopLimit: -1, ChartLimit: -1, RootSymbol: unreachable})
	g := d.Decode(symbol.Sentence{a})
	assert.True(t, g.Empty())
}

// TestDecodeChartLimitBoundsRecombinedNodes is the spec's concrete
// scenario 5: two rules producing distinct translations for the same
// source word and head label; a chart_limit of 1 keeps only one.
func TestDecodeChartLimitBoundsRecombinedNodes(t *testing.T) {
	dict := symbol.New()
	a := dict.MustWID("a")
	a1 := dict.MustWID("A1")
	a2 := dict.MustWID("A2")
	labelX := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(1)})

	fsm := rulefsm.New()
	fsm.Insert(mkTermRule(a, a1, labelX))
	fsm.Insert(mkTermRule(a, a2, labelX))

	limited := New(fsm, []lm.Model{zeroLM{}}, rule.SparseMap{}, Config{PopLimit: -1, ChartLimit: 1, RootSymbol: labelX})
	gLimited := limited.Decode(symbol.Sentence{a})
	require.False(t, gLimited.Empty())
	assert.Len(t, gLimited.Node(gLimited.Root()).Edges, 1)

	unlimited := New(fsm, []lm.Model{zeroLM{}}, rule.SparseMap{}, Config{PopLimit: -1, ChartLimit: -1, RootSymbol: labelX})
	gUnlimited := unlimited.Decode(symbol.Sentence{a})
	require.False(t, gUnlimited.Empty())
	assert.Len(t, gUnlimited.Node(gUnlimited.Root()).Edges, 2)
}

// TestUnaryExpansionAppliesOverHeadLabel exercises the unary-rule bucket
// path in cubePrune: a rule that rewrites one non-terminal into another
// without consuming any source words.
func TestUnaryExpansionAppliesOverHeadLabel(t *testing.T) {
	dict := symbol.New()
	a := dict.MustWID("a")
	bigA := dict.MustWID("A")
	labelX := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(1)})
	labelY := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(2)})

	fsm := rulefsm.New()
	fsm.Insert(mkTermRule(a, bigA, labelX))

	unary := &rule.TranslationRule{
		SrcPattern:      rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0)}, labelY.Labels()[0], nil),
		TrgData:         rule.CfgDataVector{rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0)}, labelY.Labels()[0], nil)},
		Features:        rule.NewSparseVector(nil),
		HeadLabels:      labelY,
		ChildHeadLabels: []rule.HieroHeadLabels{labelX},
	}
	fsm.Insert(unary)

	d := New(fsm, []lm.Model{zeroLM{}}, rule.SparseMap{}, Config{PopLimit: -1, ChartLimit: -1, RootSymbol: labelY})
	g := d.Decode(symbol.Sentence{a})
	require.False(t, g.Empty())
	best := g.Nbest(1)
	require.Len(t, best, 1)
	assert.Equal(t, symbol.Sentence{bigA}, best[0].Words)
}

// TestDecodeRootScoreMatchesSentenceLMExactly runs the spec's glue
// scenario (scenario 4) under a real bigram LM instead of zeroLM: a
// two-level derivation (S -> X X, each X a terminal rule) whose root
// Viterbi score must equal the true sentence-level LM log-prob,
// P(A|<s>) + P(B|A) + P(</s>|B), not that sum plus an extra full rescore
// of "A B" contributed by the S node on top of its children's own scores.
func TestDecodeRootScoreMatchesSentenceLMExactly(t *testing.T) {
	dict := symbol.New()
	a, b := dict.MustWID("a"), dict.MustWID("b")
	bigA, bigB := dict.MustWID("A"), dict.MustWID("B")

	labelX := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(100)})
	labelS := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(200)})

	fsm := rulefsm.New()
	fsm.Insert(mkTermRule(a, bigA, labelX))
	fsm.Insert(mkTermRule(b, bigB, labelX))
	glue := &rule.TranslationRule{
		SrcPattern:      rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0), symbol.NonTerminal(1)}, labelS.Labels()[0], nil),
		TrgData:         rule.CfgDataVector{rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0), symbol.NonTerminal(1)}, labelS.Labels()[0], nil)},
		Features:        rule.NewSparseVector(nil),
		HeadLabels:      labelS,
		ChildHeadLabels: []rule.HieroHeadLabels{labelX, labelX},
	}
	fsm.Insert(glue)
	dict.Freeze()

	lmA := -1.0
	lmBGivenA := -2.0
	lmEndGivenB := -0.5
	m := bigramLM{
		dict: dict,
		bigram: map[[2]string]float64{
			{"<s>", "A"}: lmA,
			{"A", "B"}:   lmBGivenA,
		},
		final: map[string]float64{"B": lmEndGivenB},
	}

	d := New(fsm, []lm.Model{m}, rule.SparseMap{"lm0": 1, "lmfinal0": 1}, Config{PopLimit: -1, ChartLimit: -1, RootSymbol: labelS})
	g := d.Decode(symbol.Sentence{a, b})

	require.False(t, g.Empty())
	best := g.Nbest(1)
	require.Len(t, best, 1)
	assert.Equal(t, symbol.Sentence{bigA, bigB}, best[0].Words)

	want := lmA + lmBGivenA + lmEndGivenB
	assert.InDelta(t, want, g.CalcViterbi(g.Root()), 1e-9)
}
