package rule

import (
	"strings"
	"testing"

	"github.com/ieee0824/travatar-go/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wids(vals ...int32) []symbol.WordId {
	out := make([]symbol.WordId, len(vals))
	for i, v := range vals {
		out[i] = symbol.WordId(v)
	}
	return out
}

func TestSparseVectorDot(t *testing.T) {
	v := NewSparseVector(SparseMap{"f1": 2.0, "f2": 3.0})
	weights := SparseMap{"f1": 1.5, "f3": 100}
	assert.InDelta(t, 3.0, v.Dot(weights), 1e-9)
}

func TestSparseVectorImmutable(t *testing.T) {
	m := SparseMap{"f1": 1.0}
	v := NewSparseVector(m)
	m["f1"] = 99.0
	assert.InDelta(t, 1.0, v.Get("f1"), 1e-9)
}

func TestHieroHeadLabelsKeyEquality(t *testing.T) {
	a := NewHieroHeadLabels(wids(1, 2, 3))
	b := NewHieroHeadLabels(wids(1, 2, 3))
	c := NewHieroHeadLabels(wids(1, 2, 4))
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestLoadWeights(t *testing.T) {
	r := strings.NewReader("lm 10.0\nwp -1.0\n# comment\n\n")
	w, err := LoadWeights(r)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, w["lm"], 1e-9)
	assert.InDelta(t, -1.0, w["wp"], 1e-9)
	assert.InDelta(t, 0.0, w["unknown"], 1e-9)
}

func TestLoadWeightsMalformed(t *testing.T) {
	_, err := LoadWeights(strings.NewReader("onlyonefield\n"))
	assert.Error(t, err)
}

func TestCfgDataAppendChildAndEqual(t *testing.T) {
	parent := NewCfgData(symbol.Sentence{symbol.WordId(10)}, symbol.WordId(1), nil)
	child := NewCfgData(symbol.Sentence{symbol.WordId(20)}, symbol.WordId(2), nil)
	parent.AppendChild(child)

	assert.Equal(t, symbol.Sentence{symbol.WordId(10), symbol.WordId(20)}, parent.Words)
	assert.Equal(t, symbol.Sentence{symbol.WordId(2)}, parent.Syms)

	other := NewCfgData(symbol.Sentence{symbol.WordId(10), symbol.WordId(20)}, symbol.WordId(1), symbol.Sentence{symbol.WordId(2)})
	assert.True(t, parent.Equal(other))
}

func TestCfgDataNontermPositions(t *testing.T) {
	nt := symbol.NonTerminal(0)
	data := NewCfgData(symbol.Sentence{symbol.WordId(5), nt, symbol.WordId(6)}, symbol.WordId(1), symbol.Sentence{symbol.WordId(9)})
	assert.Equal(t, []int{1}, data.NontermPositions())
}

func TestNewUnknownRule(t *testing.T) {
	r := NewUnknownRule(symbol.WordId(42), symbol.WordId(1), 1, "unk")
	require.Equal(t, 0, r.NumSlots())
	assert.Equal(t, symbol.Sentence{symbol.WordId(42)}, r.SrcPattern.Words)
	require.Len(t, r.TrgData, 1)
	assert.Equal(t, symbol.Sentence{symbol.WordId(42)}, r.TrgData[0].Words)
	assert.InDelta(t, 1.0, r.Features.Get("unk"), 1e-9)
}
