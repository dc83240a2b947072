package rulefsm

import (
	"testing"

	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRule(words symbol.Sentence, childLabels []rule.HieroHeadLabels) *rule.TranslationRule {
	return &rule.TranslationRule{
		SrcPattern:      rule.NewCfgData(words, symbol.WordId(1), nil),
		ChildHeadLabels: childLabels,
	}
}

// TestTrieLookupAndPredictiveSearch is the spec's concrete scenario 3:
// patterns "the cat" and "the [X]"; predictive search on "the" is true;
// lookup on "the cat" hits the first rule; lookup on "the [X]" hits the
// second.
func TestTrieLookupAndPredictiveSearch(t *testing.T) {
	fsm := New()
	the := symbol.WordId(1)
	cat := symbol.WordId(2)
	xLabel := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(9)})

	r1 := mkRule(symbol.Sentence{the, cat}, nil)
	r2 := mkRule(symbol.Sentence{the, symbol.NonTerminal(0)}, []rule.HieroHeadLabels{xLabel})
	fsm.Insert(r1)
	fsm.Insert(r2)

	agentThe, ok := fsm.Root().Advance(the)
	require.True(t, ok)
	assert.True(t, agentThe.PredictiveSearch())

	agentCat, ok := agentThe.Advance(cat)
	require.True(t, ok)
	bucket, ok := agentCat.Lookup()
	require.True(t, ok)
	assert.Contains(t, bucket, r1)

	ntKey := fsm.intern(xLabel)
	agentX, ok := agentThe.Advance(ntKey)
	require.True(t, ok)
	bucket2, ok := agentX.Lookup()
	require.True(t, ok)
	assert.Contains(t, bucket2, r2)
}

func TestPredictiveSearchFalseOnEmptyTrie(t *testing.T) {
	fsm := New()
	assert.False(t, fsm.Root().PredictiveSearch())
}

func TestUnaryRulesFor(t *testing.T) {
	fsm := New()
	xLabel := rule.NewHieroHeadLabels([]symbol.WordId{symbol.WordId(9)})
	unary := mkRule(symbol.Sentence{symbol.NonTerminal(0)}, []rule.HieroHeadLabels{xLabel})
	fsm.Insert(unary)

	ids := fsm.UnaryRulesFor(xLabel)
	require.Len(t, ids, 1)
	assert.Contains(t, fsm.Bucket(ids[0]), unary)
}
