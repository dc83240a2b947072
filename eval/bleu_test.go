package eval

import (
	"testing"

	"github.com/ieee0824/travatar-go/symbol"
	"github.com/stretchr/testify/assert"
)

func TestBleuSelfScoreIsExactlyOne(t *testing.T) {
	dict := symbol.New()
	the, cat, sat := dict.MustWID("the"), dict.MustWID("cat"), dict.MustWID("sat")
	ref := symbol.Sentence{the, cat, sat}

	m := NewMeasure()
	stats := m.CalculateStats(ref, ref, NoCache, NoCache)
	assert.InDelta(t, 1.0, stats.ConvertToScore(), 1e-12)
}

func TestBleuPenalizesShorterSystemOutput(t *testing.T) {
	dict := symbol.New()
	the, cat, sat := dict.MustWID("the"), dict.MustWID("cat"), dict.MustWID("sat")
	ref := symbol.Sentence{the, cat, sat}
	sys := symbol.Sentence{the, cat}

	m := NewMeasure()
	stats := m.CalculateStats(ref, sys, NoCache, NoCache)
	assert.Less(t, stats.ConvertToScore(), 1.0)
	assert.Greater(t, stats.ConvertToScore(), 0.0)
}

func TestBleuZeroOnCompleteMismatch(t *testing.T) {
	dict := symbol.New()
	the, cat, sat := dict.MustWID("the"), dict.MustWID("cat"), dict.MustWID("sat")
	a, dog, ran := dict.MustWID("a"), dict.MustWID("dog"), dict.MustWID("ran")
	ref := symbol.Sentence{the, cat, sat}
	sys := symbol.Sentence{a, dog, ran}

	m := NewMeasure()
	stats := m.CalculateStats(ref, sys, NoCache, NoCache)
	assert.Equal(t, 0.0, stats.ConvertToScore())
}

func TestBleuPlusAggregatesCorpusStats(t *testing.T) {
	dict := symbol.New()
	the, cat := dict.MustWID("the"), dict.MustWID("cat")
	m := NewMeasure()

	s1 := m.CalculateStats(symbol.Sentence{the, cat}, symbol.Sentence{the, cat}, NoCache, NoCache)
	s2 := m.CalculateStats(symbol.Sentence{the, cat}, symbol.Sentence{the, cat}, NoCache, NoCache)
	corpus := s1.Plus(s2)

	assert.Equal(t, 4, corpus.RefLen)
	assert.Equal(t, 4, corpus.SysLen)
	assert.InDelta(t, 1.0, corpus.ConvertToScore(), 1e-12)
}

func TestBleuCacheReturnsConsistentNgrams(t *testing.T) {
	dict := symbol.New()
	the, cat := dict.MustWID("the"), dict.MustWID("cat")
	ref := symbol.Sentence{the, cat}
	m := NewMeasure()

	s1 := m.CalculateStats(ref, ref, 1, NoCache)
	s2 := m.CalculateStats(ref, ref, 1, NoCache)
	assert.Equal(t, s1.Matches, s2.Matches)
	assert.Len(t, m.cache, 1)
}
