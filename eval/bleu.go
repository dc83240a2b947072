// Package eval implements corpus and sentence-level BLEU, the evaluation
// measure tuning scores candidate translations against a reference with.
package eval

import (
	"math"

	"github.com/ieee0824/travatar-go/symbol"
)

// Scope labels whether Stats accumulated from several sentences are meant
// to be summed before scoring (Corpus) or scored independently (Sentence).
// No method of Measure or Stats reads it: which of the two happens depends
// only on whether the caller combines Stats with Plus before
// ConvertToScore.
type Scope int

const (
	Corpus Scope = iota
	Sentence
)

// NgramStats counts every n-gram (of every order up to a Measure's
// NgramOrder) occurring in a sentence, keyed by the packed WordId encoding
// ngramKey produces.
type NgramStats map[string]int

// Measure is a configured BLEU scorer: n-gram order, additive smoothing,
// and a cache of previously extracted sentences' n-gram counts keyed by a
// caller-supplied id (so a reference sentence scored against many
// candidates is only tokenized into n-grams once).
type Measure struct {
	NgramOrder int
	SmoothVal  float64
	Scope      Scope

	cache map[int]NgramStats
}

// NewMeasure returns a Measure configured the way the original defaults
// it: order-4 n-grams, no smoothing, corpus scope.
func NewMeasure() *Measure {
	return &Measure{NgramOrder: 4, Scope: Corpus, cache: make(map[int]NgramStats)}
}

// NoCache tells CalculateStats not to consult or populate the n-gram cache
// for a given sentence (the original's INT_MAX sentinel).
const NoCache = -1

func ngramKey(words symbol.Sentence) string {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		u := uint32(w)
		buf[i*4] = byte(u)
		buf[i*4+1] = byte(u >> 8)
		buf[i*4+2] = byte(u >> 16)
		buf[i*4+3] = byte(u >> 24)
	}
	return string(buf)
}

// ExtractNgrams counts every n-gram of order 1..NgramOrder in sent.
func (m *Measure) ExtractNgrams(sent symbol.Sentence) NgramStats {
	stats := make(NgramStats)
	for i := range sent {
		for n := 1; n <= m.NgramOrder && i+n <= len(sent); n++ {
			stats[ngramKey(sent[i:i+n])]++
		}
	}
	return stats
}

// ClearCache discards every cached sentence's n-gram counts.
func (m *Measure) ClearCache() { m.cache = make(map[int]NgramStats) }

func (m *Measure) cached(sent symbol.Sentence, cacheID int) NgramStats {
	if cacheID == NoCache {
		return m.ExtractNgrams(sent)
	}
	if s, ok := m.cache[cacheID]; ok {
		return s
	}
	s := m.ExtractNgrams(sent)
	m.cache[cacheID] = s
	return s
}

// Stats holds the minimal sufficient statistics for BLEU: per-order
// match/total n-gram counts plus reference/system lengths. Summing Stats
// from several sentence pairs via Plus before calling ConvertToScore
// yields corpus-level BLEU; calling ConvertToScore on each pair's own
// Stats yields sentence-level BLEU.
type Stats struct {
	Matches []int // index i = order i+1
	Totals  []int
	RefLen  int
	SysLen  int
	Order   int
	Smooth  float64
}

// CalculateStats scores sys against ref. refCacheID/sysCacheID select
// which (if either) sentence's n-gram counts should be read from or
// written to the cache; pass NoCache to skip caching for a sentence.
func (m *Measure) CalculateStats(ref, sys symbol.Sentence, refCacheID, sysCacheID int) *Stats {
	refNgrams := m.cached(ref, refCacheID)
	sysNgrams := m.cached(sys, sysCacheID)
	return m.calculateStatsFromNgrams(refNgrams, len(ref), sysNgrams, len(sys))
}

func (m *Measure) calculateStatsFromNgrams(refNgrams NgramStats, refLen int, sysNgrams NgramStats, sysLen int) *Stats {
	matches := make([]int, m.NgramOrder)
	totals := make([]int, m.NgramOrder)
	for key, sysCount := range sysNgrams {
		order := len(key)/4 - 1
		if order < 0 || order >= m.NgramOrder {
			continue
		}
		totals[order] += sysCount
		if refCount, ok := refNgrams[key]; ok {
			if refCount < sysCount {
				matches[order] += refCount
			} else {
				matches[order] += sysCount
			}
		}
	}
	return &Stats{
		Matches: matches,
		Totals:  totals,
		RefLen:  refLen,
		SysLen:  sysLen,
		Order:   m.NgramOrder,
		Smooth:  m.SmoothVal,
	}
}

// Plus returns the elementwise sum of two Stats, used to accumulate
// corpus-level statistics across a test set before scoring once.
func (s *Stats) Plus(o *Stats) *Stats {
	out := &Stats{
		Matches: make([]int, len(s.Matches)),
		Totals:  make([]int, len(s.Totals)),
		RefLen:  s.RefLen + o.RefLen,
		SysLen:  s.SysLen + o.SysLen,
		Order:   s.Order,
		Smooth:  s.Smooth,
	}
	for i := range out.Matches {
		out.Matches[i] = s.Matches[i] + o.Matches[i]
		out.Totals[i] = s.Totals[i] + o.Totals[i]
	}
	return out
}

// ConvertToScore computes BLEU = BP * exp(mean_n log((matches_n+smooth)/
// (totals_n+smooth))), BP = min(1, exp(1 - refLen/sysLen)). Orders with no
// system n-grams at all (sentence shorter than that order) are excluded
// from the mean rather than counted as a zero match, so a reference
// scored against itself scores exactly 1 regardless of how it compares to
// NgramOrder.
func (s *Stats) ConvertToScore() float64 {
	if s.SysLen == 0 {
		return 0
	}
	logSum := 0.0
	n := 0
	for i := 0; i < s.Order; i++ {
		if s.Totals[i] == 0 {
			continue
		}
		n++
		logSum += math.Log((float64(s.Matches[i]) + s.Smooth) / (float64(s.Totals[i]) + s.Smooth))
	}
	if n == 0 {
		return 0
	}
	bp := 1.0
	if e := math.Exp(1 - float64(s.RefLen)/float64(s.SysLen)); e < 1 {
		bp = e
	}
	return bp * math.Exp(logSum/float64(n))
}
