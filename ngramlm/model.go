// Package ngramlm is a concrete lm.Model backend: a backoff n-gram model
// held as one map per order, adapted from the teacher's fixed
// unigram/bigram/trigram NGramModel into an arbitrary-order structure so
// it can also serve as the oracle LM (orders up to 5).
//
// Word ids crossing the lm.Model interface come from the shared,
// process-wide symbol.Dictionary; ngramlm keeps its own string-keyed
// vocabulary internally, since an LM's vocabulary need not equal the
// translation dictionary's (a word absent from the LM is simply OOV).
package ngramlm

import "github.com/ieee0824/travatar-go/internal/mathutil"

type entry struct {
	logProb    float64
	logBackoff float64
}

// Model is a backoff n-gram model over strings, addressed through the
// symbol.Dictionary boundary by the Score/FinalScore/BeginState methods
// in lm.go.
type Model struct {
	order int
	// grams[k] holds (k+1)-grams keyed by their space-joined words, for
	// k in [0, order). grams[0] is unigrams.
	grams []map[string]entry
}

// NewModel returns an empty Model with room for orders up to order.
func NewModel(order int) *Model {
	if order < 1 {
		order = 1
	}
	grams := make([]map[string]entry, order)
	for i := range grams {
		grams[i] = make(map[string]entry)
	}
	return &Model{order: order, grams: grams}
}

// Order returns the model's maximum n-gram order.
func (m *Model) Order() int { return m.order }

// set installs a single n-gram's probability and backoff weight, growing
// the model's order if necessary. logProb and logBackoff are natural-log
// scale.
func (m *Model) set(words []string, logProb, logBackoff float64) {
	k := len(words) - 1
	if k >= len(m.grams) {
		grown := make([]map[string]entry, k+1)
		copy(grown, m.grams)
		for i := len(m.grams); i <= k; i++ {
			grown[i] = make(map[string]entry)
		}
		m.grams = grown
		m.order = k + 1
	}
	m.grams[k][joinWords(words)] = entry{logProb: logProb, logBackoff: logBackoff}
}

func joinWords(words []string) string {
	out := words[0]
	for _, w := range words[1:] {
		out += " " + w
	}
	return out
}

// scoreFrom returns the log probability of word following history,
// trimming history to the model's order and backing off (dropping the
// oldest context word, adding that context's backoff weight) until an
// n-gram is found or the unigram table is exhausted. The bool result
// reports whether word was never observed at any order (OOV).
func (m *Model) scoreFrom(history []string, word string) (float64, bool) {
	if len(history) > m.order-1 {
		history = history[len(history)-(m.order-1):]
	}
	key := joinWords(append(append([]string{}, history...), word))
	if len(history) < len(m.grams) {
		if e, ok := m.grams[len(history)][key]; ok {
			return e.logProb, false
		}
	}
	if len(history) == 0 {
		if e, ok := m.grams[0]["<unk>"]; ok {
			return e.logProb, true
		}
		return mathutil.LogZero, true
	}
	bow := 0.0
	if len(history)-1 < len(m.grams) {
		if e, ok := m.grams[len(history)-1][joinWords(history)]; ok {
			bow = e.logBackoff
		}
	}
	subLogProb, oov := m.scoreFrom(history[1:], word)
	return bow + subLogProb, oov
}
