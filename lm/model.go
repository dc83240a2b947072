// Package lm declares the black-box contract every concrete language
// model backend implements. The core decoder and composer only ever see
// this interface: the surface LM file format, and how a concrete backend
// turns bytes on disk into scores, are external collaborators.
package lm

import "github.com/ieee0824/travatar-go/symbol"

// ChartState is an opaque per-LM context. Concrete backends define its
// contents (typically the trailing/leading word-id context plus whatever
// backoff bookkeeping the model needs); the chart decoder and composer
// only hand it back to the same model's Score/FinalScore and never inspect
// or compare it (chart recombination keys on the realized word sequence).
type ChartState string

// Model is the capability set every LM concrete type is dispatched
// through: score_rule(words, state) -> (prob, new_state, oov) and
// final_score(state), per spec.md's polymorphic-LM design note.
type Model interface {
	// Score scores appending word onto the context state, returning the
	// new state and whether word was out-of-vocabulary for this model.
	Score(state ChartState, word symbol.WordId) (logProb float64, next ChartState, oov bool)

	// FinalScore returns the additional log-probability contributed by
	// ending the sentence in state (i.e. scoring the end-of-sentence
	// symbol), used once per sentence when attaching the root edge.
	FinalScore(state ChartState) float64

	// BeginState returns the initial ChartState for a fresh sentence,
	// conventionally already conditioned on a start-of-sentence symbol.
	BeginState() ChartState
}
