package tuning

import (
	"math"

	"github.com/ieee0824/travatar-go/eval"
	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

// Example is one tuning sentence's accumulated search space: a forest
// merging every hypothesis decoded for it (possibly across several MERT
// iterations, via AddHypothesis) plus its reference translation and the
// evaluation measure scoring candidates against it.
type Example struct {
	Forest  *hypergraph.HyperGraph
	Ref     symbol.Sentence
	Measure *eval.Measure

	active      map[rule.FeatureId]bool
	oracleScore float64
}

// NewExample returns an Example with no hypotheses yet and an oracle
// score defaulted to 1, matching the original's fallback value used
// before CalculateOracle has run (or if it fails).
func NewExample(ref symbol.Sentence, measure *eval.Measure) *Example {
	return &Example{Ref: ref, Measure: measure, oracleScore: 1}
}

// AddHypothesis merges hg's derivations into ex.Forest under a shared
// root, so hypotheses decoded across several MERT iterations accumulate
// into one search space rather than replacing each other.
func (ex *Example) AddHypothesis(hg *hypergraph.HyperGraph) {
	if ex.Forest == nil {
		ex.Forest = hypergraph.New()
	}
	ex.Forest.AppendUnderRoot(hg)
}

// FindActiveFeatures recomputes the set of feature ids appearing anywhere
// in ex.Forest, memoised so CalculatePotentialGain and
// CalculateConvexHull only recompute it once per accumulated forest.
func (ex *Example) FindActiveFeatures() {
	ex.active = make(map[rule.FeatureId]bool)
	for i := 0; i < ex.Forest.NumEdges(); i++ {
		ex.Forest.Edge(hypergraph.EdgeId(i)).Features.Each(func(id rule.FeatureId, _ float64) {
			ex.active[id] = true
		})
	}
}

// CalculateOracle finds the best-scoring reachable candidate against Ref
// and records its score, for use as CalculatePotentialGain's upper bound.
func (ex *Example) CalculateOracle(dict *symbol.Dictionary) {
	oracleSent := ex.Measure.CalculateOracle(ex.Forest, ex.Ref, dict)
	ex.oracleScore = ex.Measure.CalculateStats(ex.Ref, oracleSent, eval.NoCache, eval.NoCache).ConvertToScore()
}

// CountWeights merges every feature id active in this example into
// weights, initializing any not already present to 0. A tuning driver
// calls this once per example before a MERT sweep to discover the full
// set of feature directions worth searching, without needing to inspect
// Example's internal active-feature bookkeeping directly.
func (ex *Example) CountWeights(weights rule.SparseMap) {
	if len(ex.active) == 0 {
		ex.FindActiveFeatures()
	}
	for id := range ex.active {
		if _, ok := weights[id]; !ok {
			weights[id] = 0
		}
	}
}

// CalculatePotentialGain scores the current 1-best under weights and
// returns, for every active feature, the gap between the oracle score and
// that current score — MERT's gradient signal for how much room for
// improvement remains on this example. The oracle bound is tightened
// (never lowered) if the current hypothesis turns out to score higher
// than what CalculateOracle found, mirroring the original's max() guard
// against an oracle search that under-performs the true 1-best.
func (ex *Example) CalculatePotentialGain(weights rule.SparseMap) rule.SparseMap {
	ex.Forest.ScoreEdges(weights)
	var currScore float64
	if nbest := ex.Forest.Nbest(1); len(nbest) > 0 {
		currScore = ex.Measure.CalculateStats(ex.Ref, nbest[0].Words, eval.NoCache, eval.NoCache).ConvertToScore()
	}
	if currScore > ex.oracleScore {
		ex.oracleScore = currScore
	}
	gain := ex.oracleScore - currScore

	if len(ex.active) == 0 {
		ex.FindActiveFeatures()
	}
	ret := make(rule.SparseMap, len(ex.active))
	for id := range ex.active {
		ret[id] = gain
	}
	return ret
}

// CalculateConvexHull computes the line-search hull for this example
// along gradient from weights. If gradient touches none of this
// example's active features, the current hypothesis' score is constant
// over every step size, so the hull is a single interval spanning all t
// without the cost of walking the forest.
func (ex *Example) CalculateConvexHull(weights, gradient rule.SparseMap) ConvexHull {
	active := len(ex.active) == 0
	if !active {
		for id := range gradient {
			if ex.active[id] {
				active = true
				break
			}
		}
	}

	ex.Forest.ScoreEdges(weights)
	var currSent symbol.Sentence
	if nbest := ex.Forest.Nbest(1); len(nbest) > 0 {
		currSent = nbest[0].Words
	}
	currStats := ex.Measure.CalculateStats(ex.Ref, currSent, eval.NoCache, eval.NoCache)

	if !active {
		return ConvexHull{{XMin: math.Inf(-1), XMax: math.Inf(1), Stats: currStats}}
	}

	hull := CalculateHull(ex.Forest, weights, gradient)
	return buildConvexHull(ex.Forest, hull, ex.Ref, ex.Measure, currStats)
}
