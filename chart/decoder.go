// Package chart implements the CFG+LM chart decoder: given a source
// sentence and a synchronous grammar indexed by a rulefsm.RuleFSM, it
// builds a hypergraph of every reachable translation via CKY+-style
// chart parsing with cube-pruned rule/child-rank search, one cell per
// source span (grounded on original_source's lookup-table-cfglm.cc).
//
// LM integration deliberately trades the original's incremental,
// partial-context ChartState algebra (which needs a state type able to
// represent unresolved left/right boundaries and compose two such states)
// for direct re-scoring of each chart node's full realized word sequence
// from lm.Model.BeginState() on every node built. Rescoring the full yield
// at every node would double-count the LM if each edge simply carried
// that rescore: a child's words are already included in its parent's
// yield, so the parent's own rescore already contains the child's LM
// contribution. Each edge instead carries only the incremental
// contribution — the node's full-yield rescore minus the sum of its
// children's own full-yield rescores (cached on statefulNode as
// lmFeatures) — which telescopes back to a single sentence-level LM score
// once totalled up the tree, exactly like the original's amortized
// algebra, just recomputed from scratch per node instead of composed in
// O(1). This is O(span length) per node instead of O(1) amortized, an
// acceptable cost outside a performance-critical production decoder and
// one that lets lm.Model stay a plain sequential Score/FinalScore
// contract (see lm/model.go) rather than needing KenLM-style split
// states.
package chart

import (
	"fmt"

	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/lm"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/rulefsm"
	"github.com/ieee0824/travatar-go/symbol"
)

// Config holds the decode-time tunables that in the original are
// constructor arguments/setters on LookupTableCFGLM.
type Config struct {
	// PopLimit bounds cube-pruning pops per chart cell; negative means
	// unlimited.
	PopLimit int
	// ChartLimit bounds the number of distinct recombined nodes kept per
	// chart cell; negative means unlimited.
	ChartLimit int
	// RootSymbol is the head label a span [0, N) must carry to be a valid
	// full-sentence translation.
	RootSymbol rule.HieroHeadLabels
}

// Decoder is a configured CFG+LM chart decoder over a single grammar
// (spec.md's "multiple translation models passed to CFG+LM is a
// configuration error" is enforced structurally here: there is exactly
// one *rulefsm.RuleFSM field, not a slice).
type Decoder struct {
	fsm     *rulefsm.RuleFSM
	lms     []lm.Model
	weights rule.SparseMap
	cfg     Config
}

// New builds a Decoder over fsm, scoring with lms (in order; feature names
// lmN/unkN identify each model's contribution to weights) at the given
// weights.
func New(fsm *rulefsm.RuleFSM, lms []lm.Model, weights rule.SparseMap, cfg Config) *Decoder {
	return &Decoder{fsm: fsm, lms: lms, weights: weights, cfg: cfg}
}

func lmFeatureName(i int) rule.FeatureId    { return rule.FeatureId(fmt.Sprintf("lm%d", i)) }
func unkFeatureName(i int) rule.FeatureId   { return rule.FeatureId(fmt.Sprintf("unk%d", i)) }
func finalFeatureName(i int) rule.FeatureId { return rule.FeatureId(fmt.Sprintf("lmfinal%d", i)) }

// scoreLMFull scores words against every configured LM from BeginState,
// returning both the resulting per-LM final states (for FinalScore, used
// only at root attachment) and the lmN/unkN feature contributions.
func (d *Decoder) scoreLMFull(words symbol.Sentence) ([]lm.ChartState, rule.SparseMap) {
	states := make([]lm.ChartState, len(d.lms))
	feats := rule.SparseMap{}
	for i, m := range d.lms {
		state := m.BeginState()
		logProb := 0.0
		oov := 0
		for _, w := range words {
			lp, next, isOOV := m.Score(state, w)
			logProb += lp
			if isOOV {
				oov++
			}
			state = next
		}
		states[i] = state
		feats[lmFeatureName(i)] = logProb
		feats[unkFeatureName(i)] = float64(oov)
	}
	return states, feats
}

func (d *Decoder) scoreLM(words symbol.Sentence) rule.SparseMap {
	_, feats := d.scoreLMFull(words)
	return feats
}

// collectTerminal fills coll for a single-word span [i, i]: the grammar's
// rules for sent[i] verbatim, or the synthesized unknown-word rule if none
// match (or if MatchAllUnk forces it).
func (d *Decoder) collectTerminal(sent symbol.Sentence, i int, coll *collection) {
	w := sent[i]
	var bucket []*rule.TranslationRule
	if agent, ok := d.fsm.Root().Advance(w); ok {
		bucket, _ = agent.Lookup()
	}
	if (len(bucket) == 0 || d.fsm.MatchAllUnk) && d.fsm.UnkLabel >= 0 {
		bucket = []*rule.TranslationRule{rule.NewUnknownRule(w, d.fsm.UnkLabel, 1, d.fsm.UnkFeature)}
	}
	for _, r := range bucket {
		coll.rules = append(coll.rules, r)
		coll.spans = append(coll.spans, nil)
		coll.labels = append(coll.labels, nil)
	}
}

// Decode builds the hypergraph of every translation of sent reachable
// under the configured grammar. Spans are visited right-to-left over the
// start position and left-to-right over the end position within each
// start, so every proper sub-span a rule's slots can reference is already
// finalized by the time its enclosing span is cube-pruned (spec.md
// section 4.3). An empty hypergraph (no root set) means RootSymbol never
// appeared over the full sentence.
func (d *Decoder) Decode(sent symbol.Sentence) *hypergraph.HyperGraph {
	g := hypergraph.New()
	n := len(sent)
	if n == 0 {
		return g
	}

	chartCells := make([][]*cell, n)
	collections := make([][]*collection, n)
	for i := range chartCells {
		chartCells[i] = make([]*cell, n)
		collections[i] = make([]*collection, n)
		for j := i; j < n; j++ {
			chartCells[i][j] = newCell()
			collections[i][j] = &collection{}
		}
	}

	// consume deposits matches for span [i, k] while visiting an earlier
	// span [i, j] with j <= k, so every collection exists up front and is
	// never replaced once the walk has started filling it.
	for i := n - 1; i >= 0; i-- {
		for j := i; j < n; j++ {
			coll := collections[i][j]
			if i == j {
				d.collectTerminal(sent, i, coll)
			} else {
				d.consume(rootPath(d.fsm), sent, i, i, j-1, chartCells, collections)
			}
			d.cubePrune(i, j, coll, chartCells, g)
		}
	}

	rootCell := chartCells[0][n-1]
	bucket := rootCell.nodes[d.cfg.RootSymbol.Key()]
	if len(bucket) == 0 {
		return hypergraph.New()
	}

	rootNode := g.AddNode(hypergraph.Span{Begin: 0, End: n}, d.cfg.RootSymbol.Labels()[0])
	g.SetRoot(rootNode)
	for _, sn := range bucket {
		states, _ := d.scoreLMFull(sn.words)
		finalFeats := rule.SparseMap{}
		for i, m := range d.lms {
			finalFeats[finalFeatureName(i)] = m.FinalScore(states[i])
		}
		features := rule.NewSparseVector(finalFeats)
		eid := g.AddEdge(rootNode, []hypergraph.NodeId{sn.nodeID}, nil, features, rootTrgData)
		g.Edge(eid).Score = features.Dot(d.weights)
	}
	return g
}

var rootTrgData = rule.CfgDataVector{
	rule.NewCfgData(symbol.Sentence{symbol.NonTerminal(0)}, symbol.WordId(-1), symbol.Sentence{symbol.WordId(-1)}),
}
