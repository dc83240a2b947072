// Package compose implements incremental LM composition: given an
// already-parsed hypergraph (e.g. the one chart.Decode produces for the
// grammar's own translation-time LM, or a forest merged by
// hypergraph.AppendUnderRoot for oracle extraction) and a second LM,
// produce a new hypergraph whose edges carry that LM's score as
// additional features, without re-running the grammar parse.
//
// The original's composer runs its own incremental cube-pruned search
// over the parse forest so two sub-derivations' partial KenLM states can
// be combined without fully rescoring either (lm-composer-incremental.cc,
// search::EdgeGenerator/VertexGenerator). Since this project's lm.Model
// contract (see package lm) is a plain sequential scorer rather than a
// partial-left/right-state one, composition here instead walks the
// forest bottom-up once, reconstructing each node's Viterbi-best realized
// word sequence and rescoring every edge at that node against it from
// lm.Model.BeginState() (the same trade-off chart.Decode documents in its
// package comment). The output is a structural copy (via
// hypergraph.Append) so the input forest is left untouched.
package compose

import (
	"fmt"

	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/lm"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

// Names returns the three feature ids Compose attaches for the i-th LM
// composed into a forest: the interior log-probability, the OOV count,
// and the end-of-sentence bonus applied only to root edges.
func Names(i int) (lmFeature, unkFeature, finalFeature rule.FeatureId) {
	return rule.FeatureId(fmt.Sprintf("compose_lm%d", i)),
		rule.FeatureId(fmt.Sprintf("compose_unk%d", i)),
		rule.FeatureId(fmt.Sprintf("compose_lmfinal%d", i))
}

// Compose returns a copy of parse with model's score folded into every
// edge's Features under the names Names(i) returns. Callers combine this
// with hypergraph.ScoreEdges against a weights map naming those features
// to actually affect Viterbi/Nbest; Compose itself only adds features.
func Compose(parse *hypergraph.HyperGraph, model lm.Model, i int) *hypergraph.HyperGraph {
	out := hypergraph.New()
	if parse.Empty() {
		return out
	}
	root := out.Append(parse)
	out.SetRoot(root)

	lmFeature, unkFeature, finalFeature := Names(i)
	out.CalcViterbi(root)

	words := make(map[hypergraph.NodeId]symbol.Sentence)
	var reconstruct func(id hypergraph.NodeId) symbol.Sentence
	reconstruct = func(id hypergraph.NodeId) symbol.Sentence {
		if w, ok := words[id]; ok {
			return w
		}
		n := out.Node(id)
		if len(n.Edges) == 0 {
			words[id] = nil
			return nil
		}
		best := bestEdge(out, n)
		e := out.Edge(best)
		tailWords := make([]symbol.Sentence, len(e.Tails))
		for ti, t := range e.Tails {
			tailWords[ti] = reconstruct(t)
		}
		w := substitute(e.TrgData, tailWords)
		words[id] = w
		return w
	}
	reconstruct(root)

	// total caches each node's own full-yield LM score, computed once from
	// its reconstructed words. An edge subtracts its tails' totals from its
	// own full-yield rescore so the LM contribution of a tail's words is
	// counted once across the whole derivation, not once per ancestor edge
	// whose substituted yield contains them.
	type total struct {
		logProb float64
		oov     int
	}
	totals := make(map[hypergraph.NodeId]total)
	totalFor := func(id hypergraph.NodeId) total {
		if t, ok := totals[id]; ok {
			return t
		}
		state := model.BeginState()
		t := total{}
		for _, w := range reconstruct(id) {
			lp, next, isOOV := model.Score(state, w)
			t.logProb += lp
			if isOOV {
				t.oov++
			}
			state = next
		}
		totals[id] = t
		return t
	}

	for id := hypergraph.NodeId(0); int(id) < out.NumNodes(); id++ {
		n := out.Node(id)
		for _, eid := range n.Edges {
			e := out.Edge(eid)
			tailWords := make([]symbol.Sentence, len(e.Tails))
			for ti, t := range e.Tails {
				tailWords[ti] = reconstruct(t)
			}
			edgeWords := substitute(e.TrgData, tailWords)

			state := model.BeginState()
			logProb := 0.0
			oov := 0
			for _, w := range edgeWords {
				lp, next, isOOV := model.Score(state, w)
				logProb += lp
				if isOOV {
					oov++
				}
				state = next
			}
			finalScore := model.FinalScore(state)

			for _, t := range e.Tails {
				tt := totalFor(t)
				logProb -= tt.logProb
				oov -= tt.oov
			}

			combined := rule.SparseMap{}
			e.Features.Each(func(fid rule.FeatureId, v float64) { combined[fid] = v })
			combined[lmFeature] = logProb
			if oov != 0 {
				combined[unkFeature] = float64(oov)
			}
			if id == root {
				combined[finalFeature] = finalScore
			}
			e.Features = rule.NewSparseVector(combined)
		}
	}
	return out
}

func bestEdge(g *hypergraph.HyperGraph, n *hypergraph.HyperNode) hypergraph.EdgeId {
	best := n.Edges[0]
	bestScore := edgeScore(g, g.Edge(best))
	for _, eid := range n.Edges[1:] {
		if s := edgeScore(g, g.Edge(eid)); s > bestScore {
			best, bestScore = eid, s
		}
	}
	return best
}

func edgeScore(g *hypergraph.HyperGraph, e *hypergraph.HyperEdge) float64 {
	s := e.Score
	for _, t := range e.Tails {
		s += g.Node(t).ViterbiScore()
	}
	return s
}

func substitute(trg rule.CfgDataVector, tailWords []symbol.Sentence) symbol.Sentence {
	if len(trg) == 0 {
		return nil
	}
	out := make(symbol.Sentence, 0, len(trg[0].Words))
	for _, w := range trg[0].Words {
		if symbol.IsNonTerminal(w) {
			out = append(out, tailWords[symbol.SlotIndex(w)]...)
			continue
		}
		out = append(out, w)
	}
	return out
}
