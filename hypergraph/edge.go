package hypergraph

import (
	"github.com/ieee0824/travatar-go/rule"
)

// EdgeId indexes a HyperEdge within its owning HyperGraph.
type EdgeId int32

// HyperEdge is one way of deriving its Head node from its Tails: a
// (possibly nil, for a synthetic edge) grammar rule, the feature vector
// actually used for scoring (normally the rule's own, but oracle/tuning
// edges may attach a different vector), and the realised target pattern.
//
// Invariant: every non-terminal slot marker in TrgData[f].Words indexes a valid
// position in Tails. Score equals Features·weights as of the most recent
// ScoreEdges call against those weights; it is not kept in sync
// automatically.
type HyperEdge struct {
	Id       EdgeId
	Head     NodeId
	Tails    []NodeId
	Rule     *rule.TranslationRule // nil for synthetic / root-wrapping edges
	Features rule.SparseVector
	Score    float64
	TrgData  rule.CfgDataVector
}
