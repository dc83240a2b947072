package rule

import "github.com/ieee0824/travatar-go/symbol"

// TranslationRule is a single synchronous grammar rule: a source pattern,
// a target template per factor, per-feature weights, and the head/child
// non-terminal labels used for cube-pruning recombination.
//
// TranslationRule is immutable after grammar load; RuleFSM and the CFG+LM
// chart hold only non-owning references to rules it owns.
type TranslationRule struct {
	SrcPattern CfgData
	TrgData    CfgDataVector
	Features   SparseVector

	// HeadLabels is the recombination key for this rule's own head
	// (source label plus one label per target factor).
	HeadLabels HieroHeadLabels
	// ChildHeadLabels holds one HieroHeadLabels per slot in SrcPattern,
	// in slot order, naming the non-terminal label expected there.
	ChildHeadLabels []HieroHeadLabels
}

// NumSlots returns the number of non-terminal slots in the source
// pattern, i.e. len(ChildHeadLabels).
func (r *TranslationRule) NumSlots() int {
	return len(r.ChildHeadLabels)
}

// NewUnknownRule builds the fallback single-terminal rule used when no
// grammar rule matches a source word at all (SPEC_FULL.md section 4,
// grounded on original_source's LookupTable::unk_rule_ / match_all_unk_).
// The rule passes the source word through unchanged on every target
// factor and carries a single feature marking it as an unknown-word
// guess, so tuning can learn to penalize it.
func NewUnknownRule(srcWord symbol.WordId, label symbol.WordId, numFactors int, unkFeature FeatureId) *TranslationRule {
	trg := make(CfgDataVector, numFactors)
	for i := range trg {
		trg[i] = CfgData{Words: symbol.Sentence{srcWord}, Label: label}
	}
	feats := NewSparseVector(SparseMap{unkFeature: 1})
	head := NewHieroHeadLabels(append([]symbol.WordId{label}, repeat(label, numFactors)...))
	return &TranslationRule{
		SrcPattern: CfgData{Words: symbol.Sentence{srcWord}, Label: label},
		TrgData:    trg,
		Features:   feats,
		HeadLabels: head,
	}
}

func repeat(w symbol.WordId, n int) []symbol.WordId {
	out := make([]symbol.WordId, n)
	for i := range out {
		out[i] = w
	}
	return out
}
