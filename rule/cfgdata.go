package rule

import "github.com/ieee0824/travatar-go/symbol"

// CfgData holds one side (source or a target factor) of a synchronous
// rule: a sentence with embedded non-terminal slot markers, the head
// non-terminal label, and the ordered labels of the child slots.
//
// Invariant: the number of negative (non-terminal) entries in Words
// equals len(Syms), and the k-th negative entry's slot index (via
// symbol.SlotIndex) indexes into Syms.
type CfgData struct {
	Words symbol.Sentence
	Label symbol.WordId
	Syms  symbol.Sentence
}

// NewCfgData builds a CfgData from its three parts; callers pass -1 as
// label for "no label", the original's default-constructor value.
func NewCfgData(words symbol.Sentence, label symbol.WordId, syms symbol.Sentence) CfgData {
	return CfgData{Words: words, Label: label, Syms: syms}
}

// AppendChild appends a child CfgData's words onto Words and its Label
// onto Syms, used when composing the target side of a rule that invokes
// another rule's expansion inline.
func (c *CfgData) AppendChild(child CfgData) {
	c.Words = append(c.Words, child.Words...)
	c.Syms = append(c.Syms, child.Label)
}

// Equal reports structural equality, used by tests and by recombination
// sanity checks.
func (c CfgData) Equal(rhs CfgData) bool {
	if c.Label != rhs.Label || len(c.Words) != len(rhs.Words) || len(c.Syms) != len(rhs.Syms) {
		return false
	}
	for i := range c.Words {
		if c.Words[i] != rhs.Words[i] {
			return false
		}
	}
	for i := range c.Syms {
		if c.Syms[i] != rhs.Syms[i] {
			return false
		}
	}
	return true
}

// NontermPositions returns the indices into Words holding non-terminal
// slot markers, in order.
func (c CfgData) NontermPositions() []int {
	var ret []int
	for i, wid := range c.Words {
		if symbol.IsNonTerminal(wid) {
			ret = append(ret, i)
		}
	}
	return ret
}

// CfgDataVector holds one CfgData per target factor (spec.md's TrgData is
// "per-factor CfgDataVector"; this project, like the teacher's
// single-factor speech pipeline, normally carries exactly one factor but
// the type stays a slice so multi-factor output is not precluded).
type CfgDataVector []CfgData

// HieroHeadLabels is a fixed-length tuple of WordIds, one head label per
// target factor plus one for the source, used as the recombination key
// for rule heads (spec.md section 3).
type HieroHeadLabels struct {
	labels []symbol.WordId
}

// NewHieroHeadLabels builds a HieroHeadLabels from an explicit label list
// (source label first, then one per target factor).
func NewHieroHeadLabels(labels []symbol.WordId) HieroHeadLabels {
	cp := make([]symbol.WordId, len(labels))
	copy(cp, labels)
	return HieroHeadLabels{labels: cp}
}

// Key returns a comparable string representation suitable for use as a
// Go map key (the underlying label slice is not comparable).
func (h HieroHeadLabels) Key() string {
	// A short, allocation-light encoding: each WordId packed as 4 bytes.
	buf := make([]byte, len(h.labels)*4)
	for i, w := range h.labels {
		u := uint32(w)
		buf[i*4] = byte(u)
		buf[i*4+1] = byte(u >> 8)
		buf[i*4+2] = byte(u >> 16)
		buf[i*4+3] = byte(u >> 24)
	}
	return string(buf)
}

// Labels returns the underlying label slice (read-only by convention).
func (h HieroHeadLabels) Labels() []symbol.WordId {
	return h.labels
}

// Len returns the number of labels (1 + number of target factors).
func (h HieroHeadLabels) Len() int {
	return len(h.labels)
}
