// Package rulefsm indexes the source side of a synchronous grammar as a
// trie over WordId sequences, so the chart decoder can enumerate every
// rule matching a source span in one sweep instead of scanning the whole
// grammar per span.
//
// The serialised key for a rule's source pattern interleaves literal
// terminal WordIds with an interned id standing in for the HieroHeadLabels
// expected at each non-terminal slot, so that two rules differing only in
// which non-terminal they expect at a slot occupy distinct trie edges.
package rulefsm

import (
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

// BucketId indexes a bucket of co-located TranslationRules, i.e. rules
// sharing an identical source pattern.
type BucketId int32

type trieNode struct {
	children map[symbol.WordId]*trieNode
	bucket   BucketId // -1 until some rule's pattern ends exactly here
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[symbol.WordId]*trieNode), bucket: -1}
}

// RuleFSM is the trie plus the bucket table and the precomputed unary-rule
// index used by cube pruning's unary expansion step.
type RuleFSM struct {
	root     *trieNode
	buckets  [][]*rule.TranslationRule
	unaryMap map[string][]BucketId

	ntIntern map[string]symbol.WordId
	nextNTId int32

	// UnkLabel and UnkFeature parameterize the fallback rule the chart
	// decoder builds (via rule.NewUnknownRule) for a source word with no
	// matching grammar rule; UnkLabel is -1 until configured.
	// MatchAllUnk additionally forces every single-word span onto the
	// fallback rule even when the grammar does match, mirroring
	// LookupTable's match_all_unk_ flag.
	UnkLabel    symbol.WordId
	UnkFeature  rule.FeatureId
	MatchAllUnk bool
}

// New returns an empty RuleFSM.
func New() *RuleFSM {
	return &RuleFSM{
		root:     newTrieNode(),
		unaryMap: make(map[string][]BucketId),
		ntIntern: make(map[string]symbol.WordId),
		UnkLabel: -1,
	}
}

// Intern exposes the trie's HieroHeadLabels interning for callers walking
// an Agent from outside the package (the chart decoder, matching a
// completed child span's head label against a rule's expected slot
// label). Querying a label no grammar rule ever used is harmless: it
// mints an id that no trie edge holds, so the walk simply fails.
func (f *RuleFSM) Intern(h rule.HieroHeadLabels) symbol.WordId {
	return f.intern(h)
}

// intern assigns (or reuses) a negative WordId standing in for h, distinct
// from every other HieroHeadLabels value this RuleFSM has seen.
func (f *RuleFSM) intern(h rule.HieroHeadLabels) symbol.WordId {
	k := h.Key()
	if id, ok := f.ntIntern[k]; ok {
		return id
	}
	f.nextNTId++
	id := symbol.WordId(-f.nextNTId)
	f.ntIntern[k] = id
	return id
}

func (f *RuleFSM) patternKey(r *rule.TranslationRule) []symbol.WordId {
	pattern := make([]symbol.WordId, 0, len(r.SrcPattern.Words))
	for _, w := range r.SrcPattern.Words {
		if symbol.IsNonTerminal(w) {
			slot := symbol.SlotIndex(w)
			pattern = append(pattern, f.intern(r.ChildHeadLabels[slot]))
			continue
		}
		pattern = append(pattern, w)
	}
	return pattern
}

// Insert registers r under its source pattern, creating trie nodes along
// the way as needed.
func (f *RuleFSM) Insert(r *rule.TranslationRule) {
	pattern := f.patternKey(r)
	node := f.root
	for _, w := range pattern {
		child, ok := node.children[w]
		if !ok {
			child = newTrieNode()
			node.children[w] = child
		}
		node = child
	}
	if node.bucket < 0 {
		node.bucket = BucketId(len(f.buckets))
		f.buckets = append(f.buckets, nil)
	}
	f.buckets[node.bucket] = append(f.buckets[node.bucket], r)

	if len(pattern) == 1 && symbol.IsNonTerminal(pattern[0]) && len(r.ChildHeadLabels) == 1 {
		key := r.ChildHeadLabels[0].Key()
		f.unaryMap[key] = append(f.unaryMap[key], node.bucket)
	}
}

// Bucket returns the rules registered under id.
func (f *RuleFSM) Bucket(id BucketId) []*rule.TranslationRule {
	return f.buckets[id]
}

// UnaryRulesFor returns the bucket ids of single-non-terminal patterns
// whose expected label matches h.
func (f *RuleFSM) UnaryRulesFor(h rule.HieroHeadLabels) []BucketId {
	return f.unaryMap[h.Key()]
}

// Agent is an immutable trie-walk cursor. Copying one (as Advance does, by
// returning a new value rather than mutating the receiver) is O(1) and
// never affects the original, which is what predictive_search's
// non-destructive contract requires.
type Agent struct {
	fsm  *RuleFSM
	node *trieNode
}

// Root returns an Agent positioned at the trie's root.
func (f *RuleFSM) Root() *Agent {
	return &Agent{fsm: f, node: f.root}
}

// Advance returns a new Agent positioned after consuming w, or ok=false if
// the trie has no edge for w from the current position.
func (a *Agent) Advance(w symbol.WordId) (next *Agent, ok bool) {
	child, exists := a.node.children[w]
	if !exists {
		return nil, false
	}
	return &Agent{fsm: a.fsm, node: child}, true
}

// Lookup reports whether the agent's current position is a complete key,
// returning its rule bucket if so.
func (a *Agent) Lookup() ([]*rule.TranslationRule, bool) {
	if a.node.bucket < 0 {
		return nil, false
	}
	return a.fsm.buckets[a.node.bucket], true
}

// PredictiveSearch reports whether any key in the trie has the agent's
// current position as a prefix: either the position is itself a complete
// key, or it has at least one child to extend into.
func (a *Agent) PredictiveSearch() bool {
	return a.node.bucket >= 0 || len(a.node.children) > 0
}
