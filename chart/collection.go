package chart

import "github.com/ieee0824/travatar-go/rule"

// collection accumulates every grammar rule whose source pattern the trie
// walk matched for one source span, alongside the sub-spans/labels each
// rule's non-terminal slots resolved to, in slot order (CFGCollection).
type collection struct {
	rules  []*rule.TranslationRule
	spans  [][]span
	labels [][]rule.HieroHeadLabels
}

func (c *collection) addRules(p cfgPath, rules []*rule.TranslationRule) {
	for _, r := range rules {
		c.rules = append(c.rules, r)
		c.spans = append(c.spans, p.spans)
		c.labels = append(c.labels, p.labels)
	}
}
