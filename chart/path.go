package chart

import (
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/rulefsm"
	"github.com/ieee0824/travatar-go/symbol"
)

// span is an inclusive pair of source word positions [start, end], matching
// the chart-cell indexing used throughout this package.
type span struct {
	start, end int
}

// cfgPath is a walk in progress over a RuleFSM trie while collecting the
// rules matching one source span. spans/labels record, in slot order, the
// sub-spans and head labels consumed as completed non-terminals; a literal
// terminal consumption extends the trie position without adding to either.
type cfgPath struct {
	agent  *rulefsm.Agent
	spans  []span
	labels []rule.HieroHeadLabels
}

func rootPath(fsm *rulefsm.RuleFSM) cfgPath {
	return cfgPath{agent: fsm.Root()}
}

func (p cfgPath) advanceTerminal(w symbol.WordId) (cfgPath, bool) {
	next, ok := p.agent.Advance(w)
	if !ok {
		return cfgPath{}, false
	}
	return cfgPath{agent: next, spans: p.spans, labels: p.labels}, true
}

func (p cfgPath) advanceLabel(fsm *rulefsm.RuleFSM, label rule.HieroHeadLabels, sp span) (cfgPath, bool) {
	next, ok := p.agent.Advance(fsm.Intern(label))
	if !ok {
		return cfgPath{}, false
	}
	spans := append(append([]span{}, p.spans...), sp)
	labels := append(append([]rule.HieroHeadLabels{}, p.labels...), label)
	return cfgPath{agent: next, spans: spans, labels: labels}, true
}
