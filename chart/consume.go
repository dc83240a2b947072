package chart

import "github.com/ieee0824/travatar-go/symbol"

// consume extends path, currently positioned after consuming source
// positions [i, from), towards a rule pattern ending exactly at to: either
// the literal terminal at position from (only possible when from==to), or
// the single completed non-terminal spanning all of [from, to]. Each
// distinct target width is explored by a separate consume call, spawned
// from addToChart's own fan-out over every k; a single call never loops
// over sub-widths itself (grounded on lookup-table-cfglm.cc's
// Consume/AddToChart).
func (d *Decoder) consume(path cfgPath, sent symbol.Sentence, i, from, to int, chart [][]*cell, collections [][]*collection) {
	unary := i == from

	if from == to {
		if next, ok := path.advanceTerminal(sent[from]); ok {
			d.addToChart(next, sent, i, to, unary, chart, collections)
		}
	}

	src := chart[from][to]
	for _, label := range src.labels {
		next, ok := path.advanceLabel(d.fsm, label, span{from, to})
		if !ok {
			continue
		}
		d.addToChart(next, sent, i, to, unary, chart, collections)
	}
}

func (d *Decoder) addToChart(path cfgPath, sent symbol.Sentence, i, end int, unary bool, chart [][]*cell, collections [][]*collection) {
	if !unary {
		if bucket, ok := path.agent.Lookup(); ok {
			collections[i][end].addRules(path, bucket)
		}
	}
	if !path.agent.PredictiveSearch() {
		return
	}
	n := len(sent)
	for k := end + 1; k < n; k++ {
		d.consume(path, sent, i, end+1, k, chart, collections)
	}
}
