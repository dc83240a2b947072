package chart

import (
	"sort"

	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/symbol"
)

// statefulNode is one hypergraph node produced for a chart cell: the
// realized target word sequence of its best-known derivation (used both to
// recombine equivalent LM contexts and to re-derive the trailing n-gram
// history any parent needs), the inside score accumulated so far, and the
// cumulative lmN/unkN feature totals over that whole yield (CFGChartItem's
// per-label StatefulNode, simplified: see decoder.go's package comment on
// the full-resequencing LM scoring choice). lmFeatures always equals
// scoreLM(words) by construction; a parent reads it back instead of
// rescoring this node's span, and subtracts it from its own full-yield
// rescore so the LM contribution of this node's words is counted once
// across the whole derivation, not once per node that contains them.
type statefulNode struct {
	nodeID     hypergraph.NodeId
	words      symbol.Sentence
	score      float64
	lmFeatures rule.SparseMap
}

// cell is one chart[i][j] entry: every hypergraph node built for source
// span [i, j], bucketed by head label (CFGChartItem). Buckets are
// score-descending once finalize has run, which cube pruning depends on
// when reading a completed child span's rank-k best alternative.
type cell struct {
	nodes  map[string][]*statefulNode
	labels map[string]rule.HieroHeadLabels
}

func newCell() *cell {
	return &cell{nodes: make(map[string][]*statefulNode), labels: make(map[string]rule.HieroHeadLabels)}
}

func (c *cell) add(label rule.HieroHeadLabels, n *statefulNode) {
	k := label.Key()
	c.labels[k] = label
	c.nodes[k] = append(c.nodes[k], n)
}

func (c *cell) get(label rule.HieroHeadLabels, pos int) *statefulNode {
	bucket := c.nodes[label.Key()]
	if pos < 0 || pos >= len(bucket) {
		return nil
	}
	return bucket[pos]
}

// topScore returns the score of the pos-th best node under label, or
// ok=false if the bucket has fewer than pos+1 entries.
func (c *cell) topScore(label rule.HieroHeadLabels, pos int) (float64, bool) {
	n := c.get(label, pos)
	if n == nil {
		return 0, false
	}
	return n.score, true
}

// scoreDiff returns the marginal score change from rank nextPos-1 to
// nextPos, used to push cube pruning's "advance" successor without
// recomputing the whole hypothesis from scratch.
func (c *cell) scoreDiff(label rule.HieroHeadLabels, nextPos int) (float64, bool) {
	if nextPos <= 0 {
		return 0, false
	}
	cur := c.get(label, nextPos)
	prev := c.get(label, nextPos-1)
	if cur == nil || prev == nil {
		return 0, false
	}
	return cur.score - prev.score, true
}

// finalize sorts every label's bucket by descending score. Must run before
// any other cell reads this one as a completed child span.
func (c *cell) finalize() {
	for k, bucket := range c.nodes {
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].score > bucket[j].score })
		c.nodes[k] = bucket
	}
}
