package chart

import (
	"container/heap"
	"fmt"

	"github.com/ieee0824/travatar-go/hypergraph"
	"github.com/ieee0824/travatar-go/rule"
	"github.com/ieee0824/travatar-go/rulefsm"
	"github.com/ieee0824/travatar-go/symbol"
)

// unaryBucketPos and unaryBucketOf encode/decode a unary rule's bucket id
// as a negative candidate.pos[0], keeping the two candidate kinds (regular
// rule index vs. unary bucket) in one int without a tagged union.
func unaryBucketPos(id rulefsm.BucketId) int { return -(1 + int(id)) }
func unaryBucketOf(pos int) rulefsm.BucketId { return rulefsm.BucketId(-1 - pos) }

// candidate is one point in a cube-pruning hypothesis space: pos[0] picks
// which rule (or, if negative, which unary bucket via -(1+bucket)) and
// pos[1:] pick a rank into each of that rule's non-terminal slots' chart
// cell buckets. seq breaks score ties by insertion order, matching
// spec.md's determinism requirement for the priority queue.
type candidate struct {
	score float64
	seq   int
	pos   []int
}

type candQueue []*candidate

func (q candQueue) Len() int { return len(q) }
func (q candQueue) Less(i, j int) bool {
	if q[i].score != q[j].score {
		return q[i].score > q[j].score
	}
	return q[i].seq < q[j].seq
}
func (q candQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *candQueue) Push(x any)        { *q = append(*q, x.(*candidate)) }
func (q *candQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func posKey(pos []int) string { return fmt.Sprint(pos) }

// cubePrune expands coll (every rule matching span [i, j]) into hypergraph
// nodes/edges via lazy cube-growing: an initial candidate per rule/unary
// bucket at rank zero on every slot, then successively popping the best
// remaining candidate and pushing its "advance one slot" and "expand via
// a unary rule over this head label" successors (the latter after unary
// candidates too, so unary rules chain), until pop_limit pops or chart_limit distinct recombined
// nodes have been produced (grounded on
// LookupTableCFGLM::CubePrune/AddToChart's pop_limit_/chart_limit_).
func (d *Decoder) cubePrune(i, j int, coll *collection, chart [][]*cell, g *hypergraph.HyperGraph) {
	c := chart[i][j]
	queue := &candQueue{}
	heap.Init(queue)
	seq := 0

	push := func(score float64, pos []int) {
		cp := make([]int, len(pos))
		copy(cp, pos)
		heap.Push(queue, &candidate{score: score, seq: seq, pos: cp})
		seq++
	}

	for rid, r := range coll.rules {
		score := r.Features.Dot(d.weights)
		ok := true
		pos := make([]int, len(coll.spans[rid])+1)
		pos[0] = rid
		for pid, sp := range coll.spans[rid] {
			s, found := chart[sp.start][sp.end].topScore(coll.labels[rid][pid], 0)
			if !found {
				ok = false
				break
			}
			score += s
		}
		if ok {
			push(score, pos)
		}
	}

	seen := map[string]bool{}
	recombined := map[string]*statefulNode{}
	popped := 0

	for queue.Len() > 0 {
		if d.cfg.PopLimit >= 0 && popped >= d.cfg.PopLimit {
			break
		}
		if d.cfg.ChartLimit >= 0 && len(recombined) >= d.cfg.ChartLimit {
			break
		}
		top := heap.Pop(queue).(*candidate)
		key := posKey(top.pos)
		if seen[key] {
			continue
		}
		seen[key] = true
		popped++

		var r *rule.TranslationRule
		var spans []span
		var labels []rule.HieroHeadLabels
		if top.pos[0] >= 0 {
			rid := top.pos[0]
			r, spans, labels = coll.rules[rid], coll.spans[rid], coll.labels[rid]
		} else {
			bucket := d.fsm.Bucket(unaryBucketOf(top.pos[0]))
			if len(bucket) == 0 {
				continue
			}
			r = bucket[0]
			spans = []span{{i, j}}
			labels = []rule.HieroHeadLabels{r.ChildHeadLabels[0]}
		}

		tails := make([]hypergraph.NodeId, len(spans))
		childWords := make([]symbol.Sentence, len(spans))
		childScores := make([]float64, len(spans))
		childLM := make([]rule.SparseMap, len(spans))
		valid := true
		for pid, sp := range spans {
			rank := top.pos[pid+1]
			node := chart[sp.start][sp.end].get(labels[pid], rank)
			if node == nil {
				valid = false
				break
			}
			tails[pid] = node.nodeID
			childWords[pid] = node.words
			childScores[pid] = node.score
			childLM[pid] = node.lmFeatures
		}
		if !valid {
			continue
		}

		words := reconstructWords(r, childWords)
		lmFeatures := d.scoreLM(words)

		// The edge carries only the incremental LM contribution of this
		// node's yield over its children's (already-scored) yields: the
		// children's lmFeatures are each node's own full-yield rescore, so
		// subtracting them out here is what makes the totals telescope to
		// a single sentence-level LM score instead of summing a rescore of
		// every node's yield once per ancestor that contains it.
		incrementalLM := rule.SparseMap{}
		for id, v := range lmFeatures {
			incrementalLM[id] = v
		}
		for _, cl := range childLM {
			for id, v := range cl {
				incrementalLM[id] -= v
			}
		}

		combined := rule.SparseMap{}
		r.Features.Each(func(id rule.FeatureId, v float64) { combined[id] = v })
		for id, v := range incrementalLM {
			combined[id] = v
		}
		edgeFeatures := rule.NewSparseVector(combined)
		edgeScore := edgeFeatures.Dot(d.weights)

		nodeScore := edgeScore
		for _, s := range childScores {
			nodeScore += s
		}

		recombKey := r.HeadLabels.Key() + "\x00" + wordsKey(words)
		sn, exists := recombined[recombKey]
		var headID hypergraph.NodeId
		if !exists {
			headID = g.AddNode(hypergraph.Span{Begin: i, End: j + 1}, r.HeadLabels.Labels()[0])
			sn = &statefulNode{nodeID: headID, words: words, score: nodeScore, lmFeatures: lmFeatures}
			recombined[recombKey] = sn
			c.add(r.HeadLabels, sn)
		} else {
			headID = sn.nodeID
			if nodeScore > sn.score {
				sn.score = nodeScore
			}
		}

		eid := g.AddEdge(headID, tails, r, edgeFeatures, r.TrgData)
		g.Edge(eid).Score = edgeScore

		// advance: bump each slot's rank by one.
		for pid, sp := range spans {
			nextRank := top.pos[pid+1] + 1
			diff, ok := chart[sp.start][sp.end].scoreDiff(labels[pid], nextRank)
			if !ok {
				continue
			}
			nextPos := append([]int{}, top.pos...)
			nextPos[pid+1] = nextRank
			push(top.score+diff, nextPos)
		}

		// unary expansion: this head label can itself be the sole child of
		// a unary rule.
		for _, bucketID := range d.fsm.UnaryRulesFor(r.HeadLabels) {
			bucket := d.fsm.Bucket(bucketID)
			if len(bucket) == 0 {
				continue
			}
			unaryScore := nodeScore + bucket[0].Features.Dot(d.weights)
			push(unaryScore, []int{unaryBucketPos(bucketID), 0})
		}
	}

	c.finalize()
}
