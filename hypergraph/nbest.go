package hypergraph

import (
	"container/heap"
	"fmt"

	"github.com/ieee0824/travatar-go/symbol"
)

// Derivation is one complete reading of a node: its score, the canonical
// preorder sequence of edge ids chosen (this node's edge first, then each
// tail's sequence in tail order), and the target-word sentence obtained by
// substituting tail words into the chosen edges' target patterns.
type Derivation struct {
	Score   float64
	EdgeIDs []EdgeId
	Words   symbol.Sentence
}

// lessDerivation orders derivations by strictly non-increasing score,
// ties broken by lexicographic order of EdgeIDs.
func lessDerivation(a, b Derivation) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	for i := 0; i < len(a.EdgeIDs) && i < len(b.EdgeIDs); i++ {
		if a.EdgeIDs[i] != b.EdgeIDs[i] {
			return a.EdgeIDs[i] < b.EdgeIDs[i]
		}
	}
	return len(a.EdgeIDs) < len(b.EdgeIDs)
}

type candidate struct {
	node      NodeId
	edgeID    EdgeId
	tailRanks []int // 0-based rank chosen for each tail
	deriv     Derivation
}

type candHeap []*candidate

func (h candHeap) Len() int            { return len(h) }
func (h candHeap) Less(i, j int) bool  { return lessDerivation(h[i].deriv, h[j].deriv) }
func (h candHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candHeap) Push(x interface{}) { *h = append(*h, x.(*candidate)) }
func (h *candHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// kbestSolver implements the lazy cube-growing k-best algorithm: each node
// keeps a finalized derivation list plus a heap of not-yet-finalized
// candidates, grown on demand as callers ask for deeper ranks.
type kbestSolver struct {
	g    *HyperGraph
	done map[NodeId][]Derivation
	heap map[NodeId]*candHeap
	seen map[NodeId]map[string]bool
}

func newKBestSolver(g *HyperGraph) *kbestSolver {
	return &kbestSolver{
		g:    g,
		done: make(map[NodeId][]Derivation),
		heap: make(map[NodeId]*candHeap),
		seen: make(map[NodeId]map[string]bool),
	}
}

func rankKey(tailRanks []int) string {
	return fmt.Sprint(tailRanks)
}

// ensure grows node's finalized derivation list to at least n entries,
// returning false if the node has fewer than n derivations in total.
func (s *kbestSolver) ensure(node NodeId, n int) bool {
	if n <= 0 {
		return true
	}
	if len(s.done[node]) >= n {
		return true
	}
	if s.heap[node] == nil {
		s.initHeap(node)
	}
	h := s.heap[node]
	for len(s.done[node]) < n {
		if h.Len() == 0 {
			return false
		}
		top := heap.Pop(h).(*candidate)
		s.done[node] = append(s.done[node], top.deriv)
		s.pushSuccessors(node, top)
	}
	return true
}

func (s *kbestSolver) initHeap(node NodeId) {
	h := &candHeap{}
	n := s.g.Node(node)
	if len(n.Edges) == 0 {
		// A node with no incoming edges has exactly one (empty) derivation,
		// materialised directly rather than through the heap.
		s.done[node] = []Derivation{{Score: 0}}
		s.heap[node] = h
		return
	}
	s.seen[node] = make(map[string]bool)
	for _, eid := range n.Edges {
		e := s.g.Edge(eid)
		tailRanks := make([]int, len(e.Tails))
		if cand := s.buildCandidate(node, eid, tailRanks); cand != nil {
			heap.Push(h, cand)
			s.seen[node][candKey(eid, tailRanks)] = true
		}
	}
	s.heap[node] = h
}

func candKey(eid EdgeId, tailRanks []int) string {
	return fmt.Sprintf("%d|%s", eid, rankKey(tailRanks))
}

// buildCandidate materialises the full Derivation for choosing edge eid at
// its head node with the given per-tail ranks, or returns nil if any tail
// lacks that many derivations.
func (s *kbestSolver) buildCandidate(node NodeId, eid EdgeId, tailRanks []int) *candidate {
	e := s.g.Edge(eid)
	tailDerivs := make([]Derivation, len(e.Tails))
	score := e.Score
	for i, t := range e.Tails {
		if !s.ensure(t, tailRanks[i]+1) {
			return nil
		}
		tailDerivs[i] = s.done[t][tailRanks[i]]
		score += tailDerivs[i].Score
	}
	edgeIDs := []EdgeId{eid}
	for _, td := range tailDerivs {
		edgeIDs = append(edgeIDs, td.EdgeIDs...)
	}
	words := reconstructWords(e, tailDerivs)
	return &candidate{
		node:      node,
		edgeID:    eid,
		tailRanks: append([]int{}, tailRanks...),
		deriv:     Derivation{Score: score, EdgeIDs: edgeIDs, Words: words},
	}
}

func (s *kbestSolver) pushSuccessors(node NodeId, top *candidate) {
	h := s.heap[node]
	for i := range top.tailRanks {
		next := append([]int{}, top.tailRanks...)
		next[i]++
		key := candKey(top.edgeID, next)
		if s.seen[node][key] {
			continue
		}
		if cand := s.buildCandidate(node, top.edgeID, next); cand != nil {
			heap.Push(h, cand)
			s.seen[node][key] = true
		}
	}
}

func reconstructWords(e *HyperEdge, tailDerivs []Derivation) symbol.Sentence {
	if len(e.TrgData) == 0 {
		return nil
	}
	factor := e.TrgData[0]
	out := make(symbol.Sentence, 0, len(factor.Words))
	for _, w := range factor.Words {
		if symbol.IsNonTerminal(w) {
			slot := symbol.SlotIndex(w)
			if slot < len(tailDerivs) {
				out = append(out, tailDerivs[slot].Words...)
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// Nbest returns up to k best derivations of the graph's root node, in
// strictly non-increasing score order with ties broken by lexicographic
// edge-id order. An empty graph yields an empty (non-nil-panicking) slice.
func (g *HyperGraph) Nbest(k int) []Derivation {
	if g.Empty() || k <= 0 {
		return nil
	}
	return g.NbestOf(g.root, k)
}

// NbestOf returns up to k best derivations rooted at an explicit node,
// useful for oracle extraction over a node other than the sentence root.
func (g *HyperGraph) NbestOf(node NodeId, k int) []Derivation {
	s := newKBestSolver(g)
	n := 0
	for n < k && s.ensure(node, n+1) {
		n++
	}
	return s.done[node]
}
