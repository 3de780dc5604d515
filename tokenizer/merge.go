package tokenizer

import "container/heap"

// pairCand is a candidate merge of two adjacent spans. verL and verR
// snapshot the span versions at push time; a popped candidate whose
// versions have moved on refers to spans that no longer exist in that
// shape and is skipped.
type pairCand struct {
	rank        int
	left, right int
	verL, verR  uint32
}

// candHeap orders candidates by rank, then by position, so of two
// occurrences of the same pair the leftmost merges first — matching the
// reference left-to-right minimum scan. Ranks of distinct pairs are
// unique, so no other tie is possible.
type candHeap []pairCand

func (h candHeap) Len() int { return len(h) }

func (h candHeap) Less(i, j int) bool {
	if h[i].rank != h[j].rank {
		return h[i].rank < h[j].rank
	}
	return h[i].left < h[j].left
}

func (h candHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candHeap) Push(x any) { *h = append(*h, x.(pairCand)) }

func (h *candHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// encodePiece byte-pair encodes one segmentation piece against the
// reverse rank index. The working state is a partition of the piece into
// spans, one span per byte initially; the lowest-rank adjacent pair
// merges until no candidate remains. Every merge removes one span, so an
// n-byte piece performs at most n−1 merges.
func encodePiece(piece []byte, ranks map[string]int) ([]int, error) {
	if len(piece) == 0 {
		return nil, nil
	}
	if len(piece) == 1 {
		rank, ok := ranks[string(piece)]
		if !ok {
			return nil, ErrInternalConsistency
		}
		return []int{rank}, nil
	}

	n := len(piece)

	// Spans as a doubly linked list over byte offsets. Span i covers
	// piece[i:end[i]]; a merge keeps the left index alive and retires the
	// right one.
	prev := make([]int, n)
	next := make([]int, n)
	end := make([]int, n)
	ver := make([]uint32, n)
	alive := make([]bool, n)
	for i := range piece {
		prev[i] = i - 1
		next[i] = i + 1
		end[i] = i + 1
		alive[i] = true
	}
	next[n-1] = -1

	candidate := func(left int) (pairCand, bool) {
		if left < 0 {
			return pairCand{}, false
		}
		right := next[left]
		if right < 0 {
			return pairCand{}, false
		}
		rank, ok := ranks[string(piece[left:end[right]])]
		if !ok {
			return pairCand{}, false
		}
		return pairCand{
			rank: rank,
			left: left, right: right,
			verL: ver[left], verR: ver[right],
		}, true
	}

	h := make(candHeap, 0, n)
	for i := 0; i < n-1; i++ {
		if c, ok := candidate(i); ok {
			h = append(h, c)
		}
	}
	heap.Init(&h)

	for h.Len() > 0 {
		c := heap.Pop(&h).(pairCand)
		if !alive[c.left] || !alive[c.right] ||
			ver[c.left] != c.verL || ver[c.right] != c.verR ||
			next[c.left] != c.right {
			continue
		}

		end[c.left] = end[c.right]
		alive[c.right] = false
		next[c.left] = next[c.right]
		if next[c.right] != -1 {
			prev[next[c.right]] = c.left
		}
		ver[c.left]++

		if nc, ok := candidate(prev[c.left]); ok {
			heap.Push(&h, nc)
		}
		if nc, ok := candidate(c.left); ok {
			heap.Push(&h, nc)
		}
	}

	// The leftmost span never dies, so the walk always starts at 0.
	out := make([]int, 0, n)
	for i := 0; i != -1; i = next[i] {
		rank, ok := ranks[string(piece[i:end[i]])]
		if !ok {
			return nil, ErrInternalConsistency
		}
		out = append(out, rank)
	}

	return out, nil
}
