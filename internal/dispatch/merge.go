package dispatch

import "container/heap"

// mergeItem is one entry on the k-way merge heap: the current value of
// one source sequence, which sequence it came from, and how far into
// that sequence we are.
type mergeItem struct {
	value      int64
	sourceIdx  int
	elementIdx int
}

// mergeHeap orders by (value, sourceIdx) so that when two sources carry
// an equal value, the lower-index source is emitted first: the merge
// is stable with respect to source order.
type mergeHeap []mergeItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if h[i].value != h[j].value {
		return h[i].value < h[j].value
	}
	return h[i].sourceIdx < h[j].sourceIdx
}
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergeSorted merges k already-sorted sequences into one sorted
// sequence in O(N log k) using a min-heap. merge([]) == []; merge([x])
// == x (no heap needed in either trivial case).
func MergeSorted(sequences [][]int64) []int64 {
	if len(sequences) == 0 {
		return []int64{}
	}
	if len(sequences) == 1 {
		return sequences[0]
	}

	h := make(mergeHeap, 0, len(sequences))
	total := 0
	for i, seq := range sequences {
		total += len(seq)
		if len(seq) > 0 {
			h = append(h, mergeItem{value: seq[0], sourceIdx: i, elementIdx: 0})
		}
	}
	heap.Init(&h)

	result := make([]int64, 0, total)
	for h.Len() > 0 {
		top := heap.Pop(&h).(mergeItem)
		result = append(result, top.value)

		next := top.elementIdx + 1
		if next < len(sequences[top.sourceIdx]) {
			heap.Push(&h, mergeItem{
				value:      sequences[top.sourceIdx][next],
				sourceIdx:  top.sourceIdx,
				elementIdx: next,
			})
		}
	}
	return result
}
