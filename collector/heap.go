//  Copyright (c) 2023 The Quickwit Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collector

import "container/heap"

// heapItem is the min-heap element: a ranking key plus just enough
// identity (the doc id) to break ties deterministically.
type heapItem struct {
	sortingFieldValue uint64
	docID             uint32
}

// less orders items for the min-heap: a lower sorting key ranks first (so
// the worst hit sits at the root); on a key tie, the item with the larger
// doc id is considered lesser, so it is the one that bubbles to the root
// and gets evicted first, leaving the smaller-doc-id document behind.
func (a heapItem) less(b heapItem) bool {
	if a.sortingFieldValue != b.sortingFieldValue {
		return a.sortingFieldValue < b.sortingFieldValue
	}
	return a.docID > b.docID
}

// segmentHeap is a container/heap.Interface min-heap of heapItem: a plain
// slice wrapped by the four heap.Interface methods. Collect runs on a
// single goroutine per segment, so no synchronization is needed here.
type segmentHeap struct {
	items []heapItem
}

func newSegmentHeap(capacity int) *segmentHeap {
	return &segmentHeap{items: make([]heapItem, 0, capacity)}
}

func (h *segmentHeap) Len() int { return len(h.items) }

func (h *segmentHeap) Less(i, j int) bool { return h.items[i].less(h.items[j]) }

func (h *segmentHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *segmentHeap) Push(x any) {
	h.items = append(h.items, x.(heapItem))
}

func (h *segmentHeap) Pop() any {
	n := len(h.items)
	item := h.items[n-1]
	h.items = h.items[:n-1]
	return item
}

// pushOrReplace is the top-K insertion policy: push while under capacity;
// once at capacity, mutate the root in place and re-sift rather than
// pop+push when the new key beats the current minimum, and discard the
// document otherwise. A key-equal newcomer is discarded too: it always
// carries a larger doc id than the incumbent, and ties keep the smaller.
func (h *segmentHeap) pushOrReplace(item heapItem, capacity int) {
	if h.Len() < capacity {
		heap.Push(h, item)
		return
	}
	if h.Len() == 0 {
		return
	}
	min := h.items[0]
	if item.sortingFieldValue > min.sortingFieldValue {
		h.items[0] = item
		heap.Fix(h, 0)
	}
}

// drainSortedDescending empties the heap and returns its contents ordered
// best-first (descending sorting key, ascending doc id on ties), which is
// the order Harvest hands PartialHits back in.
func (h *segmentHeap) drainSortedDescending() []heapItem {
	n := h.Len()
	out := make([]heapItem, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(heapItem)
	}
	return out
}
