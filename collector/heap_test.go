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

import "testing"

// Given A={key=1,doc=1} and B={key=2,doc=1}, A is the min in the min-heap
// (A.less(B) is true), so A is the first eviction candidate.
func TestHeapItemComparator(t *testing.T) {
	a := heapItem{sortingFieldValue: 1, docID: 1}
	b := heapItem{sortingFieldValue: 2, docID: 1}
	if !a.less(b) {
		t.Fatalf("expected A to be less than B (A sits at the heap root)")
	}
	if b.less(a) {
		t.Fatalf("expected B not to be less than A")
	}
}

func TestHeapItemTieBreakByDocID(t *testing.T) {
	smallDoc := heapItem{sortingFieldValue: 5, docID: 1}
	bigDoc := heapItem{sortingFieldValue: 5, docID: 9}
	if !bigDoc.less(smallDoc) {
		t.Fatalf("on a key tie, the larger doc id must be considered lesser (evicted first)")
	}
	if smallDoc.less(bigDoc) {
		t.Fatalf("the smaller doc id must not be considered lesser")
	}
}

// After any prefix of insertions, heap size never exceeds capacity.
func TestHeapCapacity(t *testing.T) {
	h := newSegmentHeap(3)
	for i := uint32(0); i < 20; i++ {
		h.pushOrReplace(heapItem{sortingFieldValue: uint64(i), docID: i}, 3)
		if h.Len() > 3 {
			t.Fatalf("heap exceeded capacity: len=%d after %d pushes", h.Len(), i+1)
		}
	}
}

func TestHeapDrainSortedDescendingKeepsTopK(t *testing.T) {
	h := newSegmentHeap(2)
	for _, v := range []uint64{1, 3, 2} {
		h.pushOrReplace(heapItem{sortingFieldValue: v, docID: uint32(v)}, 2)
	}
	items := h.drainSortedDescending()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].sortingFieldValue != 3 || items[1].sortingFieldValue != 2 {
		t.Fatalf("expected [3,2], got %+v", items)
	}
}

// Key-equal documents arrive in doc-id order (the Collect contract), and a
// key-equal newcomer never displaces an incumbent, so the survivors are
// always the smallest doc ids.
func TestHeapKeepsSmallestDocIDsOnKeyTies(t *testing.T) {
	h := newSegmentHeap(2)
	for _, docID := range []uint32{1, 2, 4, 5, 7} {
		h.pushOrReplace(heapItem{sortingFieldValue: 42, docID: docID}, 2)
	}
	items := h.drainSortedDescending()
	if len(items) != 2 || items[0].docID != 1 || items[1].docID != 2 {
		t.Fatalf("expected survivors [doc 1, doc 2], got %+v", items)
	}
}

// Sorting by doc id with capacity 2, feeding doc-ids [1,3,2] keeps
// [doc 3, doc 2].
func TestHeapTopKByDocID(t *testing.T) {
	h := newSegmentHeap(2)
	for _, docID := range []uint32{1, 3, 2} {
		h.pushOrReplace(heapItem{sortingFieldValue: uint64(docID), docID: docID}, 2)
	}
	items := h.drainSortedDescending()
	if len(items) != 2 || items[0].docID != 3 || items[1].docID != 2 {
		t.Fatalf("expected [doc3, doc2], got %+v", items)
	}
}
