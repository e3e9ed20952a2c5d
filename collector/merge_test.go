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

import (
	"errors"
	"testing"

	"github.com/naveenann/quickwit/quickwitproto"
)

func newMergeOnlyCollector(t *testing.T, startOffset, maxHits int) *Collector {
	t.Helper()
	order := int32(quickwitproto.SortOrderDesc)
	req := &quickwitproto.SearchRequest{
		StartOffset: uint32(startOffset),
		MaxHits:     uint32(maxHits),
		SortOrder:   &order,
	}
	col, err := MakeMergeCollector(req, AggregationLimits{})
	if err != nil {
		t.Fatal(err)
	}
	return col
}

func TestMergeIdempotenceOnSingleton(t *testing.T) {
	col := newMergeOnlyCollector(t, 0, 10)
	response := quickwitproto.LeafSearchResponse{
		NumHits: 3,
		PartialHits: []quickwitproto.PartialHit{
			{SortingFieldValue: 1, DocID: 1, SplitID: "s"},
		},
	}
	merged, err := col.Merge([]SegmentFruit{{Response: response}})
	if err != nil {
		t.Fatal(err)
	}
	if merged.NumHits != response.NumHits || len(merged.PartialHits) != len(response.PartialHits) {
		t.Fatalf("expected singleton merge to be unchanged, got %+v", merged)
	}
}

func TestMergePropagatesFirstError(t *testing.T) {
	col := newMergeOnlyCollector(t, 0, 10)
	wantErr := errors.New("boom")
	_, err := col.Merge([]SegmentFruit{
		{Response: quickwitproto.LeafSearchResponse{}},
		{Err: wantErr},
	})
	if err != wantErr {
		t.Fatalf("expected propagated error %v, got %v", wantErr, err)
	}
}

// With max_hits=2 and three key-equal hits from splits split_1, split_3
// and split_2, the merge keeps split_1 and split_2: on equal keys the
// split id breaks the tie, ascending.
func TestMergeTieBreakBySplitID(t *testing.T) {
	col := newMergeOnlyCollector(t, 0, 2)
	fruits := []SegmentFruit{
		{Response: quickwitproto.LeafSearchResponse{NumHits: 1, PartialHits: []quickwitproto.PartialHit{{SortingFieldValue: 0, DocID: 0, SplitID: "split_1"}}}},
		{Response: quickwitproto.LeafSearchResponse{NumHits: 1, PartialHits: []quickwitproto.PartialHit{{SortingFieldValue: 0, DocID: 0, SplitID: "split_3"}}}},
		{Response: quickwitproto.LeafSearchResponse{NumHits: 1, PartialHits: []quickwitproto.PartialHit{{SortingFieldValue: 0, DocID: 0, SplitID: "split_2"}}}},
	}
	merged, err := col.Merge(fruits)
	if err != nil {
		t.Fatal(err)
	}
	if merged.NumHits != 3 {
		t.Fatalf("expected num_hits=3, got %d", merged.NumHits)
	}
	if len(merged.PartialHits) != 2 {
		t.Fatalf("expected 2 partial hits, got %d", len(merged.PartialHits))
	}
	if merged.PartialHits[0].SplitID != "split_1" || merged.PartialHits[1].SplitID != "split_2" {
		t.Fatalf("expected [split_1, split_2], got [%s, %s]", merged.PartialHits[0].SplitID, merged.PartialHits[1].SplitID)
	}
}

// With start_offset=2 and max_hits=2, five fruits holding one hit each at
// keys [5,4,3,2,1] merge to the page [3,2]: top-4 minus the two skipped.
func TestMergeOffsetDrop(t *testing.T) {
	col := newMergeOnlyCollector(t, 2, 2)
	var fruits []SegmentFruit
	for i, key := range []uint64{5, 4, 3, 2, 1} {
		fruits = append(fruits, SegmentFruit{Response: quickwitproto.LeafSearchResponse{
			NumHits:     1,
			PartialHits: []quickwitproto.PartialHit{{SortingFieldValue: key, DocID: uint32(i)}},
		}})
	}
	merged, err := col.Merge(fruits)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.PartialHits) != 2 {
		t.Fatalf("expected 2 partial hits, got %d", len(merged.PartialHits))
	}
	if merged.PartialHits[0].SortingFieldValue != 3 || merged.PartialHits[1].SortingFieldValue != 2 {
		t.Fatalf("expected keys [3,2], got %+v", merged.PartialHits)
	}
}

// The merge result does not depend on the order fruits are handed in: the
// composite sort makes the surviving hits and their order deterministic.
func TestMergeDeterministicAcrossFruitPermutations(t *testing.T) {
	hits := []quickwitproto.PartialHit{
		{SortingFieldValue: 7, DocID: 3, SplitID: "a"},
		{SortingFieldValue: 7, DocID: 1, SplitID: "b"},
		{SortingFieldValue: 7, DocID: 2, SplitID: "a"},
		{SortingFieldValue: 9, DocID: 5, SplitID: "c"},
	}
	perms := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}}
	var first []quickwitproto.PartialHit
	for _, perm := range perms {
		col := newMergeOnlyCollector(t, 0, 3)
		fruits := make([]SegmentFruit, 0, len(perm))
		for _, idx := range perm {
			fruits = append(fruits, SegmentFruit{Response: quickwitproto.LeafSearchResponse{
				NumHits:     1,
				PartialHits: []quickwitproto.PartialHit{hits[idx]},
			}})
		}
		merged, err := col.Merge(fruits)
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = merged.PartialHits
			continue
		}
		if len(merged.PartialHits) != len(first) {
			t.Fatalf("permutation %v: hit count differs", perm)
		}
		for i := range first {
			if merged.PartialHits[i] != first[i] {
				t.Fatalf("permutation %v: position %d differs: %+v vs %+v", perm, i, merged.PartialHits[i], first[i])
			}
		}
	}
	if first[0].SortingFieldValue != 9 || first[1].SplitID != "a" || first[1].DocID != 2 {
		t.Fatalf("unexpected canonical order: %+v", first)
	}
}

// Merged partial hits are the top-K over the union of all inputs, ordered
// by (key desc, split_id asc, segment_ord asc, doc_id asc).
func TestMergerTotality(t *testing.T) {
	col := newMergeOnlyCollector(t, 0, 3)
	fruits := []SegmentFruit{
		{Response: quickwitproto.LeafSearchResponse{PartialHits: []quickwitproto.PartialHit{
			{SortingFieldValue: 10, DocID: 1},
			{SortingFieldValue: 1, DocID: 2},
		}}},
		{Response: quickwitproto.LeafSearchResponse{PartialHits: []quickwitproto.PartialHit{
			{SortingFieldValue: 5, DocID: 3},
			{SortingFieldValue: 20, DocID: 4},
		}}},
	}
	merged, err := col.Merge(fruits)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{20, 10, 5}
	if len(merged.PartialHits) != len(want) {
		t.Fatalf("expected %d hits, got %d", len(want), len(merged.PartialHits))
	}
	for i, w := range want {
		if merged.PartialHits[i].SortingFieldValue != w {
			t.Fatalf("position %d: want key %d, got %d", i, w, merged.PartialHits[i].SortingFieldValue)
		}
	}
}
