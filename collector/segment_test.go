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
	"testing"

	"github.com/naveenann/quickwit/internal/memsegment"
	"github.com/naveenann/quickwit/quickwitproto"
)

type noTimestampField struct{}

func (noTimestampField) TimestampFieldName() *string { return nil }

// An ascending fast-field sort over values [10, 5, 7] must yield 5 first,
// then 7, then 10; internally the keys are MaxUint64 minus the value.
func TestSegmentCollectorAscendingSort(t *testing.T) {
	seg := memsegment.New(3)
	values := []uint64{10, 5, 7}
	for docID, v := range values {
		seg.SetU64("value", 0, uint32(docID), v)
	}

	order := int32(quickwitproto.SortOrderAsc)
	field := "value"
	req := &quickwitproto.SearchRequest{MaxHits: 10, SortOrder: &order, SortByField: &field}
	col, err := MakeCollectorForSplit("split-1", noTimestampField{}, req, AggregationLimits{})
	if err != nil {
		t.Fatal(err)
	}

	segCollector, err := col.ForSegment(0, seg)
	if err != nil {
		t.Fatal(err)
	}
	for docID, v := range values {
		segCollector.Collect(uint32(docID), float32(v))
	}

	harvested, err := segCollector.Harvest()
	if err != nil {
		t.Fatal(err)
	}
	if len(harvested.PartialHits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(harvested.PartialHits))
	}
	column, _, _ := seg.U64Lenient("value")
	gotValues := []uint64{}
	for _, hit := range harvested.PartialHits {
		val, _ := column.First(hit.DocID)
		gotValues = append(gotValues, val)
	}
	want := []uint64{5, 7, 10}
	for i, v := range want {
		if gotValues[i] != v {
			t.Fatalf("position %d: want %d, got %d (full: %v)", i, v, gotValues[i], gotValues)
		}
	}
}

func TestSegmentCollectorHitCount(t *testing.T) {
	seg := memsegment.New(5)
	req := &quickwitproto.SearchRequest{MaxHits: 2}
	col, err := MakeCollectorForSplit("split-1", noTimestampField{}, req, AggregationLimits{})
	if err != nil {
		t.Fatal(err)
	}
	segCollector, err := col.ForSegment(0, seg)
	if err != nil {
		t.Fatal(err)
	}
	for docID := uint32(0); docID < 5; docID++ {
		segCollector.Collect(docID, 0)
	}
	harvested, err := segCollector.Harvest()
	if err != nil {
		t.Fatal(err)
	}
	if harvested.NumHits != 5 {
		t.Fatalf("expected num_hits=5, got %d", harvested.NumHits)
	}
	if len(harvested.PartialHits) != 2 {
		t.Fatalf("expected 2 partial hits (max_hits=2), got %d", len(harvested.PartialHits))
	}
}
