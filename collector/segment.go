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
	"github.com/naveenann/quickwit/aggregation"
	"github.com/naveenann/quickwit/internal/fastfield"
	"github.com/naveenann/quickwit/internal/timestampfilter"
	"github.com/naveenann/quickwit/quickwitproto"
)

// SegmentCollector is the per-segment streaming consumer: it is
// constructed once per segment, fed (docID, score) pairs in document order
// on a single goroutine, and harvested exactly once. It is not safe to
// share across goroutines or to reuse after Harvest.
type SegmentCollector struct {
	splitID    string
	segmentOrd uint32
	maxHits    int // start_offset + max_hits for this split, the heap capacity

	sortBy          sortFieldComputer
	heap            *segmentHeap
	timestampFilter *timestampfilter.Filter
	agg             aggregation.SegmentCollector

	numHits uint64
}

// Collect consumes one matching document: timestamp-filter, count, rank,
// and forward to the aggregation sub-collector, in that order. A document
// the filter rejects is not counted, not ranked and not aggregated. This
// is the hot synchronous path; it never blocks, and the top-K heap never
// grows beyond its reserved capacity (an aggregation sub-collector may
// still allocate as it admits new buckets).
func (c *SegmentCollector) Collect(docID uint32, score float32) {
	if c.timestampFilter != nil && !c.timestampFilter.IsWithinRange(docID) {
		return
	}
	c.numHits++
	key := c.sortBy.computeSortingField(docID, score)
	c.heap.pushOrReplace(heapItem{sortingFieldValue: key, docID: docID}, c.maxHits)
	if c.agg != nil {
		c.agg.Collect(docID, score)
	}
}

// Harvest drains the heap in descending key order as PartialHits, carries
// the hit count, and serializes the aggregation intermediate if one is
// installed. FailedSplits is always empty and NumAttemptedSplits is always
// 1 at this level — the leaf merger is the one that accumulates those
// across segments and splits.
func (c *SegmentCollector) Harvest() (quickwitproto.LeafSearchResponse, error) {
	items := c.heap.drainSortedDescending()
	partialHits := make([]quickwitproto.PartialHit, len(items))
	for i, item := range items {
		partialHits[i] = quickwitproto.PartialHit{
			SortingFieldValue: item.sortingFieldValue,
			DocID:             item.docID,
			SegmentOrd:        c.segmentOrd,
			SplitID:           c.splitID,
		}
	}

	var intermediate []byte
	if c.agg != nil {
		serialized, err := c.agg.Harvest()
		if err != nil {
			return quickwitproto.LeafSearchResponse{}, err
		}
		intermediate = serialized
	}

	return quickwitproto.LeafSearchResponse{
		NumHits:                       c.numHits,
		PartialHits:                   partialHits,
		IntermediateAggregationResult: intermediate,
		FailedSplits:                  nil,
		NumAttemptedSplits:            1,
	}, nil
}

// forSegment resolves a Collector configuration against one segment,
// building the sort-field computer, the optional timestamp filter, and the
// optional aggregation sub-collector. This is the sole step that may touch
// segment I/O before collection starts; its failures are SegmentIo.
func (col *Collector) forSegment(segmentOrd uint32, segment fastfield.SegmentReader) (*SegmentCollector, error) {
	sortBy, err := resolveSortBy(col.sortBy, segment)
	if err != nil {
		return nil, segmentIOf(err, "resolve sort field for segment %d", segmentOrd)
	}

	leafMaxHits := col.maxHits + col.startOffset

	var filter *timestampfilter.Filter
	if col.timestampFilterBuilder != nil {
		filter, err = col.timestampFilterBuilder.Build(segment)
		if err != nil {
			return nil, segmentIOf(err, "build timestamp filter for segment %d", segmentOrd)
		}
	}

	var aggCollector aggregation.SegmentCollector
	if col.aggregation != nil {
		aggCollector, err = col.aggregation.ForSegment(segmentOrd, segment, col.aggregationLimits)
		if err != nil {
			return nil, segmentIOf(err, "build aggregation collector for segment %d", segmentOrd)
		}
	}

	return &SegmentCollector{
		splitID:         col.splitID,
		segmentOrd:      segmentOrd,
		maxHits:         leafMaxHits,
		sortBy:          sortBy,
		heap:            newSegmentHeap(leafMaxHits),
		timestampFilter: filter,
		agg:             aggCollector,
	}, nil
}
