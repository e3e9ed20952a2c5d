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
	"math"
	"sort"

	"github.com/naveenann/quickwit/quickwitproto"
)

// SegmentFruit pairs a segment (or split) harvest with whatever error it
// produced: exactly one of the two fields is meaningful.
type SegmentFruit struct {
	Response quickwitproto.LeafSearchResponse
	Err      error
}

// Merge is the leaf merger: it folds a set of segment (or split) fruits
// into one leaf response, re-running top-K over the concatenated partial
// hits, summing counters, concatenating failures, and merging aggregation
// intermediates. If any input fruit carries an error, that first error is
// returned instead. Merge is pure CPU and memory and is not itself
// concurrent.
func (col *Collector) Merge(fruits []SegmentFruit) (quickwitproto.LeafSearchResponse, error) {
	responses := make([]quickwitproto.LeafSearchResponse, 0, len(fruits))
	for _, fruit := range fruits {
		if fruit.Err != nil {
			return quickwitproto.LeafSearchResponse{}, fruit.Err
		}
		responses = append(responses, fruit.Response)
	}

	// We want the hits in [start_offset..start_offset+max_hits). Every
	// segment returns its top [0..start_offset+max_hits) documents, so we first compute
	// the overall [0..start_offset+max_hits) documents...
	k := col.startOffset + col.maxHits
	merged, err := col.mergeLeafResponses(responses, k)
	if err != nil {
		return quickwitproto.LeafSearchResponse{}, err
	}

	// ...then drop the leading start_offset hits.
	drop := col.startOffset
	if drop > len(merged.PartialHits) {
		drop = len(merged.PartialHits)
	}
	merged.PartialHits = merged.PartialHits[drop:]
	return merged, nil
}

// mergeLeafResponses is the pure merge step, parameterized by the target
// hit count k, so both MakeCollectorForSplit's per-split use (k =
// start_offset+max_hits) and an eventual root-level merge of leaf
// responses can share it.
func (col *Collector) mergeLeafResponses(responses []quickwitproto.LeafSearchResponse, k int) (quickwitproto.LeafSearchResponse, error) {
	// Optimization: no merging needed if there is only one result. Merge
	// still applies the start_offset drop afterward regardless.
	if len(responses) == 1 {
		return responses[0], nil
	}

	var mergedAggregation []byte
	if col.aggregation != nil {
		serializedIntermediates := make([][]byte, 0, len(responses))
		for _, r := range responses {
			if r.IntermediateAggregationResult != nil {
				serializedIntermediates = append(serializedIntermediates, r.IntermediateAggregationResult)
			}
		}
		if len(serializedIntermediates) > 0 {
			merged, err := col.aggregation.Merge(serializedIntermediates)
			if err != nil {
				return quickwitproto.LeafSearchResponse{}, err
			}
			mergedAggregation = merged
		}
	}

	var numHits, numAttemptedSplits uint64
	var failedSplits []quickwitproto.SplitError
	var allPartialHits []quickwitproto.PartialHit
	for _, r := range responses {
		numHits += r.NumHits
		numAttemptedSplits += r.NumAttemptedSplits
		failedSplits = append(failedSplits, r.FailedSplits...)
		allPartialHits = append(allPartialHits, r.PartialHits...)
	}

	return quickwitproto.LeafSearchResponse{
		IntermediateAggregationResult: mergedAggregation,
		NumHits:                       numHits,
		PartialHits:                   topKPartialHits(allPartialHits, k),
		FailedSplits:                  failedSplits,
		NumAttemptedSplits:            numAttemptedSplits,
	}, nil
}

// topKPartialHits sorts hits ascending by the composite key
// (MaxUint64 - sorting_field_value, split_id, segment_ord, doc_id) and
// truncates to k. Inverting the ranking key turns "best first" into
// "smallest first", so a plain ascending sort yields a total order that is
// deterministic across the whole cluster.
func topKPartialHits(hits []quickwitproto.PartialHit, k int) []quickwitproto.PartialHit {
	sort.Slice(hits, func(i, j int) bool {
		return partialHitLess(hits[i], hits[j])
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

func partialHitLess(a, b quickwitproto.PartialHit) bool {
	ka := math.MaxUint64 - a.SortingFieldValue
	kb := math.MaxUint64 - b.SortingFieldValue
	if ka != kb {
		return ka < kb
	}
	if a.SplitID != b.SplitID {
		return a.SplitID < b.SplitID
	}
	if a.SegmentOrd != b.SegmentOrd {
		return a.SegmentOrd < b.SegmentOrd
	}
	return a.DocID < b.DocID
}
