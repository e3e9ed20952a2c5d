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

// AggregationLimits bounds an aggregation family's per-segment memory and
// bucket usage. It is the same type the aggregation package itself uses,
// re-exported here so callers of this package never need to import
// aggregation just to build one.
type AggregationLimits = aggregation.Limits

// DocMapper is the external collaborator that names a split's timestamp
// field; everything else about document mapping is out of scope here.
type DocMapper interface {
	TimestampFieldName() *string
}

// SearcherConfig carries the searcher-wide knobs used to build
// AggregationLimits. The factory takes a plain config value rather than
// reaching into any live searcher state.
type SearcherConfig struct {
	AggregationMemoryLimitBytes uint64
	AggregationBucketLimit      uint
}

// AggregationLimitsFromConfig builds an AggregationLimits from a
// SearcherConfig.
func AggregationLimitsFromConfig(cfg SearcherConfig) AggregationLimits {
	memLimit := cfg.AggregationMemoryLimitBytes
	bucketLimit := cfg.AggregationBucketLimit
	return AggregationLimits{
		MaxMemoryBytes: &memLimit,
		MaxBucketCount: &bucketLimit,
	}
}

// Collector is the immutable, per-split configuration a search resolves
// to: sort-by, offset, max hits, an optional timestamp window, and an
// optional aggregation spec. It is shared, read-only, across every segment
// of one split.
type Collector struct {
	splitID                string
	startOffset            int
	maxHits                int
	sortBy                 SortBy
	timestampFilterBuilder *timestampfilter.Builder
	aggregation            aggregation.Request
	aggregationLimits      AggregationLimits
}

// SplitID, StartOffset and MaxHits expose the fields the leaf merger and
// callers outside this package need without handing out the whole struct
// for mutation.
func (col *Collector) SplitID() string  { return col.splitID }
func (col *Collector) StartOffset() int { return col.startOffset }
func (col *Collector) MaxHits() int     { return col.maxHits }

// RequiresScoring reports whether segments must compute BM25 scores for
// this collector: true only when sorting by score, so a caller that does
// not need scoring can skip decompressing term frequencies entirely.
func (col *Collector) RequiresScoring() bool {
	return col.sortBy.RequiresScoring()
}

// MakeCollectorForSplit builds the Collector for one split from a search
// request, a doc mapper, and the searcher's aggregation limits. A request
// with no sort_by_field sorts by doc id; the literal "_score" sorts by
// score; anything else names a fast field.
func MakeCollectorForSplit(splitID string, docMapper DocMapper, req *quickwitproto.SearchRequest, limits AggregationLimits) (*Collector, error) {
	aggReq, err := parseAggregationRequest(req)
	if err != nil {
		return nil, err
	}

	filterBuilder := timestampfilter.New(docMapper.TimestampFieldName(), req.StartTimestamp, req.EndTimestamp)

	sortOrder := quickwitproto.SortOrderDesc
	if req.SortOrder != nil {
		sortOrder = quickwitproto.SortOrderFromI32(*req.SortOrder)
	}

	var sortBy SortBy
	switch {
	case req.SortByField == nil:
		sortBy = ByDocID()
	case *req.SortByField == "_score":
		sortBy = ByScore(sortOrder)
	default:
		sortBy = ByFastField(*req.SortByField, sortOrder)
	}

	return &Collector{
		splitID:                splitID,
		startOffset:            int(req.StartOffset),
		maxHits:                int(req.MaxHits),
		sortBy:                 sortBy,
		timestampFilterBuilder: filterBuilder,
		aggregation:            aggReq,
		aggregationLimits:      limits,
	}, nil
}

// MakeMergeCollector builds a merge-only Collector, honoring only
// start_offset, max_hits, aggregation and aggregation_limits. It is used
// at the root, where there is no single split or segment to sort within —
// only a concatenation of already-ranked leaf responses to re-rank.
func MakeMergeCollector(req *quickwitproto.SearchRequest, limits AggregationLimits) (*Collector, error) {
	aggReq, err := parseAggregationRequest(req)
	if err != nil {
		return nil, err
	}
	return &Collector{
		splitID:           "",
		startOffset:       int(req.StartOffset),
		maxHits:           int(req.MaxHits),
		sortBy:            ByDocID(),
		aggregation:       aggReq,
		aggregationLimits: limits,
	}, nil
}

func parseAggregationRequest(req *quickwitproto.SearchRequest) (aggregation.Request, error) {
	if req.AggregationRequest == nil {
		return nil, nil
	}
	return aggregation.ParseRequest(*req.AggregationRequest)
}

// ForSegment resolves this Collector against one segment reader, producing
// a SegmentCollector ready to consume (docID, score) pairs.
func (col *Collector) ForSegment(segmentOrd uint32, segment fastfield.SegmentReader) (*SegmentCollector, error) {
	return col.forSegment(segmentOrd, segment)
}
