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

// Package quickwitproto holds the small set of wire types the leaf search
// collector consumes and produces: a search request, a sort order, and the
// partial-hit / leaf-response pair a collector harvest and merge produce.
// These stand in for the generated protobuf types a full deployment would
// carry; no transport is wired here.
package quickwitproto

// SortOrder mirrors a signed 32-bit protobuf enum tag. Desc is 1 and is the
// default whenever a request carries no order or an order this build does
// not recognize.
type SortOrder int32

const (
	SortOrderAsc  SortOrder = 0
	SortOrderDesc SortOrder = 1
)

// SortOrderFromI32 maps a raw wire tag to a SortOrder, defaulting to Desc on
// any value outside {0,1}. This matches the "unknown sort order defaults to
// Desc" rule callers must not special-case elsewhere.
func SortOrderFromI32(tag int32) SortOrder {
	if tag == int32(SortOrderAsc) {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// SearchRequest is the subset of the root search request the collector
// factory reads. Query parsing, field validation and everything else that
// shapes the actual match stream lives outside this module.
type SearchRequest struct {
	StartOffset        uint32
	MaxHits            uint32
	SortOrder          *int32
	SortByField        *string
	StartTimestamp     *int64
	EndTimestamp       *int64
	AggregationRequest *string
}

// PartialHit is a ranked reference sufficient for a root node to later fetch
// the full document: the encoded ranking key plus enough coordinates
// (split, segment, doc) to locate it.
type PartialHit struct {
	SortingFieldValue uint64
	DocID             uint32
	SegmentOrd        uint32
	SplitID           string
}

// SplitError records a split that failed during the leaf search, attributed
// by split id with a human-readable cause.
type SplitError struct {
	SplitID string
	Error   string
}

// LeafSearchResponse is the result of searching one split: a bounded,
// ordered set of partial hits, the accurate hit count, failures, and an
// opaque aggregation payload the caller must not interpret.
type LeafSearchResponse struct {
	NumHits                       uint64
	PartialHits                   []PartialHit
	IntermediateAggregationResult []byte
	FailedSplits                  []SplitError
	NumAttemptedSplits            uint64
}
