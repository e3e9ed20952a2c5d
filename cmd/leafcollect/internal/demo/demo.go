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

// Package demo wires the collector core and internal/drive together against
// a synthetic in-memory segment, for the leafcollect example binary.
package demo

import (
	"context"
	"fmt"
	"strings"

	"github.com/naveenann/quickwit/collector"
	"github.com/naveenann/quickwit/internal/drive"
	"github.com/naveenann/quickwit/internal/fastfield"
	"github.com/naveenann/quickwit/internal/memsegment"
	"github.com/naveenann/quickwit/quickwitproto"
)

// Options configures one demo run.
type Options struct {
	NumDocs     int
	MaxHits     int
	StartOffset int
	SortField   string
	Descending  bool
}

type noTimestampField struct{}

func (noTimestampField) TimestampFieldName() *string { return nil }

// segmentSource replays a fixed, deterministic stream of (docID, score)
// pairs plus a matching "value" fast field, standing in for a real query's
// scorer and segment.
type segmentSource struct {
	segment *memsegment.Segment
	docs    int
	next    uint32
}

func (s *segmentSource) SegmentOrd() uint32               { return 0 }
func (s *segmentSource) Segment() fastfield.SegmentReader { return s.segment }
func (s *segmentSource) Next(context.Context) (uint32, float32, bool, error) {
	if int(s.next) >= s.docs {
		return 0, 0, false, nil
	}
	docID := s.next
	s.next++
	score := float32(s.docs-int(docID)) * 0.5
	return docID, score, true, nil
}

// Run builds a synthetic segment of opts.NumDocs documents, each carrying a
// "value" fast field of (docID*7)%100, searches it per opts, and returns a
// human-readable summary of the ranked hits.
func Run(opts Options) (string, error) {
	segment := memsegment.New(uint32(opts.NumDocs))
	for docID := 0; docID < opts.NumDocs; docID++ {
		value := uint64((docID * 7) % 100)
		segment.SetU64("value", fastfield.ColumnTypeU64, uint32(docID), value)
	}

	sortOrder := int32(quickwitproto.SortOrderDesc)
	if !opts.Descending {
		sortOrder = int32(quickwitproto.SortOrderAsc)
	}

	req := &quickwitproto.SearchRequest{
		StartOffset: uint32(opts.StartOffset),
		MaxHits:     uint32(opts.MaxHits),
		SortOrder:   &sortOrder,
	}
	switch opts.SortField {
	case "", "docid":
		// leave SortByField nil: sort by doc id.
	case "score":
		field := "_score"
		req.SortByField = &field
	default:
		req.SortByField = &opts.SortField
	}

	limits := collector.AggregationLimitsFromConfig(collector.SearcherConfig{
		AggregationMemoryLimitBytes: 64 << 20,
		AggregationBucketLimit:      10_000,
	})

	col, err := collector.MakeCollectorForSplit("demo-split", noTimestampField{}, req, limits)
	if err != nil {
		return "", err
	}

	source := &segmentSource{segment: segment, docs: opts.NumDocs}
	response, err := drive.SearchSplit(context.Background(), col, []drive.SegmentSource{source})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "num_hits=%d\n", response.NumHits)
	for _, hit := range response.PartialHits {
		fmt.Fprintf(&b, "  doc=%d key=%d\n", hit.DocID, hit.SortingFieldValue)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
