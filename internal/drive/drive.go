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

// Package drive schedules a split's segments against a collector: one
// goroutine per segment feeds a collector.SegmentCollector, then the leaf
// merger folds the harvested fruits into one response. It lives outside
// the collector package boundary on purpose — the collector itself is
// single-threaded and knows nothing about how its callers fan out.
package drive

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/naveenann/quickwit/collector"
	"github.com/naveenann/quickwit/internal/fastfield"
	"github.com/naveenann/quickwit/quickwitproto"
)

// SegmentSource is one segment's worth of matching documents, in the order
// a query's own scorer produced them. Next returns ok=false once exhausted.
type SegmentSource interface {
	SegmentOrd() uint32
	Segment() fastfield.SegmentReader
	Next(ctx context.Context) (docID uint32, score float32, ok bool, err error)
}

// SearchSplit drives one split's segments concurrently against col, then
// merges their harvested fruits into a single leaf response. A failing
// segment does not fail the split: its error is logged and recorded in the
// response's FailedSplits, and the surviving segments still contribute
// their hits.
func SearchSplit(ctx context.Context, col *collector.Collector, sources []SegmentSource) (quickwitproto.LeafSearchResponse, error) {
	fruits := make([]collector.SegmentFruit, len(sources))

	group, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		group.Go(func() error {
			segCollector, err := col.ForSegment(src.SegmentOrd(), src.Segment())
			if err != nil {
				fruits[i] = failedSegmentFruit(col.SplitID(), src.SegmentOrd(), err)
				return nil
			}

			for {
				docID, score, ok, err := src.Next(gctx)
				if err != nil {
					fruits[i] = failedSegmentFruit(col.SplitID(), src.SegmentOrd(), err)
					return nil
				}
				if !ok {
					break
				}
				segCollector.Collect(docID, score)
			}

			harvested, err := segCollector.Harvest()
			if err != nil {
				fruits[i] = failedSegmentFruit(col.SplitID(), src.SegmentOrd(), err)
				return nil
			}
			fruits[i] = collector.SegmentFruit{Response: harvested}
			return nil
		})
	}
	_ = group.Wait()

	return col.Merge(fruits)
}

// failedSegmentFruit downgrades a segment failure to a partial result: the
// error cannot travel up this goroutine's synchronous call chain, so it is
// logged here and recorded against the split for the merged response.
func failedSegmentFruit(splitID string, segmentOrd uint32, err error) collector.SegmentFruit {
	log.Printf("segment %d of split %s failed: %s", segmentOrd, splitID, err.Error())
	return collector.SegmentFruit{Response: quickwitproto.LeafSearchResponse{
		FailedSplits:       []quickwitproto.SplitError{{SplitID: splitID, Error: err.Error()}},
		NumAttemptedSplits: 1,
	}}
}
