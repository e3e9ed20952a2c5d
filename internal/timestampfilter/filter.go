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

// Package timestampfilter builds the lazy, per-segment timestamp
// acceptance test the segment collector consults before counting or
// ranking a document.
package timestampfilter

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/naveenann/quickwit/internal/fastfield"
)

// Builder describes which timestamp field, and which inclusive/exclusive
// bound window, a Filter must enforce once a segment is known. It is built
// once per search request and reused across every segment of a split.
type Builder struct {
	TimestampFieldName string
	StartTimestamp     *int64
	EndTimestamp       *int64
}

// New constructs a Builder, or nil when filtering cannot apply: either the
// doc mapper names no timestamp field, or neither bound was requested.
func New(timestampFieldName *string, start, end *int64) *Builder {
	if timestampFieldName == nil {
		return nil
	}
	if start == nil && end == nil {
		return nil
	}
	return &Builder{
		TimestampFieldName: *timestampFieldName,
		StartTimestamp:     start,
		EndTimestamp:       end,
	}
}

// Build resolves the timestamp column on segment and returns a Filter ready
// to test doc ids, or nil (no error) when the field is absent from this
// particular segment — filtering is silently disabled per segment in that
// case, not treated as SegmentIo failure, since the column being named but
// missing on one segment is routine in a rolling schema.
func (b *Builder) Build(segment fastfield.SegmentReader) (*Filter, error) {
	col, _, ok := segment.U64Lenient(b.TimestampFieldName)
	if !ok {
		return nil, nil
	}
	return &Filter{
		column: col,
		start:  b.StartTimestamp,
		end:    b.EndTimestamp,
		maxDoc: segment.MaxDoc(),
	}, nil
}

// Filter is the segment-resolved capability the collector calls on its hot
// path. In the common streaming case each test reads the column and
// compares bounds directly; a caller expecting to test most of a segment
// can materialize the accepted set once via AcceptedSet, after which point
// tests are served from the cached bitmap.
type Filter struct {
	column fastfield.Column
	start  *int64
	end    *int64
	maxDoc uint32

	accepted *roaring.Bitmap
}

// IsWithinRange reports whether docID's timestamp value satisfies the
// configured bound window. A document with no stored value never passes.
func (f *Filter) IsWithinRange(docID uint32) bool {
	if f.accepted != nil {
		return f.accepted.Contains(docID)
	}
	return f.testBounds(docID)
}

func (f *Filter) testBounds(docID uint32) bool {
	val, ok := f.column.First(docID)
	if !ok {
		return false
	}
	ts := int64(val)
	if f.start != nil && ts < *f.start {
		return false
	}
	if f.end != nil && ts >= *f.end {
		return false
	}
	return true
}

// AcceptedSet materializes the full accepted-doc-id bitmap for the
// segment, computing it once and caching it; IsWithinRange answers from
// the cache from then on. Worth it when the caller will test a large share
// of the segment, or wants a set to intersect a candidate bitmap against.
func (f *Filter) AcceptedSet() *roaring.Bitmap {
	if f.accepted != nil {
		return f.accepted
	}
	bm := roaring.New()
	for docID := uint32(0); docID < f.maxDoc; docID++ {
		if f.testBounds(docID) {
			bm.Add(docID)
		}
	}
	f.accepted = bm
	return bm
}
