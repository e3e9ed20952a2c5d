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

	"github.com/naveenann/quickwit/internal/fastfield"
	"github.com/naveenann/quickwit/quickwitproto"
)

// SortBy is the user-facing, segment-agnostic ranking criterion requested
// by a search: by doc id, by a named fast field, or by score.
type SortBy struct {
	mode      sortMode
	fieldName string
	order     quickwitproto.SortOrder
}

type sortMode int

const (
	sortByDocID sortMode = iota
	sortByFastField
	sortByScore
)

// ByDocID sorts by doc id, larger doc ids ranking higher.
func ByDocID() SortBy { return SortBy{mode: sortByDocID} }

// ByFastField sorts by the named u64-valued fast field.
func ByFastField(fieldName string, order quickwitproto.SortOrder) SortBy {
	return SortBy{mode: sortByFastField, fieldName: fieldName, order: order}
}

// ByScore sorts by the query's relevance score.
func ByScore(order quickwitproto.SortOrder) SortBy {
	return SortBy{mode: sortByScore, order: order}
}

// FieldName returns the fast-field name this SortBy reads, and whether it
// reads one at all (DocId and Score do not).
func (s SortBy) FieldName() (string, bool) {
	if s.mode != sortByFastField {
		return "", false
	}
	return s.fieldName, true
}

// RequiresScoring reports whether this SortBy needs BM25 scoring computed,
// true only when sorting by score.
func (s SortBy) RequiresScoring() bool {
	return s.mode == sortByScore
}

// sortFieldComputer is SortBy specialized to one segment: a resolved fast
// field column rather than just a name, so the hot collect loop never does
// a column lookup per document.
type sortFieldComputer struct {
	mode   sortMode
	column fastfield.Column
	order  quickwitproto.SortOrder
}

// resolveSortBy resolves sortBy against segment, substituting an empty
// column when the named fast field cannot be found: a missing column is not
// an error, it just ranks every document with key 0. The only error path is
// an unknown sort mode; U64Lenient itself reports no errors.
func resolveSortBy(sortBy SortBy, segment fastfield.SegmentReader) (sortFieldComputer, error) {
	switch sortBy.mode {
	case sortByDocID:
		return sortFieldComputer{mode: sortByDocID}, nil
	case sortByScore:
		return sortFieldComputer{mode: sortByScore, order: sortBy.order}, nil
	case sortByFastField:
		col, _, ok := segment.U64Lenient(sortBy.fieldName)
		if !ok {
			col = fastfield.NewEmptyColumn(segment.MaxDoc())
		}
		return sortFieldComputer{mode: sortByFastField, column: col, order: sortBy.order}, nil
	default:
		return sortFieldComputer{}, invalidArgumentf(nil, "unknown sort mode %d", sortBy.mode)
	}
}

// computeSortingField produces the u64 ranking key for (docID, score) such
// that ascending numeric order of the key equals descending user
// preference: the largest key is always the best hit, so a single min-heap
// and comparator serve every sort mode.
func (c sortFieldComputer) computeSortingField(docID uint32, score float32) uint64 {
	switch c.mode {
	case sortByDocID:
		return uint64(docID)
	case sortByFastField:
		val, ok := c.column.First(docID)
		if !ok {
			return 0
		}
		if c.order == quickwitproto.SortOrderAsc {
			return math.MaxUint64 - val
		}
		return val
	case sortByScore:
		key := f32ToU64(score)
		if c.order == quickwitproto.SortOrderAsc {
			return math.MaxUint64 - key
		}
		return key
	default:
		return 0
	}
}

// f32ToU64 converts an IEEE-754 float32 to a u64 while preserving order:
// for any non-NaN, non-negative-zero a, b, a < b iff f32ToU64(a) <
// f32ToU64(b). See
// https://lemire.me/blog/2020/12/14/converting-floating-point-numbers-to-integers-while-preserving-order/
func f32ToU64(value float32) uint64 {
	bits := math.Float32bits(value)
	mask := uint32(int32(bits) >> 31)
	mask |= 0x80000000
	return uint64(bits ^ mask)
}
