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

// Package fastfield models the columnar, per-document value store the
// collector reads sort keys and aggregation inputs from. The concrete
// on-disk column format lives with the index; this package only defines
// the read contract plus the "absent field" fallback.
package fastfield

import "github.com/bits-and-blooms/bitset"

// Column is the read side of a single fast field: O(1) lookup of the first
// value stored for a doc id, with an explicit "no value" result rather than
// a zero value standing in for absence.
type Column interface {
	// First returns the value stored for docID and true, or (0, false) if
	// the column carries no value for that document.
	First(docID uint32) (uint64, bool)
}

// emptyColumn is the column substituted whenever a named fast field cannot
// be resolved on a segment. It never yields a value for any doc id, which
// is exactly what makes the sort-key encoder fall back to key 0 for that
// document: a missing column is not an error.
type emptyColumn struct {
	maxDoc uint32
}

// NewEmptyColumn builds a column sized to maxDoc that yields no value for
// any doc id. The size is recorded on the column but lookups never use it,
// and no method exposes it.
func NewEmptyColumn(maxDoc uint32) Column {
	return emptyColumn{maxDoc: maxDoc}
}

func (emptyColumn) First(uint32) (uint64, bool) {
	return 0, false
}

// DenseColumn is a concrete, in-memory Column backed by a bitset of
// "has value" flags plus a values slice, for segments small enough that a
// full materialized column is cheaper than decoding on demand. The bitset
// keeps presence tracking compact without roaring's block overhead, which
// only pays for itself on sparse, large doc-id ranges (see
// internal/timestampfilter, which does carry that overhead deliberately).
type DenseColumn struct {
	present *bitset.BitSet
	values  []uint64
}

// NewDenseColumn builds a DenseColumn over maxDoc documents. Values for doc
// ids never set via Set read back as absent.
func NewDenseColumn(maxDoc uint32) *DenseColumn {
	return &DenseColumn{
		present: bitset.New(uint(maxDoc)),
		values:  make([]uint64, maxDoc),
	}
}

// Set records the value for docID.
func (c *DenseColumn) Set(docID uint32, value uint64) {
	if uint(docID) >= c.present.Len() {
		grown := bitset.New(uint(docID) + 1)
		grown.InPlaceUnion(c.present)
		c.present = grown
		values := make([]uint64, docID+1)
		copy(values, c.values)
		c.values = values
	}
	c.present.Set(uint(docID))
	c.values[docID] = value
}

// First implements Column.
func (c *DenseColumn) First(docID uint32) (uint64, bool) {
	if uint(docID) >= c.present.Len() || !c.present.Test(uint(docID)) {
		return 0, false
	}
	return c.values[docID], true
}

// ColumnType enumerates the fast-field value encodings a segment may
// expose for a given name; U64Lenient coerces any of these down to a
// u64-valued Column.
type ColumnType int

const (
	ColumnTypeU64 ColumnType = iota
	ColumnTypeI64
	ColumnTypeF64
	ColumnTypeDateTime
	ColumnTypeBool
)

// SegmentReader is the read-only, shareable segment-scoped collaborator the
// collector factory resolves sort and aggregation fields against.
type SegmentReader interface {
	// MaxDoc returns the exclusive upper bound on doc ids in the segment.
	MaxDoc() uint32
	// U64Lenient resolves name to a u64-valued column, coercing any numeric
	// or temporal column type. ok is false when the field does not exist on
	// this segment at all, in which case the caller must substitute
	// NewEmptyColumn rather than treat this as an error.
	U64Lenient(name string) (col Column, columnType ColumnType, ok bool)
}
