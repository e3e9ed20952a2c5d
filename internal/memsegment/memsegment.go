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

// Package memsegment is a small in-memory fastfield.SegmentReader used by
// the example CLI and by tests that want a segment without standing up a
// real index. It is not part of the collector core.
package memsegment

import (
	"github.com/naveenann/quickwit/internal/fastfield"
)

// Segment is a fixed-size, in-memory collection of named u64 columns.
type Segment struct {
	maxDoc  uint32
	columns map[string]*fastfield.DenseColumn
	types   map[string]fastfield.ColumnType
}

// New builds an empty Segment able to hold docIDs in [0, maxDoc).
func New(maxDoc uint32) *Segment {
	return &Segment{
		maxDoc:  maxDoc,
		columns: make(map[string]*fastfield.DenseColumn),
		types:   make(map[string]fastfield.ColumnType),
	}
}

// MaxDoc implements fastfield.SegmentReader.
func (s *Segment) MaxDoc() uint32 { return s.maxDoc }

// U64Lenient implements fastfield.SegmentReader.
func (s *Segment) U64Lenient(name string) (fastfield.Column, fastfield.ColumnType, bool) {
	col, ok := s.columns[name]
	if !ok {
		return nil, 0, false
	}
	return col, s.types[name], true
}

// SetU64 records value for (field, docID), creating the column on first use.
func (s *Segment) SetU64(field string, columnType fastfield.ColumnType, docID uint32, value uint64) {
	col, ok := s.columns[field]
	if !ok {
		col = fastfield.NewDenseColumn(s.maxDoc)
		s.columns[field] = col
		s.types[field] = columnType
	}
	col.Set(docID, value)
}
