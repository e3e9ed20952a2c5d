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

package fastfield

import "testing"

func TestEmptyColumnNeverYieldsAValue(t *testing.T) {
	col := NewEmptyColumn(10)
	for docID := uint32(0); docID < 10; docID++ {
		if _, ok := col.First(docID); ok {
			t.Fatalf("empty column must never yield a value, got one for doc %d", docID)
		}
	}
}

func TestDenseColumnRoundTrip(t *testing.T) {
	col := NewDenseColumn(4)
	col.Set(1, 42)
	col.Set(3, 7)

	if v, ok := col.First(1); !ok || v != 42 {
		t.Fatalf("expected (42, true) for doc 1, got (%d, %v)", v, ok)
	}
	if v, ok := col.First(3); !ok || v != 7 {
		t.Fatalf("expected (7, true) for doc 3, got (%d, %v)", v, ok)
	}
	if _, ok := col.First(0); ok {
		t.Fatalf("doc 0 was never set, expected absent")
	}
}

func TestDenseColumnGrowsPastInitialMaxDoc(t *testing.T) {
	col := NewDenseColumn(1)
	col.Set(5, 99)
	if v, ok := col.First(5); !ok || v != 99 {
		t.Fatalf("expected dense column to grow to accommodate doc 5, got (%d, %v)", v, ok)
	}
}
