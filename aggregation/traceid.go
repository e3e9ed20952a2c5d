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

package aggregation

import (
	"container/heap"

	"github.com/naveenann/quickwit/internal/fastfield"
)

// FindTraceIdsRequest is the trace-id-finder aggregation family: a
// domain-specific collector used by the Jaeger-compatible service to find
// the most recent distinct trace ids matching a query.
type FindTraceIdsRequest struct {
	NumTraces                   uint   `json:"num_traces"`
	TraceIDFieldName            string `json:"trace_id_field_name"`
	SpanStartTimestampFieldName string `json:"span_start_timestamp_field_name"`
}

var _ Request = (*FindTraceIdsRequest)(nil)

// FastFieldNames implements Request. The trace id is stored as two u64
// halves (high/low) since fast-field columns are u64-typed; the timestamp
// field backs the recency ordering.
func (r *FindTraceIdsRequest) FastFieldNames() map[string]struct{} {
	return map[string]struct{}{
		r.TraceIDFieldName + "_hi":    {},
		r.TraceIDFieldName + "_lo":    {},
		r.SpanStartTimestampFieldName: {},
	}
}

// ForSegment implements Request.
func (r *FindTraceIdsRequest) ForSegment(_ uint32, segment fastfield.SegmentReader, _ Limits) (SegmentCollector, error) {
	hiCol, _, hiOK := segment.U64Lenient(r.TraceIDFieldName + "_hi")
	if !hiOK {
		hiCol = fastfield.NewEmptyColumn(segment.MaxDoc())
	}
	loCol, _, loOK := segment.U64Lenient(r.TraceIDFieldName + "_lo")
	if !loOK {
		loCol = fastfield.NewEmptyColumn(segment.MaxDoc())
	}
	tsCol, _, tsOK := segment.U64Lenient(r.SpanStartTimestampFieldName)
	if !tsOK {
		tsCol = fastfield.NewEmptyColumn(segment.MaxDoc())
	}
	return &traceIDSegmentCollector{
		numTraces: r.NumTraces,
		hiColumn:  hiCol,
		loColumn:  loCol,
		tsColumn:  tsCol,
		heap:      traceIDHeap{index: make(map[traceID]int)},
	}, nil
}

// Merge implements Request: union every segment's top-N-distinct-trace-id
// list, re-rank by latest timestamp observed, and truncate back to
// num_traces.
func (r *FindTraceIdsRequest) Merge(serializedIntermediates [][]byte) ([]byte, error) {
	merged := make(map[traceID]int64)
	for _, raw := range serializedIntermediates {
		var fruit TraceIDsResult
		if err := decode(raw, &fruit); err != nil {
			return nil, err
		}
		for _, entry := range fruit.Traces {
			id := traceID{entry.Hi, entry.Lo}
			if ts, ok := merged[id]; !ok || entry.LatestTimestamp > ts {
				merged[id] = entry.LatestTimestamp
			}
		}
	}
	entries := make([]traceIDEntry, 0, len(merged))
	for id, ts := range merged {
		entries = append(entries, traceIDEntry{Hi: id.hi, Lo: id.lo, LatestTimestamp: ts})
	}
	topN := truncateMostRecent(entries, r.NumTraces)
	return encode(&TraceIDsResult{Traces: topN})
}

// traceID is an unmarshaled, comparable trace identifier suitable for use
// as a map key.
type traceID struct {
	hi, lo uint64
}

// traceIDEntry is one trace id plus the latest span start timestamp
// observed for it, the unit the bounded heap ranks by.
type traceIDEntry struct {
	Hi              uint64 `msgpack:"hi"`
	Lo              uint64 `msgpack:"lo"`
	LatestTimestamp int64  `msgpack:"ts"`
}

// TraceIDsResult is the serialized fruit of the trace-id-finder family.
type TraceIDsResult struct {
	Traces []traceIDEntry `msgpack:"traces"`
}

// traceIDSegmentCollector keeps the numTraces most recently active
// distinct trace ids seen on this segment, using a small bounded min-heap
// ordered by latest timestamp, deduplicated by an index map — the same
// "bounded heap + replace-min" shape as the top-K hit heap, specialized to
// dedup by trace id instead of admitting every document.
type traceIDSegmentCollector struct {
	numTraces uint
	hiColumn  fastfield.Column
	loColumn  fastfield.Column
	tsColumn  fastfield.Column

	heap traceIDHeap
}

func (c *traceIDSegmentCollector) Collect(docID uint32, _ float32) {
	hi, _ := c.hiColumn.First(docID)
	lo, _ := c.loColumn.First(docID)
	rawTS, _ := c.tsColumn.First(docID)
	ts := int64(rawTS)
	id := traceID{hi, lo}

	if idx, ok := c.heap.index[id]; ok {
		if ts > c.heap.items[idx].LatestTimestamp {
			c.heap.items[idx].LatestTimestamp = ts
			heap.Fix(&c.heap, idx)
		}
		return
	}

	if c.numTraces == 0 {
		return
	}
	entry := traceIDEntry{Hi: hi, Lo: lo, LatestTimestamp: ts}
	if uint(c.heap.Len()) < c.numTraces {
		heap.Push(&c.heap, indexedEntry{traceIDEntry: entry, id: id})
		return
	}
	if c.heap.Len() == 0 {
		return
	}
	if ts > c.heap.items[0].LatestTimestamp {
		evicted := c.heap.items[0].id
		c.heap.items[0] = indexedEntry{traceIDEntry: entry, id: id}
		delete(c.heap.index, evicted)
		c.heap.index[id] = 0
		heap.Fix(&c.heap, 0)
	}
}

func (c *traceIDSegmentCollector) Harvest() ([]byte, error) {
	entries := make([]traceIDEntry, len(c.heap.items))
	for i, item := range c.heap.items {
		entries[i] = item.traceIDEntry
	}
	return encode(&TraceIDsResult{Traces: entries})
}

// indexedEntry pairs a traceIDEntry with its own key so eviction can clean
// up the dedup index without a reverse scan.
type indexedEntry struct {
	traceIDEntry
	id traceID
}

// traceIDHeap is a min-heap by LatestTimestamp, so the least-recently-active
// trace id is always the eviction candidate at the root. index tracks each
// trace id's current slot so Collect can do an O(1) dedup lookup and
// in-place timestamp bump instead of a linear scan; it is kept in sync by
// Swap, Push and Pop so it never drifts from the slice it describes.
type traceIDHeap struct {
	items []indexedEntry
	index map[traceID]int
}

func (h *traceIDHeap) Len() int { return len(h.items) }
func (h *traceIDHeap) Less(i, j int) bool {
	return h.items[i].LatestTimestamp < h.items[j].LatestTimestamp
}
func (h *traceIDHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i].id] = i
	h.index[h.items[j].id] = j
}
func (h *traceIDHeap) Push(x any) {
	e := x.(indexedEntry)
	h.index[e.id] = len(h.items)
	h.items = append(h.items, e)
}
func (h *traceIDHeap) Pop() any {
	n := len(h.items)
	item := h.items[n-1]
	h.items = h.items[:n-1]
	delete(h.index, item.id)
	return item
}

// truncateMostRecent returns the n most recently active entries, sorted
// most-recent first.
func truncateMostRecent(entries []traceIDEntry, n uint) []traceIDEntry {
	h := &traceIDHeap{items: make([]indexedEntry, 0, len(entries)), index: make(map[traceID]int, len(entries))}
	for _, e := range entries {
		id := traceID{e.Hi, e.Lo}
		h.index[id] = len(h.items)
		h.items = append(h.items, indexedEntry{traceIDEntry: e, id: id})
	}
	heap.Init(h)
	for uint(h.Len()) > n {
		heap.Pop(h)
	}
	out := make([]traceIDEntry, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(indexedEntry).traceIDEntry
	}
	return out
}
