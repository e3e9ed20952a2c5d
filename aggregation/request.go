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

// Package aggregation provides the uniform framing over the two
// aggregation families a leaf search can run — a trace-id finder and a
// generic bucket/metric tree — including per-segment construction, harvest
// into an opaque serialized intermediate, and merge of intermediates across
// segments and splits.
package aggregation

import (
	"encoding/json"

	"github.com/naveenann/quickwit/internal/cerrors"
	"github.com/naveenann/quickwit/internal/fastfield"
)

// Limits bounds an aggregation family's per-segment memory and bucket
// usage. Either field may be nil, meaning "no limit".
type Limits struct {
	MaxMemoryBytes *uint64
	MaxBucketCount *uint
}

// SegmentCollector is the per-segment aggregation sub-collector a family
// hands back from ForSegment. Collect is called once per accepted document
// on the collector's hot path and must not itself return an error: an
// over-limit condition is recorded internally and surfaced from Harvest
// instead.
type SegmentCollector interface {
	Collect(docID uint32, score float32)
	// Harvest serializes this segment's accumulated state using the
	// shared msgpack framing (codec.go). A nil family installed on the
	// collector means no aggregation was requested; a non-nil family
	// always produces non-nil bytes on success.
	Harvest() ([]byte, error)
}

// Request is the resolved, segment-agnostic aggregation specification a
// search carries: either a FindTraceIdsRequest or a GenericRequest.
type Request interface {
	// ForSegment builds the segment-scoped sub-collector, resolving
	// whatever fast fields the family reads against segment.
	ForSegment(segmentOrd uint32, segment fastfield.SegmentReader, limits Limits) (SegmentCollector, error)
	// FastFieldNames is the set of fast-field columns this family needs
	// warmed before collection starts.
	FastFieldNames() map[string]struct{}
	// Merge folds a list of serialized, non-empty per-segment
	// intermediates (in the concrete format this family produces) into
	// one merged, re-serialized intermediate. Implementations must not
	// reorder the input.
	Merge(serializedIntermediates [][]byte) ([]byte, error)
}

// ParseRequest decodes a JSON aggregation request into the Request it
// structurally matches: the find-trace-ids shape (identified by its
// required num_traces/trace_id_field_name keys) or the generic
// bucket/metric shape (identified by its required metrics key). The union
// is untagged on the wire, so the variant is sniffed from which keys are
// present rather than from an explicit discriminator.
func ParseRequest(raw string) (Request, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &shape); err != nil {
		return nil, cerrors.InvalidArgument(err, "aggregation request is not a JSON object")
	}

	_, hasNumTraces := shape["num_traces"]
	_, hasTraceField := shape["trace_id_field_name"]
	if hasNumTraces && hasTraceField {
		var req FindTraceIdsRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, cerrors.InvalidArgument(err, "invalid find-trace-ids aggregation request")
		}
		if req.NumTraces == 0 {
			return nil, cerrors.InvalidArgument(nil, "find-trace-ids aggregation requires num_traces > 0")
		}
		return &req, nil
	}

	if _, hasMetrics := shape["metrics"]; hasMetrics {
		var req GenericRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, cerrors.InvalidArgument(err, "invalid generic aggregation request")
		}
		if len(req.Metrics) == 0 {
			return nil, cerrors.InvalidArgument(nil, "generic aggregation requires at least one metric")
		}
		return &req, nil
	}

	return nil, cerrors.InvalidArgument(nil, "aggregation request matches neither the find-trace-ids nor the generic shape")
}
