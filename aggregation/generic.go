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
	"bytes"
	"encoding/binary"

	"github.com/axiomhq/hyperloglog"
	"github.com/caio/go-tdigest"

	"github.com/naveenann/quickwit/internal/cerrors"
	"github.com/naveenann/quickwit/internal/fastfield"
)

// Rough per-accumulator sizes used to enforce Limits.MaxMemoryBytes:
// a precision-14 hyperloglog sketch is 16KiB of registers once dense, and
// a t-digest with the default compression settles around 4KiB of centroids.
const (
	hllSketchBytes   = 16 << 10
	tdigestBytes     = 4 << 10
	bucketFixedBytes = 64
)

// GenericRequest is the generic bucket/metric aggregation family: an
// optional single-level "terms" bucket over a u64 fast field, fanning out
// into one or more named metrics.
type GenericRequest struct {
	Bucket  *TermsBucketRequest      `json:"bucket,omitempty"`
	Metrics map[string]MetricRequest `json:"metrics"`
}

// TermsBucketRequest groups documents by the exact value of a u64 fast
// field, capped at Size distinct keys.
type TermsBucketRequest struct {
	Field string `json:"field"`
	Size  uint   `json:"size"`
}

// MetricRequest is a tagged union of the three supported metric kinds.
// Exactly one field should be set; Collect ignores metrics with none set.
type MetricRequest struct {
	Count       *CountMetricRequest       `json:"count,omitempty"`
	Cardinality *CardinalityMetricRequest `json:"cardinality,omitempty"`
	Percentiles *PercentilesMetricRequest `json:"percentiles,omitempty"`
}

type CountMetricRequest struct{}

type CardinalityMetricRequest struct {
	Field string `json:"field"`
}

type PercentilesMetricRequest struct {
	Field       string    `json:"field"`
	Percentiles []float64 `json:"percentiles"`
}

var _ Request = (*GenericRequest)(nil)

// FastFieldNames implements Request.
func (r *GenericRequest) FastFieldNames() map[string]struct{} {
	names := make(map[string]struct{})
	if r.Bucket != nil {
		names[r.Bucket.Field] = struct{}{}
	}
	for _, m := range r.Metrics {
		if m.Cardinality != nil {
			names[m.Cardinality.Field] = struct{}{}
		}
		if m.Percentiles != nil {
			names[m.Percentiles.Field] = struct{}{}
		}
	}
	return names
}

// bucketCostBytes estimates the resident size of one live bucket's
// accumulators, the unit MaxMemoryBytes is enforced in.
func (r *GenericRequest) bucketCostBytes() uint64 {
	cost := uint64(bucketFixedBytes)
	for _, m := range r.Metrics {
		switch {
		case m.Count != nil:
			cost += 8
		case m.Cardinality != nil:
			cost += hllSketchBytes
		case m.Percentiles != nil:
			cost += tdigestBytes
		}
	}
	return cost
}

// ForSegment implements Request.
func (r *GenericRequest) ForSegment(_ uint32, segment fastfield.SegmentReader, limits Limits) (SegmentCollector, error) {
	c := &genericSegmentCollector{
		request:    r,
		buckets:    make(map[uint64]*bucketAccumulator),
		limits:     limits,
		bucketCost: r.bucketCostBytes(),
	}
	if r.Bucket != nil {
		col, _, ok := segment.U64Lenient(r.Bucket.Field)
		if !ok {
			col = fastfield.NewEmptyColumn(segment.MaxDoc())
		}
		c.bucketColumn = col
	}
	c.metricColumns = make(map[string]fastfield.Column, len(r.Metrics))
	for name, m := range r.Metrics {
		var fieldName string
		switch {
		case m.Cardinality != nil:
			fieldName = m.Cardinality.Field
		case m.Percentiles != nil:
			fieldName = m.Percentiles.Field
		default:
			continue
		}
		col, _, ok := segment.U64Lenient(fieldName)
		if !ok {
			col = fastfield.NewEmptyColumn(segment.MaxDoc())
		}
		c.metricColumns[name] = col
	}
	return c, nil
}

// Merge implements Request: deserialize every intermediate and fold left,
// mutating the accumulator. Bucket-key union and the per-metric merges are
// all associative and commutative; the inputs are still folded in the
// order given. The output bytes are not canonical: see encode.
func (r *GenericRequest) Merge(serializedIntermediates [][]byte) ([]byte, error) {
	var merged *GenericAggResult
	for _, raw := range serializedIntermediates {
		var fruit GenericAggResult
		if err := decode(raw, &fruit); err != nil {
			return nil, err
		}
		if merged == nil {
			merged = &fruit
			continue
		}
		if err := merged.mergeFrom(&fruit); err != nil {
			return nil, err
		}
	}
	if merged == nil {
		return nil, nil
	}
	return encode(merged)
}

// genericSegmentCollector is the per-segment aggregation state: a bucket
// key per distinct fast-field value observed (capped by Bucket.Size and by
// the configured limits), each carrying an accumulator per metric.
type genericSegmentCollector struct {
	request       *GenericRequest
	bucketColumn  fastfield.Column
	metricColumns map[string]fastfield.Column
	buckets       map[uint64]*bucketAccumulator
	limits        Limits
	bucketCost    uint64
	limitExceeded bool
}

func (c *genericSegmentCollector) Collect(docID uint32, _ float32) {
	bucketKey := uint64(0)
	if c.bucketColumn != nil {
		if val, ok := c.bucketColumn.First(docID); ok {
			bucketKey = val
		}
	}
	acc, ok := c.buckets[bucketKey]
	if !ok {
		if c.atBucketCapacity() {
			c.limitExceeded = true
			return
		}
		acc = newBucketAccumulator(c.request.Metrics)
		c.buckets[bucketKey] = acc
	}
	for name, m := range c.request.Metrics {
		col := c.metricColumns[name]
		var val uint64
		if col != nil {
			val, _ = col.First(docID)
		}
		acc.observe(name, m, val)
	}
}

func (c *genericSegmentCollector) atBucketCapacity() bool {
	if c.request.Bucket != nil && c.request.Bucket.Size > 0 && uint(len(c.buckets)) >= c.request.Bucket.Size {
		return true
	}
	if c.limits.MaxBucketCount != nil && uint(len(c.buckets)) >= *c.limits.MaxBucketCount {
		return true
	}
	if c.limits.MaxMemoryBytes != nil && uint64(len(c.buckets)+1)*c.bucketCost > *c.limits.MaxMemoryBytes {
		return true
	}
	return false
}

func (c *genericSegmentCollector) Harvest() ([]byte, error) {
	if c.limitExceeded {
		return nil, cerrors.AggregationLimit(nil, "generic aggregation exceeded its bucket or memory limit")
	}
	fruit := GenericAggResult{Buckets: make(map[uint64]BucketResult, len(c.buckets))}
	for key, acc := range c.buckets {
		result, err := acc.snapshot()
		if err != nil {
			return nil, err
		}
		fruit.Buckets[key] = result
	}
	return encode(&fruit)
}

// bucketAccumulator holds one live metric accumulator per requested metric
// name, scoped to a single bucket key.
type bucketAccumulator struct {
	counts      map[string]uint64
	cardinality map[string]*hyperloglog.Sketch
	percentiles map[string]*tdigest.TDigest
}

func newBucketAccumulator(metrics map[string]MetricRequest) *bucketAccumulator {
	acc := &bucketAccumulator{
		counts:      make(map[string]uint64),
		cardinality: make(map[string]*hyperloglog.Sketch),
		percentiles: make(map[string]*tdigest.TDigest),
	}
	for name, m := range metrics {
		switch {
		case m.Count != nil:
			acc.counts[name] = 0
		case m.Cardinality != nil:
			acc.cardinality[name] = hyperloglog.New()
		case m.Percentiles != nil:
			td, _ := tdigest.New()
			acc.percentiles[name] = td
		}
	}
	return acc
}

func (acc *bucketAccumulator) observe(name string, m MetricRequest, value uint64) {
	switch {
	case m.Count != nil:
		acc.counts[name]++
	case m.Cardinality != nil:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], value)
		acc.cardinality[name].Insert(buf[:])
	case m.Percentiles != nil:
		_ = acc.percentiles[name].Add(float64(value))
	}
}

func (acc *bucketAccumulator) snapshot() (BucketResult, error) {
	result := BucketResult{Metrics: make(map[string]MetricResult)}
	for name, count := range acc.counts {
		c := count
		result.Metrics[name] = MetricResult{Count: &c}
	}
	for name, sketch := range acc.cardinality {
		b, err := sketch.MarshalBinary()
		if err != nil {
			return BucketResult{}, cerrors.Internal(err, "serialize cardinality sketch")
		}
		result.Metrics[name] = MetricResult{Cardinality: b}
	}
	for name, td := range acc.percentiles {
		b, err := td.AsBytes()
		if err != nil {
			return BucketResult{}, cerrors.Internal(err, "serialize percentile digest")
		}
		result.Metrics[name] = MetricResult{Percentiles: b}
	}
	return result, nil
}

// mergeResult merges the metrics carried by a harvested BucketResult into
// acc's live sketches, used when folding harvested bucket results back
// together during a merge.
func (acc *bucketAccumulator) mergeResult(result BucketResult) error {
	for name, m := range result.Metrics {
		switch {
		case m.Count != nil:
			acc.counts[name] += *m.Count
		case m.Cardinality != nil:
			sketch := hyperloglog.New()
			if err := sketch.UnmarshalBinary(m.Cardinality); err != nil {
				return cerrors.Internal(err, "deserialize cardinality sketch")
			}
			existing, ok := acc.cardinality[name]
			if !ok {
				acc.cardinality[name] = sketch
				continue
			}
			if err := existing.Merge(sketch); err != nil {
				return cerrors.Internal(err, "merge cardinality sketches")
			}
		case m.Percentiles != nil:
			td, err := tdigest.FromBytes(bytes.NewReader(m.Percentiles))
			if err != nil {
				return cerrors.Internal(err, "deserialize percentile digest")
			}
			existing, ok := acc.percentiles[name]
			if !ok {
				acc.percentiles[name] = td
				continue
			}
			if err := existing.Merge(td); err != nil {
				return cerrors.Internal(err, "merge percentile digests")
			}
		}
	}
	return nil
}

// GenericAggResult is the serialized fruit of the generic aggregation
// family: a bucket key to per-metric result map.
type GenericAggResult struct {
	Buckets map[uint64]BucketResult `msgpack:"buckets"`
}

// BucketResult carries one bucket's metric outputs, each still in its
// serialized sketch/digest form; a merge decodes them only for bucket keys
// present in both of the results it folds together.
type BucketResult struct {
	Metrics map[string]MetricResult `msgpack:"metrics"`
}

// MetricResult is a tagged union mirroring MetricRequest: exactly one field
// is populated depending on which metric produced it.
type MetricResult struct {
	Count       *uint64 `msgpack:"count,omitempty"`
	Cardinality []byte  `msgpack:"cardinality,omitempty"`
	Percentiles []byte  `msgpack:"percentiles,omitempty"`
}

// mergeFrom folds other into result in place, unioning bucket keys and
// merging each metric.
func (result *GenericAggResult) mergeFrom(other *GenericAggResult) error {
	for key, bucket := range other.Buckets {
		existing, ok := result.Buckets[key]
		if !ok {
			result.Buckets[key] = bucket
			continue
		}
		acc := &bucketAccumulator{
			counts:      make(map[string]uint64),
			cardinality: make(map[string]*hyperloglog.Sketch),
			percentiles: make(map[string]*tdigest.TDigest),
		}
		if err := acc.mergeResult(existing); err != nil {
			return err
		}
		if err := acc.mergeResult(bucket); err != nil {
			return err
		}
		merged, err := acc.snapshot()
		if err != nil {
			return err
		}
		result.Buckets[key] = merged
	}
	return nil
}
