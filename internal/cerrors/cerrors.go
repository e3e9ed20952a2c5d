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

// Package cerrors defines the closed error-kind vocabulary shared by the
// collector and the aggregation adapter, kept in its own leaf package so
// neither of those packages has to import the other just to report a
// failure.
package cerrors

import "fmt"

// Kind closes the set of ways a collector or aggregation operation can fail.
type Kind int

const (
	// KindInvalidArgument covers malformed aggregation JSON or sort
	// directives.
	KindInvalidArgument Kind = iota
	// KindSegmentIo covers failures resolving a fast field or building the
	// timestamp filter for a segment.
	KindSegmentIo
	// KindInternal covers serialization/deserialization failures on
	// aggregation intermediates.
	KindInternal
	// KindAggregationLimitExceeded is surfaced by an aggregation family
	// when a configured memory or bucket limit would be exceeded.
	KindAggregationLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindSegmentIo:
		return "segment_io"
	case KindInternal:
		return "internal"
	case KindAggregationLimitExceeded:
		return "aggregation_limit_exceeded"
	default:
		return "unknown"
	}
}

// Error is the single error type collector and aggregation operations
// return, carrying a closed Kind and wrapping the underlying cause the
// idiomatic stdlib way so callers can still errors.Is/errors.As through it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error of the given kind wrapping cause with a formatted
// message.
func New(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func InvalidArgument(cause error, format string, args ...any) *Error {
	return New(KindInvalidArgument, cause, format, args...)
}

func SegmentIo(cause error, format string, args ...any) *Error {
	return New(KindSegmentIo, cause, format, args...)
}

func Internal(cause error, format string, args ...any) *Error {
	return New(KindInternal, cause, format, args...)
}

func AggregationLimit(cause error, format string, args ...any) *Error {
	return New(KindAggregationLimitExceeded, cause, format, args...)
}
