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

import "github.com/naveenann/quickwit/internal/cerrors"

// Kind, Error and the Kind constants are re-exported from the shared
// internal/cerrors vocabulary so both this package and
// github.com/naveenann/quickwit/aggregation report the same closed set of
// failure kinds without importing one another.
type (
	Kind  = cerrors.Kind
	Error = cerrors.Error
)

const (
	InvalidArgument          = cerrors.KindInvalidArgument
	SegmentIo                = cerrors.KindSegmentIo
	Internal                 = cerrors.KindInternal
	AggregationLimitExceeded = cerrors.KindAggregationLimitExceeded
)

func invalidArgumentf(cause error, format string, args ...any) *Error {
	return cerrors.InvalidArgument(cause, format, args...)
}

func segmentIOf(cause error, format string, args ...any) *Error {
	return cerrors.SegmentIo(cause, format, args...)
}
