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

// WarmupInfo declares which fast-field columns must be preloaded before
// collection starts, and whether scoring needs to be computed.
type WarmupInfo struct {
	FastFieldNames  map[string]struct{}
	RequiresScoring bool
}

// FastFieldNames returns the union of (sort-by field, aggregation fields,
// timestamp field) this Collector needs warmed.
func (col *Collector) FastFieldNames() map[string]struct{} {
	names := make(map[string]struct{})
	if fieldName, ok := col.sortBy.FieldName(); ok {
		names[fieldName] = struct{}{}
	}
	if col.aggregation != nil {
		for name := range col.aggregation.FastFieldNames() {
			names[name] = struct{}{}
		}
	}
	if col.timestampFilterBuilder != nil {
		names[col.timestampFilterBuilder.TimestampFieldName] = struct{}{}
	}
	return names
}

// WarmupInfo builds the full warmup descriptor for this Collector.
func (col *Collector) WarmupInfo() WarmupInfo {
	return WarmupInfo{
		FastFieldNames:  col.FastFieldNames(),
		RequiresScoring: col.RequiresScoring(),
	}
}
