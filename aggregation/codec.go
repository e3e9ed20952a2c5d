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

	"github.com/vmihailenco/msgpack/v5"

	"github.com/naveenann/quickwit/internal/cerrors"
)

// encode serializes an aggregation intermediate into the shared wire
// framing: msgpack with array-encoded structs, so no field names travel on
// the wire. Map-typed fields (such as GenericAggResult's buckets and
// per-bucket metrics) are written in Go map iteration order, so equal
// inputs can produce different bytes that decode to equal values. Every family uses
// this one codec, which is what lets a merge deserialize any segment's
// harvest without knowing which node produced it.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseArrayEncodedStructs(true)
	if err := enc.Encode(v); err != nil {
		return nil, cerrors.Internal(err, "serialize aggregation intermediate")
	}
	return buf.Bytes(), nil
}

// decode deserializes bytes previously produced by encode into v. The
// decoder recognizes array-encoded structs on its own, so no mirror of the
// encoder option is needed here.
func decode(data []byte, v any) error {
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return cerrors.Internal(err, "deserialize aggregation intermediate")
	}
	return nil
}
