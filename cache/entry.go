// Copyright 2025 Harvestra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"time"

	"github.com/harvestra/corpus/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Value is the cached payload: either a single document or a full search
// result, never both.
type Value struct {
	Document *core.Document
	Result   *core.SearchResult
}

// DocumentValue wraps a document for caching.
func DocumentValue(doc *core.Document) Value { return Value{Document: doc} }

// ResultValue wraps a search result for caching.
func ResultValue(res *core.SearchResult) Value { return Value{Result: res} }

// Entry is one cached record with the bookkeeping the eviction policies
// need. CreatedAt and LastAccess are stored at nanosecond precision.
type Entry struct {
	Key         string
	Value       Value
	CreatedAt   time.Time
	TTL         time.Duration
	Size        int64
	AccessCount int64
	LastAccess  time.Time
}

// Expired reports whether the entry's TTL has elapsed at now.
// A zero TTL never expires.
func (e *Entry) Expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) >= e.TTL
}

// Touch records a read for the lru and lfu policies.
func (e *Entry) Touch(now time.Time) {
	e.AccessCount++
	e.LastAccess = now
}

// Value union tags on the wire.
const (
	tagEmpty byte = iota
	tagDocument
	tagResult
)

// EntryMUS serializes cache entries for the persistent tier.
var EntryMUS = entryMUS{}

type entryMUS struct{}

func (entryMUS) Marshal(e Entry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Key, bs)
	switch {
	case e.Value.Document != nil:
		n += raw.Byte.Marshal(tagDocument, bs[n:])
		n += core.DocumentMUS.Marshal(*e.Value.Document, bs[n:])
	case e.Value.Result != nil:
		n += raw.Byte.Marshal(tagResult, bs[n:])
		n += core.SearchResultMUS.Marshal(*e.Value.Result, bs[n:])
	default:
		n += raw.Byte.Marshal(tagEmpty, bs[n:])
	}
	n += varint.Int64.Marshal(e.CreatedAt.UnixNano(), bs[n:])
	n += varint.Int64.Marshal(int64(e.TTL), bs[n:])
	n += varint.Int64.Marshal(e.Size, bs[n:])
	n += varint.Int64.Marshal(e.AccessCount, bs[n:])
	n += varint.Int64.Marshal(e.LastAccess.UnixNano(), bs[n:])
	return
}

func (entryMUS) Unmarshal(bs []byte) (e Entry, n int, err error) {
	var n1 int
	if e.Key, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}

	var tag byte
	if tag, n1, err = raw.Byte.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	switch tag {
	case tagDocument:
		var doc core.Document
		if doc, n1, err = core.DocumentMUS.Unmarshal(bs[n:]); err != nil {
			return e, n + n1, err
		}
		n += n1
		e.Value.Document = &doc
	case tagResult:
		var res core.SearchResult
		if res, n1, err = core.SearchResultMUS.Unmarshal(bs[n:]); err != nil {
			return e, n + n1, err
		}
		n += n1
		e.Value.Result = &res
	case tagEmpty:
	default:
		return e, n, ErrCorruptEntry
	}

	var created, ttl, access int64
	if created, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	e.CreatedAt = time.Unix(0, created)
	if ttl, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	e.TTL = time.Duration(ttl)
	if e.Size, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.AccessCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	access, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	e.LastAccess = time.Unix(0, access)
	return
}

func (entryMUS) Size(e Entry) (size int) {
	size = ord.String.Size(e.Key)
	size += raw.Byte.Size(tagEmpty)
	switch {
	case e.Value.Document != nil:
		size += core.DocumentMUS.Size(*e.Value.Document)
	case e.Value.Result != nil:
		size += core.SearchResultMUS.Size(*e.Value.Result)
	}
	size += varint.Int64.Size(e.CreatedAt.UnixNano())
	size += varint.Int64.Size(int64(e.TTL))
	size += varint.Int64.Size(e.Size)
	size += varint.Int64.Size(e.AccessCount)
	size += varint.Int64.Size(e.LastAccess.UnixNano())
	return
}

// payloadSize is the accounting size of an entry: the serialized size of
// its value. Bookkeeping fields are excluded so the quota tracks content.
func payloadSize(v Value) int64 {
	switch {
	case v.Document != nil:
		return int64(core.DocumentMUS.Size(*v.Document))
	case v.Result != nil:
		return int64(core.SearchResultMUS.Size(*v.Result))
	}
	return 0
}
