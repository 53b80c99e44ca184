// Copyright 2025 Harvestra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types that cross the persistent-cache boundary.
// Hand-written against the mus-go primitives; the field order below is the
// wire format and must not change between releases.

var (
	float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)
	stringSliceMUS  = ord.NewSliceSer[string](ord.String)
	stringMapMUS    = ord.NewMapSer[string, string](ord.String, ord.String)
)

// DocumentMUS serializes Document values.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = ord.String.Marshal(d.ID, bs)
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Content, bs[n:])
	n += ord.String.Marshal(d.Source, bs[n:])
	n += stringMapMUS.Marshal(d.Metadata, bs[n:])
	n += float32SliceMUS.Marshal(d.Embedding, bs[n:])
	n += raw.Float64.Marshal(d.Score, bs[n:])
	return
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if d.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Source, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Metadata, n1, err = stringMapMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Embedding, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.Score, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	return
}

func (documentMUS) Size(d Document) (size int) {
	size = ord.String.Size(d.ID)
	size += ord.String.Size(d.Title)
	size += ord.String.Size(d.Content)
	size += ord.String.Size(d.Source)
	size += stringMapMUS.Size(d.Metadata)
	size += float32SliceMUS.Size(d.Embedding)
	size += raw.Float64.Size(d.Score)
	return
}

func (documentMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	for i := 0; i < 3; i++ {
		if n1, err = ord.String.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	if n1, err = stringMapMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = float32SliceMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	n1, err = raw.Float64.Skip(bs[n:])
	n += n1
	return
}

// HitMUS serializes Hit values.
var HitMUS = hitMUS{}

type hitMUS struct{}

func (hitMUS) Marshal(h Hit, bs []byte) (n int) {
	n = DocumentMUS.Marshal(h.Document, bs)
	n += raw.Float64.Marshal(h.Score, bs[n:])
	n += stringSliceMUS.Marshal(h.Sources, bs[n:])
	return
}

func (hitMUS) Unmarshal(bs []byte) (h Hit, n int, err error) {
	var n1 int
	if h.Document, n, err = DocumentMUS.Unmarshal(bs); err != nil {
		return
	}
	if h.Score, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return h, n + n1, err
	}
	n += n1
	h.Sources, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (hitMUS) Size(h Hit) (size int) {
	size = DocumentMUS.Size(h.Document)
	size += raw.Float64.Size(h.Score)
	size += stringSliceMUS.Size(h.Sources)
	return
}

func (hitMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = DocumentMUS.Skip(bs); err != nil {
		return
	}
	if n1, err = raw.Float64.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	n1, err = stringSliceMUS.Skip(bs[n:])
	n += n1
	return
}

// SourceStatusMUS serializes SourceStatus values. Elapsed is encoded as
// nanoseconds.
var SourceStatusMUS = sourceStatusMUS{}

type sourceStatusMUS struct{}

func (sourceStatusMUS) Marshal(s SourceStatus, bs []byte) (n int) {
	n = ord.String.Marshal(s.Name, bs)
	n += varint.Int.Marshal(int(s.State), bs[n:])
	n += ord.String.Marshal(s.Err, bs[n:])
	n += varint.Int.Marshal(s.Hits, bs[n:])
	n += varint.Int64.Marshal(int64(s.Elapsed), bs[n:])
	return
}

func (sourceStatusMUS) Unmarshal(bs []byte) (s SourceStatus, n int, err error) {
	var (
		n1      int
		state   int
		elapsed int64
	)
	if s.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if state, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	s.State = SourceState(state)
	if s.Err, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Hits, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	elapsed, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	s.Elapsed = time.Duration(elapsed)
	return
}

func (sourceStatusMUS) Size(s SourceStatus) (size int) {
	size = ord.String.Size(s.Name)
	size += varint.Int.Size(int(s.State))
	size += ord.String.Size(s.Err)
	size += varint.Int.Size(s.Hits)
	size += varint.Int64.Size(int64(s.Elapsed))
	return
}

func (sourceStatusMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	if n1, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

var (
	hitSliceMUS    = ord.NewSliceSer[Hit](HitMUS)
	statusSliceMUS = ord.NewSliceSer[SourceStatus](SourceStatusMUS)
)

// SearchResultMUS serializes SearchResult values.
var SearchResultMUS = searchResultMUS{}

type searchResultMUS struct{}

func (searchResultMUS) Marshal(r SearchResult, bs []byte) (n int) {
	n = hitSliceMUS.Marshal(r.Hits, bs)
	n += statusSliceMUS.Marshal(r.Statuses, bs[n:])
	return
}

func (searchResultMUS) Unmarshal(bs []byte) (r SearchResult, n int, err error) {
	var n1 int
	if r.Hits, n, err = hitSliceMUS.Unmarshal(bs); err != nil {
		return
	}
	r.Statuses, n1, err = statusSliceMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (searchResultMUS) Size(r SearchResult) (size int) {
	size = hitSliceMUS.Size(r.Hits)
	size += statusSliceMUS.Size(r.Statuses)
	return
}

func (searchResultMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = hitSliceMUS.Skip(bs); err != nil {
		return
	}
	n1, err = statusSliceMUS.Skip(bs[n:])
	n += n1
	return
}
