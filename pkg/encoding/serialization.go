// Package encoding is the JSON wire codec shared by replication and the
// observer feed.
package encoding

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/farmlife/pkg/generic"
)

var buffers = generic.NewPool(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) { b.Reset() },
)

// Marshal encodes v as compact JSON without a trailing newline.
func Marshal(v any) ([]byte, error) {
	buf := buffers.Get()
	defer buffers.Put(buf)

	if err := encode(buf, v); err != nil {
		return nil, err
	}
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Hash returns the xxhash of v's JSON encoding.
func Hash(v any) (uint64, error) {
	buf := buffers.Get()
	defer buffers.Put(buf)

	if err := encode(buf, v); err != nil {
		return 0, err
	}
	return xxhash.Sum64(buf.Bytes()), nil
}

func Unmarshal[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
