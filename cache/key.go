package cache

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

const keyHashLen = 16

// Key derives a cache key for an operation: the operation name, a colon,
// and a blake2b hex digest of the canonical arguments. Identical argument
// lists always produce the same key.
func Key(op string, parts ...string) string {
	h, _ := blake2b.New(keyHashLen, nil)
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return op + ":" + hex.EncodeToString(h.Sum(nil))
}

// Op returns the operation prefix of a cache key, used to pick the TTL.
func Op(key string) string {
	op, _, ok := strings.Cut(key, ":")
	if !ok {
		return key
	}
	return op
}
