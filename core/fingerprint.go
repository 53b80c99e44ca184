package core

import (
	"encoding/binary"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint identifies document content across sources. Two documents with
// the same fingerprint are duplicates for merge purposes.
type Fingerprint uint64

// FingerprintContent hashes normalized text with BLAKE2b so that identical
// content always produces identical fingerprints. Normalization lowercases
// the text and collapses runs of whitespace; punctuation is preserved.
func FingerprintContent(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(NormalizeContent(text)))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// FingerprintID hashes a raw identifier without content normalization. Used
// when the configured fingerprint strategy keys duplicates on explicit IDs
// instead of content.
func FingerprintID(id string) Fingerprint {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(id))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// NormalizeContent lowercases text and collapses all whitespace runs to
// single spaces. The result is the input to content fingerprinting.
func NormalizeContent(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
