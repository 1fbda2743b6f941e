// Package proof derives the itinerary proof value: a 256-bit digest over the
// subject id, display name and trip dates.
package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

var ErrInvalidInput = errors.New("invalid itinerary input")

// Encoding is how fields are framed before hashing.
type Encoding string

const (
	// EncodingLengthPrefixed writes each field as "<byte length>:<bytes>".
	EncodingLengthPrefixed Encoding = "length-prefixed"
	// EncodingDelimited joins fields with "|". Distinct itineraries whose
	// fields contain "|" can collide; kept for proofs already anchored.
	// Legacy records made without trip dates hashed the literal text
	// "undefined" in those positions; empty dates here hash as empty fields,
	// so such records do not re-derive.
	EncodingDelimited Encoding = "delimited"
)

type Algorithm string

const (
	AlgorithmSHA256    Algorithm = "sha256"
	AlgorithmSHA3_256  Algorithm = "sha3-256"
	AlgorithmKeccak256 Algorithm = "keccak256"
)

func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return EncodingLengthPrefixed, nil
	case EncodingLengthPrefixed, EncodingDelimited:
		return e, nil
	default:
		return "", fmt.Errorf("unknown proof encoding %q", s)
	}
}

func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AlgorithmSHA256, nil
	case AlgorithmSHA256, AlgorithmSHA3_256, AlgorithmKeccak256:
		return a, nil
	default:
		return "", fmt.Errorf("unknown proof algorithm %q", s)
	}
}

// Hasher is safe for concurrent use; each Derive call gets its own hash state.
type Hasher struct {
	encoding  Encoding
	algorithm Algorithm
	newHash   func() hash.Hash
}

func NewHasher(encoding Encoding, algorithm Algorithm) (*Hasher, error) {
	h := &Hasher{encoding: encoding, algorithm: algorithm}
	switch encoding {
	case EncodingLengthPrefixed, EncodingDelimited:
	default:
		return nil, fmt.Errorf("unknown proof encoding %q", encoding)
	}
	switch algorithm {
	case AlgorithmSHA256:
		h.newHash = sha256.New
	case AlgorithmSHA3_256:
		h.newHash = func() hash.Hash { return sha3.New256() }
	case AlgorithmKeccak256:
		h.newHash = func() hash.Hash { return sha3.NewLegacyKeccak256() }
	default:
		return nil, fmt.Errorf("unknown proof algorithm %q", algorithm)
	}
	return h, nil
}

// Default is length-prefixed SHA-256.
func Default() *Hasher {
	h, _ := NewHasher(EncodingLengthPrefixed, AlgorithmSHA256)
	return h
}

func (h *Hasher) Encoding() Encoding   { return h.encoding }
func (h *Hasher) Algorithm() Algorithm { return h.algorithm }

// Derive returns the lowercase hex digest. Fields are hashed exactly as
// given; subjectID and name must not be blank. Empty trip dates are
// allowed and hash as empty fields.
func (h *Hasher) Derive(subjectID, name, tripStart, tripEnd string) (string, error) {
	if strings.TrimSpace(subjectID) == "" {
		return "", fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	d := h.newHash()
	fields := []string{subjectID, name, tripStart, tripEnd}
	switch h.encoding {
	case EncodingDelimited:
		_, _ = io.WriteString(d, strings.Join(fields, "|"))
	default:
		for _, f := range fields {
			_, _ = io.WriteString(d, strconv.Itoa(len(f)))
			_, _ = io.WriteString(d, ":")
			_, _ = io.WriteString(d, f)
		}
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

// Valid reports whether s looks like a proof value.
func Valid(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
