// MIT License
//
// Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package digest provides the one-way hash function and randomness
// capabilities shared by every HBSS component.
package digest

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Size is the output length of every supported hash function (512 bits).
const Size = 64

// ErrUnknownFunc is returned when a hash function name or identifier is not supported.
var ErrUnknownFunc = errors.New("digest: unknown hash function")

// Hash is a 512-bit digest value.
type Hash [Size]byte

// Func identifies one of the supported 512-bit hash functions.
type Func uint8

const (
	SHA512     Func = iota // crypto/sha512, the default
	SHA3_512               // Keccak based SHA3-512
	BLAKE2b512             // BLAKE2b with 64-byte output
)

var funcNames = [...]string{"sha512", "sha3-512", "blake2b-512"}

// String returns the canonical name of the hash function.
func (f Func) String() string {
	if !f.Valid() {
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
	return funcNames[f]
}

// Valid reports whether f names a supported hash function.
func (f Func) Valid() bool {
	return int(f) < len(funcNames)
}

// ParseFunc maps a case-insensitive name to a Func. An empty name selects SHA-512.
func ParseFunc(name string) (Func, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return SHA512, nil
	}
	for i, n := range funcNames {
		if n == name {
			return Func(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFunc, name)
}

// MarshalText implements encoding.TextMarshaler.
func (f Func) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, ErrUnknownFunc
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Func) UnmarshalText(text []byte) error {
	parsed, err := ParseFunc(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// New returns a fresh hash.Hash for f. Unknown values fall back to SHA-512;
// callers validate parameters before reaching this point.
func (f Func) New() hash.Hash {
	switch f {
	case SHA3_512:
		return sha3.New512()
	case BLAKE2b512:
		// blake2b.New512 only fails for oversized keys.
		h, _ := blake2b.New512(nil)
		return h
	default:
		return sha512.New()
	}
}

// Sum hashes the concatenation of parts.
func (f Func) Sum(parts ...[]byte) Hash {
	h := f.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Uint32 encodes v as 4 big-endian bytes, the counter encoding used inside
// every hashed input.
func Uint32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

// Reduce maps h onto [0, n). The first 32 bytes are read as a big-endian
// 256-bit integer and reduced modulo n. n must be positive.
func Reduce(h Hash, n int) int {
	if n <= 1 {
		return 0
	}
	x := new(uint256.Int).SetBytes32(h[:32])
	x.Mod(x, uint256.NewInt(uint64(n)))
	return int(x.Uint64())
}

// Bytes returns a copy of the digest as a slice.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// Hex returns the lowercase hex encoding of h.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// IsZero reports whether h is all zero bytes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText encodes h as hex.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText decodes a hex encoded digest.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HashFromHex parses a 128 character hex string.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("digest: invalid hex: %w", err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("digest: invalid length: expected %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}
