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

package digest

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"
)

// ErrRandomness is returned when a random source fails to fill a buffer.
var ErrRandomness = errors.New("digest: random source failure")

// SystemRandom returns the operating system CSPRNG.
func SystemRandom() io.Reader {
	return rand.Reader
}

// NewDeterministicRandom returns a reproducible byte stream expanded from
// seed with SHAKE256. It exists for tests and known-answer fixtures and must
// not be used to generate production keys.
func NewDeterministicRandom(seed []byte) io.Reader {
	xof := sha3.NewShake256()
	xof.Write([]byte("hbss deterministic random"))
	xof.Write(seed)
	return xof
}

// ReadFull fills p from r, wrapping any failure in ErrRandomness.
func ReadFull(r io.Reader, p []byte) error {
	if r == nil {
		return fmt.Errorf("%w: nil source", ErrRandomness)
	}
	if _, err := io.ReadFull(r, p); err != nil {
		return fmt.Errorf("%w: %v", ErrRandomness, err)
	}
	return nil
}
