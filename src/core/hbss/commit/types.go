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

package commit

import (
	"encoding/hex"
	"fmt"
	"strings"

	params "github.com/sphinx-core/hbss/src/core/hbss/config"
)

// Preimage is a secret value whose hash is bound into one or more commitments.
type Preimage [params.PreimageSize]byte

// Hex returns the lowercase hex encoding of the preimage.
func (p Preimage) Hex() string {
	return hex.EncodeToString(p[:])
}

// MarshalText encodes the preimage as hex.
func (p Preimage) MarshalText() ([]byte, error) {
	return []byte(p.Hex()), nil
}

// UnmarshalText decodes a hex encoded preimage.
func (p *Preimage) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return fmt.Errorf("commit: invalid preimage hex: %w", err)
	}
	if len(b) != params.PreimageSize {
		return fmt.Errorf("commit: invalid preimage length: expected %d bytes, got %d", params.PreimageSize, len(b))
	}
	copy(p[:], b)
	return nil
}

// Layout is the public bloom structure of a parameter set: which preimages
// feed each commitment, and which commitment binds each preimage.
// A Layout is immutable and safe for concurrent use.
type Layout struct {
	params  params.Parameters
	bloom   [][]int // bloom[c] lists the fanIn preimage indices of commitment c
	binding []int   // binding[i] is the lowest commitment containing preimage i, or -1
	covered int     // number of preimages with a binding commitment
}
