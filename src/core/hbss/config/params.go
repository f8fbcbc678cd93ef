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

package params

import (
	"errors"
	"fmt"

	"github.com/sphinx-core/hbss/src/crypto/digest"
)

const (
	DefaultN     = 1024 // preimages in a private key
	DefaultM     = 512  // commitments in a public key
	DefaultFanIn = 3    // preimages bound into each commitment

	PreimageSize = 64 // bytes per preimage
	SeedSize     = 32 // bytes of a seed-derived private key
	MaxReveals   = 64 // upper bound on preimages revealed per signature

	// Upper bounds on key shape. Public keys arrive from outside, so every
	// size that drives an allocation is capped. MaxN also keeps CounterBound
	// well inside the 32-bit counter space.
	MaxN     = 1 << 20
	MaxM     = 1 << 16
	MaxFanIn = 16
)

// ErrInvalidParameters reports a size outside its bounds, or an unknown hash function.
var ErrInvalidParameters = errors.New("hbss: invalid parameters")

// Parameters fixes the shape of a key pair. They never change after key generation.
type Parameters struct {
	N     int         `json:"n"`     // number of preimages
	M     int         `json:"m"`     // number of commitments
	FanIn int         `json:"fanIn"` // bloom indices per commitment
	Hash  digest.Func `json:"hash"`  // one-way function used everywhere
}

// NewParameters validates and returns a parameter set.
func NewParameters(n, m, fanIn int, fn digest.Func) (*Parameters, error) {
	p := &Parameters{N: n, M: m, FanIn: fanIn, Hash: fn}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// DefaultParameters returns n=1024, m=512, fanIn=3 over SHA-512.
func DefaultParameters() *Parameters {
	return &Parameters{N: DefaultN, M: DefaultM, FanIn: DefaultFanIn, Hash: digest.SHA512}
}

// Validate checks the sizes and hash function.
func (p *Parameters) Validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil parameters", ErrInvalidParameters)
	case p.N < 1 || p.N > MaxN:
		return fmt.Errorf("%w: n = %d not in [1, %d]", ErrInvalidParameters, p.N, MaxN)
	case p.M < 1 || p.M > MaxM:
		return fmt.Errorf("%w: m = %d not in [1, %d]", ErrInvalidParameters, p.M, MaxM)
	case p.FanIn < 1 || p.FanIn > MaxFanIn:
		return fmt.Errorf("%w: fanIn = %d not in [1, %d]", ErrInvalidParameters, p.FanIn, MaxFanIn)
	case !p.Hash.Valid():
		return fmt.Errorf("%w: hash %v", ErrInvalidParameters, p.Hash)
	}
	return nil
}

// RevealTarget is the number of preimages a signature tries to reveal:
// half of n capped at MaxReveals, and never less than one.
func (p *Parameters) RevealTarget() int {
	target := p.N / 2
	if target > MaxReveals {
		target = MaxReveals
	}
	if target < 1 {
		target = 1
	}
	return target
}

// CounterBound is the safety bound on the counter used by index derivation.
// Counters are hashed as 4-byte big-endian values; with n <= MaxN the bound
// stays below 2^27, so a counter never wraps.
func (p *Parameters) CounterBound() int {
	return 64*p.N + 64
}

// Equal reports whether two parameter sets describe the same key shape.
func (p *Parameters) Equal(o *Parameters) bool {
	if p == nil || o == nil {
		return p == o
	}
	return *p == *o
}

// String implements fmt.Stringer.
func (p *Parameters) String() string {
	return fmt.Sprintf("n=%d m=%d fanIn=%d hash=%v", p.N, p.M, p.FanIn, p.Hash)
}
