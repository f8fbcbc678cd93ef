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

package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"go.uber.org/zap"
)

// ErrUnknownScheme is returned for a scheme name or value outside the closed set.
var ErrUnknownScheme = errors.New("bench: unknown scheme")

// Scheme selects the signature scheme a benchmark run exercises.
type Scheme uint8

const (
	Base              Scheme = iota // HBSS with random preimages
	SeedDerived                     // HBSS* with a 32-byte seed private key
	MerkleCompressed                // HBSS** with a Merkle root public key
	ReferenceBaseline               // SPHINCS+ for comparison
)

var schemeNames = [...]string{"HBSS", "HBSS*", "HBSS**", "SPHINCS+"}

// AllSchemes returns every scheme in display order.
func AllSchemes() []Scheme {
	return []Scheme{Base, SeedDerived, MerkleCompressed, ReferenceBaseline}
}

func (s Scheme) String() string {
	if int(s) >= len(schemeNames) {
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
	return schemeNames[s]
}

// ParseScheme maps a display name, case-insensitively, to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	for i, n := range schemeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Scheme(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	if int(s) >= len(schemeNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScheme, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(text []byte) error {
	parsed, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Metrics is the outcome of one keygen, sign and verify cycle.
// Sizes are in bytes.
type Metrics struct {
	Scheme          Scheme        `json:"scheme"`
	KeygenTime      time.Duration `json:"keygenTime"`
	SignTime        time.Duration `json:"signTime"`
	VerifyTime      time.Duration `json:"verifyTime"`
	PublicKeySize   int           `json:"publicKeySize"`
	PrivateKeySize  int           `json:"privateKeySize"`
	SignatureSize   int           `json:"signatureSize"`
	MemoryFootprint int           `json:"memoryFootprint"`
	Verified        bool          `json:"verified"`
}

// Benchmark phases reported to an Observer.
const (
	PhaseKeygen = "keygen"
	PhaseSign   = "sign"
	PhaseVerify = "verify"
)

// Observer receives per-phase measurements as a run progresses.
type Observer interface {
	ObservePhase(scheme, phase string, d time.Duration)
	ObserveVerification(scheme string, ok bool)
}

// Harness runs benchmarks for one HBSS parameter set.
type Harness struct {
	params   *params.Parameters
	rand     io.Reader
	workers  int
	log      *zap.Logger
	observer Observer
}

// Option configures a Harness.
type Option func(*Harness)

// runner performs one benchmark cycle for a single scheme.
type runner func(ctx context.Context, message []byte) (*Metrics, error)
