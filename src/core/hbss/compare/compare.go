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

// Package compare holds reference data for the schemes the benchmark
// harness reports on, plus human readable formatting of its metrics.
package compare

import (
	"fmt"
	"time"

	"github.com/cloudflare/circl/sign/schemes"
)

// Speed is a coarse qualitative speed class.
type Speed string

const (
	VeryFast Speed = "Very Fast"
	Fast     Speed = "Fast"
	Balanced Speed = "Balanced"
	Slow     Speed = "Slow"
)

// SchemeComparison describes one signature scheme for side-by-side display.
type SchemeComparison struct {
	Scheme        string `json:"scheme"`
	Stateless     bool   `json:"stateless"`
	PostQuantum   bool   `json:"postQuantum"`
	KeySize       string `json:"keySize"`
	SigSize       string `json:"sigSize"`
	Speed         Speed  `json:"speed"`
	SecurityLevel int    `json:"securityLevel"` // classical bits
	Description   string `json:"description"`
}

// SchemeComparisons returns the static comparison of the HBSS variants and
// the SPHINCS+ reference baseline.
func SchemeComparisons() []SchemeComparison {
	return []SchemeComparison{
		{
			Scheme:        "HBSS",
			Stateless:     true,
			PostQuantum:   true,
			KeySize:       "64 KB",
			SigSize:       "4.3 KB",
			Speed:         Fast,
			SecurityLevel: 128,
			Description:   "Hash-based stateless signatures with Bloom filters",
		},
		{
			Scheme:        "HBSS*",
			Stateless:     true,
			PostQuantum:   true,
			KeySize:       "32 bytes (seed)",
			SigSize:       "4.3 KB",
			Speed:         Fast,
			SecurityLevel: 128,
			Description:   "Seed-based HBSS with reduced memory footprint",
		},
		{
			Scheme:        "HBSS**",
			Stateless:     true,
			PostQuantum:   true,
			KeySize:       "64 bytes (root)",
			SigSize:       "5.5 KB",
			Speed:         Balanced,
			SecurityLevel: 128,
			Description:   "Merkle-enhanced HBSS with compact public keys",
		},
		{
			Scheme:        "SPHINCS+",
			Stateless:     true,
			PostQuantum:   true,
			KeySize:       "32 bytes",
			SigSize:       "17 KB",
			Speed:         Balanced,
			SecurityLevel: 128,
			Description:   "NIST-standardized hash-based signatures",
		},
	}
}

// reference lists circl schemes shown next to the hash-based ones.
var reference = []struct {
	name        string
	postQuantum bool
	speed       Speed
	level       int
	description string
}{
	{"Ed25519", false, VeryFast, 128, "Classical elliptic-curve signatures"},
	{"ML-DSA-44", true, VeryFast, 128, "NIST lattice-based signatures (FIPS 204)"},
}

// ReferenceComparisons returns rows for classical and lattice schemes with
// sizes read from their circl implementations. Schemes the linked circl
// version does not provide are skipped.
func ReferenceComparisons() []SchemeComparison {
	out := make([]SchemeComparison, 0, len(reference))
	for _, r := range reference {
		s := schemes.ByName(r.name)
		if s == nil {
			continue
		}
		out = append(out, SchemeComparison{
			Scheme:        s.Name(),
			Stateless:     true,
			PostQuantum:   r.postQuantum,
			KeySize:       FormatBytes(s.PublicKeySize()),
			SigSize:       FormatBytes(s.SignatureSize()),
			Speed:         r.speed,
			SecurityLevel: r.level,
			Description:   r.description,
		})
	}
	return out
}

// All returns SchemeComparisons followed by ReferenceComparisons.
func All() []SchemeComparison {
	return append(SchemeComparisons(), ReferenceComparisons()...)
}

// FormatBytes renders a size in B, KB or MB with two decimals.
func FormatBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	}
}

// FormatDuration renders a duration in µs, ms or s with two decimals.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.2f µs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2f ms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2f s", d.Seconds())
	}
}
