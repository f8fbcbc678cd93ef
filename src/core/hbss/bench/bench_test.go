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
	"sync"
	"testing"
	"time"

	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

type recorder struct {
	mu     sync.Mutex
	phases map[string][]string
	ok     map[string]bool
}

func newRecorder() *recorder {
	return &recorder{phases: map[string][]string{}, ok: map[string]bool{}}
}

func (r *recorder) ObservePhase(scheme, phase string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases[scheme] = append(r.phases[scheme], phase)
}

func (r *recorder) ObserveVerification(scheme string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ok[scheme] = ok
}

func smallHarness(t *testing.T, opts ...Option) *Harness {
	t.Helper()
	p, err := params.NewParameters(128, 64, 3, digest.SHA512)
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]Option{WithParameters(p), WithRandom(digest.NewDeterministicRandom([]byte("bench")))}, opts...)
	h, err := NewHarness(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestRunHBSSVariants(t *testing.T) {
	rec := newRecorder()
	h := smallHarness(t, WithObserver(rec))
	for _, s := range []Scheme{Base, SeedDerived, MerkleCompressed} {
		m, err := h.Run(context.Background(), s, []byte("benchmark"))
		if err != nil {
			t.Fatalf("Run(%v) err = %v, want nil", s, err)
		}
		if !m.Verified {
			t.Errorf("Run(%v) Verified = false, want true", s)
		}
		if m.Scheme != s {
			t.Errorf("Run(%v) Scheme = %v", s, m.Scheme)
		}
		if m.SignatureSize <= digest.Size || m.MemoryFootprint < m.PublicKeySize+m.PrivateKeySize {
			t.Errorf("Run(%v) sizes implausible: %+v", s, m)
		}
		if got := rec.phases[s.String()]; len(got) != 3 || got[0] != PhaseKeygen || got[2] != PhaseVerify {
			t.Errorf("observed phases for %v = %v, want keygen, sign, verify", s, got)
		}
		if !rec.ok[s.String()] {
			t.Errorf("observer saw failed verification for %v", s)
		}
	}
}

func TestVariantSizes(t *testing.T) {
	h := smallHarness(t)
	base, err := h.Run(context.Background(), Base, []byte("m"))
	if err != nil {
		t.Fatal(err)
	}
	seeded, err := h.Run(context.Background(), SeedDerived, []byte("m"))
	if err != nil {
		t.Fatal(err)
	}
	compressed, err := h.Run(context.Background(), MerkleCompressed, []byte("m"))
	if err != nil {
		t.Fatal(err)
	}
	if base.PublicKeySize != 64*digest.Size || base.PrivateKeySize != 128*params.PreimageSize {
		t.Errorf("HBSS sizes = %d/%d, want %d/%d", base.PublicKeySize, base.PrivateKeySize, 64*digest.Size, 128*params.PreimageSize)
	}
	if seeded.PrivateKeySize != params.SeedSize {
		t.Errorf("HBSS* private key size = %d, want %d", seeded.PrivateKeySize, params.SeedSize)
	}
	if compressed.PublicKeySize != digest.Size {
		t.Errorf("HBSS** public key size = %d, want %d", compressed.PublicKeySize, digest.Size)
	}
	if compressed.SignatureSize <= base.SignatureSize {
		t.Errorf("HBSS** signature (%d) not larger than HBSS (%d)", compressed.SignatureSize, base.SignatureSize)
	}
}

func TestRunReferenceBaseline(t *testing.T) {
	if testing.Short() {
		t.Skip("SPHINCS+ signing is slow")
	}
	m, err := smallHarness(t).Run(context.Background(), ReferenceBaseline, []byte("benchmark"))
	if err != nil {
		t.Fatal(err)
	}
	if !m.Verified {
		t.Error("SPHINCS+ Verified = false, want true")
	}
	if m.PublicKeySize != 32 || m.PrivateKeySize != 64 {
		t.Errorf("SPHINCS+ key sizes = %d/%d, want 32/64", m.PublicKeySize, m.PrivateKeySize)
	}
	if m.SignatureSize < 8000 {
		t.Errorf("SPHINCS+ signature size = %d, want a multi-kilobyte signature", m.SignatureSize)
	}
}

func TestRunAllKeepsOrder(t *testing.T) {
	h := smallHarness(t)
	order := []Scheme{MerkleCompressed, Base, SeedDerived}
	results, err := h.RunAll(context.Background(), order, []byte("ordered"))
	if err != nil {
		t.Fatal(err)
	}
	if results.Len() != len(order) {
		t.Fatalf("RunAll() returned %d results, want %d", results.Len(), len(order))
	}
	i := 0
	for el := results.Front(); el != nil; el = el.Next() {
		if el.Key != order[i] || el.Value.Scheme != order[i] {
			t.Errorf("result %d = %v, want %v", i, el.Key, order[i])
		}
		i++
	}
}

func TestUnknownScheme(t *testing.T) {
	h := smallHarness(t)
	if _, err := h.Run(context.Background(), Scheme(9), []byte("m")); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("Run(9) err = %v, want ErrUnknownScheme", err)
	}
	if _, err := h.RunAll(context.Background(), []Scheme{Base, Scheme(7)}, []byte("m")); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("RunAll(with 7) err = %v, want ErrUnknownScheme", err)
	}
	if _, err := ParseScheme("RSA"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("ParseScheme(RSA) err = %v, want ErrUnknownScheme", err)
	}
}

func TestParseScheme(t *testing.T) {
	for _, s := range AllSchemes() {
		got, err := ParseScheme(s.String())
		if err != nil || got != s {
			t.Errorf("ParseScheme(%q) = %v, %v, want %v", s.String(), got, err, s)
		}
	}
	if got, err := ParseScheme("hbss**"); err != nil || got != MerkleCompressed {
		t.Errorf("ParseScheme(hbss**) = %v, %v, want HBSS**", got, err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, s := range AllSchemes() {
		if _, err := smallHarness(t).Run(ctx, s, []byte("m")); !errors.Is(err, context.Canceled) {
			t.Errorf("Run(%v, cancelled) err = %v, want context.Canceled", s, err)
		}
	}
}

func TestNewHarnessRejectsInvalidParameters(t *testing.T) {
	if _, err := NewHarness(WithParameters(&params.Parameters{N: 1, M: 0, FanIn: 1})); !errors.Is(err, params.ErrInvalidParameters) {
		t.Errorf("NewHarness(m=0) err = %v, want ErrInvalidParameters", err)
	}
}
