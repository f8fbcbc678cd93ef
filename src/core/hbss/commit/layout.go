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
	"sync"
	"sync/atomic"

	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

// maxCachedLayouts bounds the memo. Verification sees parameter sets from
// foreign public keys, so layouts past the bound are built but not kept.
const maxCachedLayouts = 32

// layouts memoizes layouts per parameter set; a Layout never changes once built.
var (
	layouts       sync.Map // params.Parameters -> *Layout
	cachedLayouts atomic.Int32
)

// NewLayout validates p and computes its bloom table and binding map.
func NewLayout(p *params.Parameters) (*Layout, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return LayoutFor(p), nil
}

// LayoutFor returns the cached layout of p, computing it on first use.
// p must already be valid.
func LayoutFor(p *params.Parameters) *Layout {
	if l, ok := layouts.Load(*p); ok {
		return l.(*Layout)
	}
	l := buildLayout(p)
	if cachedLayouts.Add(1) > maxCachedLayouts {
		cachedLayouts.Add(-1)
		return l
	}
	if prev, loaded := layouts.LoadOrStore(*p, l); loaded {
		cachedLayouts.Add(-1)
		return prev.(*Layout)
	}
	return l
}

func buildLayout(p *params.Parameters) *Layout {
	l := &Layout{
		params:  *p,
		bloom:   make([][]int, p.M),
		binding: make([]int, p.N),
	}
	for i := range l.binding {
		l.binding[i] = -1
	}
	for c := 0; c < p.M; c++ {
		l.bloom[c] = BloomIndices(p.Hash, c, p.N, p.FanIn)
		for _, idx := range l.bloom[c] {
			if l.binding[idx] == -1 {
				l.binding[idx] = c
				l.covered++
			}
		}
	}
	return l
}

// Params returns a copy of the parameters the layout was built from.
func (l *Layout) Params() params.Parameters {
	return l.params
}

// Bloom returns a copy of the preimage positions of commitment c.
func (l *Layout) Bloom(c int) []int {
	out := make([]int, len(l.bloom[c]))
	copy(out, l.bloom[c])
	return out
}

// Binding returns the lowest commitment whose bloom indices include preimage
// i. The second result is false when no commitment binds i.
func (l *Layout) Binding(i int) (int, bool) {
	if i < 0 || i >= len(l.binding) || l.binding[i] < 0 {
		return 0, false
	}
	return l.binding[i], true
}

// Covered reports whether preimage i is bound by at least one commitment.
func (l *Layout) Covered(i int) bool {
	_, ok := l.Binding(i)
	return ok
}

// CoveredCount is the number of preimages bound by some commitment.
func (l *Layout) CoveredCount() int {
	return l.covered
}

// Companions returns the positions of commitment c other than preimage i,
// in bloom order. These are the preimages a verifier needs besides i to
// recompute commitment c.
func (l *Layout) Companions(c, i int) []int {
	var out []int
	for _, idx := range l.bloom[c] {
		if idx != i {
			out = append(out, idx)
		}
	}
	return out
}

// Open recomputes commitment c from a revealed preimage i and the companion
// preimages, which fill the remaining bloom positions in order. It returns
// false when i is not a bloom index of c or the number of companions does
// not match the layout.
func (l *Layout) Open(c, i int, revealed Preimage, companions []Preimage) (digest.Hash, bool) {
	if c < 0 || c >= len(l.bloom) {
		return digest.Hash{}, false
	}
	h := l.params.Hash.New()
	next, found := 0, false
	for _, idx := range l.bloom[c] {
		if idx == i {
			h.Write(revealed[:])
			found = true
			continue
		}
		if next >= len(companions) {
			return digest.Hash{}, false
		}
		h.Write(companions[next][:])
		next++
	}
	if !found || next != len(companions) {
		return digest.Hash{}, false
	}
	var out digest.Hash
	copy(out[:], h.Sum(nil))
	return out, true
}
