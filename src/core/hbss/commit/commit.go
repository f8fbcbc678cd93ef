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

// Package commit derives the public commitment array from the secret
// preimages. Commitment i hashes the concatenation of fanIn preimages whose
// positions (the bloom indices of i) are a pure function of i.
package commit

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

// batchSize is the number of commitments hashed between cancellation checks.
const batchSize = 64

// BloomIndices returns the fanIn preimage positions of commitment i:
// index_j = H(be32(i) || be32(j)) mod n.
func BloomIndices(fn digest.Func, i, n, fanIn int) []int {
	out := make([]int, fanIn)
	for j := 0; j < fanIn; j++ {
		out[j] = digest.Reduce(fn.Sum(digest.Uint32(uint32(i)), digest.Uint32(uint32(j))), n)
	}
	return out
}

// Commit hashes the preimages at the given positions, in order.
func Commit(fn digest.Func, positions []int, preimage func(int) Preimage) digest.Hash {
	h := fn.New()
	for _, idx := range positions {
		p := preimage(idx)
		h.Write(p[:])
	}
	var out digest.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// BuildCommitments derives m commitments from preimages, each binding fanIn
// preimages. It fails with ErrInvalidParameters when there are no preimages,
// m is zero or fanIn is below one.
func BuildCommitments(fn digest.Func, preimages []Preimage, m, fanIn int) ([]digest.Hash, error) {
	p, err := params.NewParameters(len(preimages), m, fanIn, fn)
	if err != nil {
		return nil, err
	}
	return NewBuilder(1).Build(context.Background(), LayoutFor(p), func(i int) Preimage { return preimages[i] })
}

// Builder hashes commitments across a fixed number of goroutines.
type Builder struct {
	workers int
}

// NewBuilder returns a Builder using the given number of goroutines.
// A non-positive value selects runtime.NumCPU().
func NewBuilder(workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Builder{workers: workers}
}

// Build computes every commitment of layout. Workers check ctx between
// batches; on cancellation the partial array is discarded and ctx.Err()
// is returned.
func (b *Builder) Build(ctx context.Context, layout *Layout, preimage func(int) Preimage) ([]digest.Hash, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", params.ErrInvalidParameters)
	}
	m := layout.params.M
	fn := layout.params.Hash
	out := make([]digest.Hash, m)

	workers := b.workers
	if batches := (m + batchSize - 1) / batchSize; workers > batches {
		workers = batches
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for start := range next {
				end := start + batchSize
				if end > m {
					end = m
				}
				for c := start; c < end; c++ {
					out[c] = Commit(fn, layout.bloom[c], preimage)
				}
			}
		}()
	}

	var err error
feed:
	for start := 0; start < m; start += batchSize {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case next <- start:
		}
	}
	close(next)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	// A cancellation that raced with the last batch still voids the result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
