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

package sign

import (
	"fmt"

	"github.com/sphinx-core/hbss/src/core/hbss/commit"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

// DeriveIndices expands a message digest into the ordered list of preimage
// indices to reveal. For counter c = 0, 1, ... it takes
// Reduce(H(digest || be32(c)), n), skipping repeats and preimages that no
// commitment binds, until min(RevealTarget, covered) indices are found or
// the counter reaches CounterBound. The result depends only on the layout
// and the digest, so signer and verifier always agree.
func DeriveIndices(layout *commit.Layout, d digest.Hash) []int {
	p := layout.Params()
	target := p.RevealTarget()
	if covered := layout.CoveredCount(); covered < target {
		target = covered
	}
	seen := make(map[int]struct{}, target)
	out := make([]int, 0, target)
	for c := 0; c < p.CounterBound() && len(out) < target; c++ {
		idx := digest.Reduce(p.Hash.Sum(d[:], digest.Uint32(uint32(c))), p.N)
		if _, dup := seen[idx]; dup || !layout.Covered(idx) {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

// Sign produces a signature of message under sk. Signing is deterministic
// and draws no randomness; it only reads sk, so one key may sign from many
// goroutines at once.
func Sign(message []byte, sk *key.PrivateKey) (*Signature, error) {
	if sk == nil {
		return nil, fmt.Errorf("%w: nil private key", key.ErrInvalidKey)
	}
	p := sk.Params
	if err := p.Validate(); err != nil {
		return nil, err
	}
	layout := commit.LayoutFor(&p)

	d := p.Hash.Sum(message)
	indices := DeriveIndices(layout, d)
	if len(indices) == 0 {
		return nil, ErrNoIndices
	}

	sig := &Signature{
		Digest:            d,
		Indices:           indices,
		RevealedPreimages: make([]commit.Preimage, len(indices)),
		Companions:        make([][]commit.Preimage, len(indices)),
	}
	for k, i := range indices {
		sig.RevealedPreimages[k] = sk.Preimage(i)

		c, _ := layout.Binding(i)
		positions := layout.Companions(c, i)
		companions := make([]commit.Preimage, len(positions))
		for j, idx := range positions {
			companions[j] = sk.Preimage(idx)
		}
		sig.Companions[k] = companions

		if sk.Policy == key.PolicyMerkleCompressed {
			proof, err := sk.Proof(c)
			if err != nil {
				return nil, err
			}
			sig.MerkleProofs = append(sig.MerkleProofs, proof)
		}
	}
	return sig, nil
}
