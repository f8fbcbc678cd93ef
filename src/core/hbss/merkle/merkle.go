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

// Package merkle folds an ordered list of commitments into a binary hash
// tree and produces inclusion proofs.
//
// Odd levels use the self-pair rule: a node without a right sibling is
// hashed with itself. Build, Prove and VerifyProof all apply that rule, so
// every proof has exactly one sibling per level.
//
// Leaves and interior nodes are hashed under distinct one-byte prefixes, so
// no node of one tree can be presented as a leaf or as a commitment.
package merkle

import (
	"errors"
	"fmt"

	"github.com/sphinx-core/hbss/src/crypto/digest"
)

var (
	ErrEmptyTree       = errors.New("merkle: no leaves")
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")
)

// Proof is the sibling path of a leaf, ordered from the leaf level up.
type Proof []digest.Hash

// Tree holds every level of a built tree; levels[0] are the hashed leaves
// and the last level holds only the root.
type Tree struct {
	fn     digest.Func
	levels [][]digest.Hash
}

// Domain separators for leaf and interior node hashing.
var (
	domainLeaf = []byte{0x00}
	domainNode = []byte{0x01}
)

func hashLeaf(fn digest.Func, leaf digest.Hash) digest.Hash {
	return fn.Sum(domainLeaf, leaf[:])
}

func hashPair(fn digest.Func, left, right digest.Hash) digest.Hash {
	return fn.Sum(domainNode, left[:], right[:])
}

// Depth is the proof length of every leaf of a tree over n leaves.
func Depth(n int) int {
	d := 0
	for ; n > 1; n = (n + 1) / 2 {
		d++
	}
	return d
}

// Build hashes leaves pairwise, bottom-up, until a single root remains.
func Build(fn digest.Func, leaves []digest.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := make([]digest.Hash, len(leaves))
	for i, leaf := range leaves {
		level[i] = hashLeaf(fn, leaf)
	}
	levels := [][]digest.Hash{level}

	for len(level) > 1 {
		next := make([]digest.Hash, (len(level)+1)/2)
		for i := range next {
			left := level[2*i]
			right := left
			if 2*i+1 < len(level) {
				right = level[2*i+1]
			}
			next[i] = hashPair(fn, left, right)
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{fn: fn, levels: levels}, nil
}

// Root returns the tree root.
func (t *Tree) Root() digest.Hash {
	return t.levels[len(t.levels)-1][0]
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Depth returns the number of hashing levels, which is also the proof length.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// Levels returns a copy of every level, hashed leaves first.
func (t *Tree) Levels() [][]digest.Hash {
	out := make([][]digest.Hash, len(t.levels))
	for i, l := range t.levels {
		out[i] = append([]digest.Hash(nil), l...)
	}
	return out
}

// Prove returns the inclusion proof of the leaf at position index.
func (t *Tree) Prove(index int) (Proof, error) {
	if index < 0 || index >= t.LeafCount() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, t.LeafCount())
	}
	proof := make(Proof, 0, t.Depth())
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling >= len(level) {
			// Self-paired node: its sibling is itself.
			sibling = index
		}
		proof = append(proof, level[sibling])
		index /= 2
	}
	return proof, nil
}

// ProveAll returns one proof per leaf, indexed by leaf position.
func (t *Tree) ProveAll() []Proof {
	out := make([]Proof, t.LeafCount())
	for i := range out {
		// Every index in range is valid.
		out[i], _ = t.Prove(i)
	}
	return out
}

// Root builds a tree over leaves and returns only its root.
func Root(fn digest.Func, leaves []digest.Hash) (digest.Hash, error) {
	t, err := Build(fn, leaves)
	if err != nil {
		return digest.Hash{}, err
	}
	return t.Root(), nil
}

// BuildProof builds a tree over commitments and returns the proof of leafIndex.
func BuildProof(fn digest.Func, commitments []digest.Hash, leafIndex int) (Proof, error) {
	t, err := Build(fn, commitments)
	if err != nil {
		return nil, err
	}
	return t.Prove(leafIndex)
}

// VerifyProof replays proof from leaf at position index and compares the
// result with root. Malformed input yields false. Callers that know the
// leaf count should also require len(proof) == Depth(leafCount).
func VerifyProof(fn digest.Func, leaf digest.Hash, index int, proof Proof, root digest.Hash) bool {
	if index < 0 || !fn.Valid() {
		return false
	}
	if len(proof) < 63 && index>>uint(len(proof)) != 0 {
		return false
	}
	current := hashLeaf(fn, leaf)
	for _, sibling := range proof {
		if index&1 == 0 {
			current = hashPair(fn, current, sibling)
		} else {
			current = hashPair(fn, sibling, current)
		}
		index >>= 1
	}
	return current == root
}
