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

package merkle

import (
	"errors"
	"testing"

	"github.com/sphinx-core/hbss/src/crypto/digest"
)

func leaves(n int) []digest.Hash {
	out := make([]digest.Hash, n)
	for i := range out {
		out[i] = digest.SHA512.Sum([]byte("leaf"), digest.Uint32(uint32(i)))
	}
	return out
}

func TestEveryLeafProofVerifies(t *testing.T) {
	for _, fn := range []digest.Func{digest.SHA512, digest.SHA3_512, digest.BLAKE2b512} {
		for n := 1; n <= 33; n++ {
			ls := leaves(n)
			tree, err := Build(fn, ls)
			if err != nil {
				t.Fatalf("Build(%d leaves) err = %v, want nil", n, err)
			}
			for i, leaf := range ls {
				proof, err := tree.Prove(i)
				if err != nil {
					t.Fatalf("Prove(%d) err = %v, want nil", i, err)
				}
				if len(proof) != tree.Depth() {
					t.Errorf("len(Prove(%d)) = %d, want depth %d", i, len(proof), tree.Depth())
				}
				if !VerifyProof(fn, leaf, i, proof, tree.Root()) {
					t.Errorf("%v: VerifyProof(leaf %d of %d) = false, want true", fn, i, n)
				}
			}
		}
	}
}

func TestOddTreeSelfPairs(t *testing.T) {
	fn := digest.SHA512
	ls := leaves(5)
	h := func(a, b digest.Hash) digest.Hash { return fn.Sum([]byte{0x01}, a[:], b[:]) }
	var l [5]digest.Hash
	for i := range l {
		l[i] = fn.Sum([]byte{0x00}, ls[i][:])
	}

	// Level 1: (0,1) (2,3) (4,4); level 2: (a,b) (c,c); root: (d,e).
	a, b, c := h(l[0], l[1]), h(l[2], l[3]), h(l[4], l[4])
	d, e := h(a, b), h(c, c)
	want := h(d, e)

	tree, err := Build(fn, ls)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Root() != want {
		t.Fatalf("Root() = %v, want %v", tree.Root(), want)
	}

	proof, err := tree.Prove(4)
	if err != nil {
		t.Fatal(err)
	}
	wantProof := Proof{l[4], c, d}
	for i := range wantProof {
		if proof[i] != wantProof[i] {
			t.Errorf("Prove(4)[%d] = %v, want %v", i, proof[i], wantProof[i])
		}
	}
	if !VerifyProof(fn, ls[4], 4, proof, tree.Root()) {
		t.Error("VerifyProof(last leaf of 5) = false, want true")
	}

	levels := tree.Levels()
	if len(levels) != 4 || len(levels[1]) != 3 || len(levels[2]) != 2 || len(levels[3]) != 1 {
		t.Errorf("Levels() shape = %d levels, want [5 3 2 1]", len(levels))
	}
}

func TestProveIndexOutOfRange(t *testing.T) {
	tree, err := Build(digest.SHA512, leaves(4))
	if err != nil {
		t.Fatal(err)
	}
	for _, idx := range []int{-1, 4, 100} {
		if _, err := tree.Prove(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Prove(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
	if _, err := BuildProof(digest.SHA512, leaves(4), 4); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("BuildProof(4 of 4) err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestBuildEmpty(t *testing.T) {
	if _, err := Build(digest.SHA512, nil); !errors.Is(err, ErrEmptyTree) {
		t.Errorf("Build(nil) err = %v, want ErrEmptyTree", err)
	}
	if _, err := Root(digest.SHA512, nil); !errors.Is(err, ErrEmptyTree) {
		t.Errorf("Root(nil) err = %v, want ErrEmptyTree", err)
	}
}

func TestSingleLeafRootIsHashedLeaf(t *testing.T) {
	ls := leaves(1)
	root, err := Root(digest.SHA512, ls)
	if err != nil {
		t.Fatal(err)
	}
	if want := digest.SHA512.Sum([]byte{0x00}, ls[0][:]); root != want {
		t.Errorf("Root(1 leaf) = %v, want the hashed leaf %v", root, want)
	}
	if !VerifyProof(digest.SHA512, ls[0], 0, nil, root) {
		t.Error("VerifyProof(single leaf, empty proof) = false, want true")
	}
}

func TestVerifyProofRejectsTampering(t *testing.T) {
	fn := digest.SHA512
	ls := leaves(8)
	tree, err := Build(fn, ls)
	if err != nil {
		t.Fatal(err)
	}
	proof, err := tree.Prove(3)
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()

	badLeaf := ls[3]
	badLeaf[10] ^= 0x80
	if VerifyProof(fn, badLeaf, 3, proof, root) {
		t.Error("VerifyProof accepted a tampered leaf")
	}
	if VerifyProof(fn, ls[3], 2, proof, root) {
		t.Error("VerifyProof accepted a wrong position")
	}
	if VerifyProof(fn, ls[3], 3+8, proof, root) {
		t.Error("VerifyProof accepted a position beyond the proof depth")
	}
	if VerifyProof(fn, ls[3], 3, proof[:2], root) {
		t.Error("VerifyProof accepted a truncated proof")
	}
	badProof := append(Proof(nil), proof...)
	badProof[1][0] ^= 1
	if VerifyProof(fn, ls[3], 3, badProof, root) {
		t.Error("VerifyProof accepted a tampered sibling")
	}
	if VerifyProof(digest.SHA3_512, ls[3], 3, proof, root) {
		t.Error("VerifyProof accepted a different hash function")
	}
}

func TestProveAll(t *testing.T) {
	ls := leaves(7)
	tree, err := Build(digest.SHA512, ls)
	if err != nil {
		t.Fatal(err)
	}
	proofs := tree.ProveAll()
	if len(proofs) != 7 {
		t.Fatalf("len(ProveAll()) = %d, want 7", len(proofs))
	}
	for i, p := range proofs {
		if !VerifyProof(digest.SHA512, ls[i], i, p, tree.Root()) {
			t.Errorf("ProveAll()[%d] does not verify", i)
		}
	}
}

func TestDepthMatchesTree(t *testing.T) {
	for n := 1; n <= 70; n++ {
		tree, err := Build(digest.SHA512, leaves(n))
		if err != nil {
			t.Fatal(err)
		}
		if got := Depth(n); got != tree.Depth() {
			t.Errorf("Depth(%d) = %d, want %d", n, got, tree.Depth())
		}
	}
}

func TestInteriorNodeIsNotALeaf(t *testing.T) {
	fn := digest.SHA512
	ls := leaves(4)
	tree, err := Build(fn, ls)
	if err != nil {
		t.Fatal(err)
	}
	levels := tree.Levels()

	// Present level-1 node 1 as if it were a leaf one level up, with the
	// remaining sibling as a shortened proof.
	if VerifyProof(fn, levels[1][1], 1, Proof{levels[1][0]}, tree.Root()) {
		t.Error("VerifyProof accepted an interior node as a leaf")
	}
	// The unhashed children of that node do not open it either.
	if fn.Sum([]byte{0x01}, levels[0][2][:], levels[0][3][:]) != levels[1][1] {
		t.Fatal("interior node is not the prefixed hash of its children")
	}
	if fn.Sum(ls[2][:], ls[3][:]) == levels[1][1] {
		t.Error("interior node equals an unprefixed hash of two leaves")
	}
}
