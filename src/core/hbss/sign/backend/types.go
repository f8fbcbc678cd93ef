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
	"errors"

	"github.com/sphinx-core/hbss/src/core/hbss/commit"
	"github.com/sphinx-core/hbss/src/core/hbss/merkle"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

var (
	// ErrVerificationFailed means a well-formed signature does not match the
	// message or the public key.
	ErrVerificationFailed = errors.New("hbss: signature verification failed")
	// ErrMalformedSignature means a signature or public key fails structural checks.
	ErrMalformedSignature = errors.New("hbss: malformed signature")
	// ErrNoIndices is returned when index derivation finds no revealable preimage.
	ErrNoIndices = errors.New("hbss: no preimage indices derived")
)

// Signature reveals a digest-selected subset of preimages together with
// what a verifier needs to recompute the commitment binding each of them.
//
// Indices, RevealedPreimages and Companions have equal length. Companions[k]
// holds the other preimages of the binding commitment of Indices[k], in
// bloom order. MerkleProofs is set only for Merkle-compressed keys and holds
// one inclusion proof per revealed index.
type Signature struct {
	Digest            digest.Hash         `json:"digest"`
	Indices           []int               `json:"indices"`
	RevealedPreimages []commit.Preimage   `json:"revealedPreimages"`
	Companions        [][]commit.Preimage `json:"companions"`
	MerkleProofs      []merkle.Proof      `json:"merkleProofs,omitempty"`
}
