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
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	"github.com/sphinx-core/hbss/src/core/hbss/merkle"
	"go.uber.org/zap"
)

// Verifier checks signatures and logs the reason of every rejection at debug level.
type Verifier struct {
	log *zap.Logger
}

// NewVerifier returns a Verifier logging to l. A nil logger discards output.
func NewVerifier(l *zap.Logger) *Verifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &Verifier{log: l}
}

var defaultVerifier = NewVerifier(nil)

// Verify reports whether sig is a valid signature of message under pk.
// It never panics; malformed input is simply invalid.
func Verify(message []byte, sig *Signature, pk *key.PublicKey) bool {
	return defaultVerifier.Verify(message, sig, pk)
}

// Verify reports whether sig is a valid signature of message under pk.
func (v *Verifier) Verify(message []byte, sig *Signature, pk *key.PublicKey) bool {
	if err := verify(message, sig, pk); err != nil {
		v.log.Debug("signature rejected", zap.Error(err))
		return false
	}
	return true
}

func verify(message []byte, sig *Signature, pk *key.PublicKey) error {
	if err := checkStructure(sig, pk); err != nil {
		return err
	}
	p := pk.Params

	if p.Hash.Sum(message) != sig.Digest {
		return fmt.Errorf("%w: digest does not match message", ErrVerificationFailed)
	}

	layout := commit.LayoutFor(&p)
	want := DeriveIndices(layout, sig.Digest)
	if len(want) != len(sig.Indices) {
		return fmt.Errorf("%w: expected %d indices, got %d", ErrVerificationFailed, len(want), len(sig.Indices))
	}
	for k := range want {
		if want[k] != sig.Indices[k] {
			return fmt.Errorf("%w: index %d is %d, expected %d", ErrVerificationFailed, k, sig.Indices[k], want[k])
		}
	}

	for k, i := range sig.Indices {
		c, ok := layout.Binding(i)
		if !ok {
			return fmt.Errorf("%w: preimage %d is not bound", ErrVerificationFailed, i)
		}
		rebuilt, ok := layout.Open(c, i, sig.RevealedPreimages[k], sig.Companions[k])
		if !ok {
			return fmt.Errorf("%w: companions of preimage %d do not fit commitment %d", ErrMalformedSignature, i, c)
		}
		if pk.Policy == key.PolicyMerkleCompressed {
			if !merkle.VerifyProof(p.Hash, rebuilt, c, sig.MerkleProofs[k], pk.Root) {
				return fmt.Errorf("%w: commitment %d not under root", ErrVerificationFailed, c)
			}
			continue
		}
		if rebuilt != pk.Commitments[c] {
			return fmt.Errorf("%w: preimage %d does not open commitment %d", ErrVerificationFailed, i, c)
		}
	}
	return nil
}

func checkStructure(sig *Signature, pk *key.PublicKey) error {
	if sig == nil || pk == nil {
		return fmt.Errorf("%w: nil signature or public key", ErrMalformedSignature)
	}
	p := pk.Params
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	compressed := false
	switch pk.Policy {
	case key.PolicyBase, key.PolicySeedDerived:
		if len(pk.Commitments) != p.M {
			return fmt.Errorf("%w: public key has %d commitments, expected %d", ErrMalformedSignature, len(pk.Commitments), p.M)
		}
	case key.PolicyMerkleCompressed:
		compressed = true
	default:
		return fmt.Errorf("%w: unknown key policy %v", ErrMalformedSignature, pk.Policy)
	}

	k := len(sig.Indices)
	switch {
	case k == 0 || k > params.MaxReveals:
		return fmt.Errorf("%w: %d indices", ErrMalformedSignature, k)
	case len(sig.RevealedPreimages) != k || len(sig.Companions) != k:
		return fmt.Errorf("%w: %d indices, %d preimages, %d companion sets",
			ErrMalformedSignature, k, len(sig.RevealedPreimages), len(sig.Companions))
	case compressed && len(sig.MerkleProofs) != k:
		return fmt.Errorf("%w: %d Merkle proofs for %d indices", ErrMalformedSignature, len(sig.MerkleProofs), k)
	case !compressed && len(sig.MerkleProofs) != 0:
		return fmt.Errorf("%w: Merkle proofs on a %v key", ErrMalformedSignature, pk.Policy)
	}
	for _, i := range sig.Indices {
		if i < 0 || i >= p.N {
			return fmt.Errorf("%w: index %d out of range", ErrMalformedSignature, i)
		}
	}
	if compressed {
		depth := merkle.Depth(p.M)
		for k, proof := range sig.MerkleProofs {
			if len(proof) != depth {
				return fmt.Errorf("%w: proof %d has %d siblings, tree depth is %d", ErrMalformedSignature, k, len(proof), depth)
			}
		}
	}
	return nil
}
