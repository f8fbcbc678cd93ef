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

package key

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/sphinx-core/hbss/src/core/hbss/commit"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"github.com/sphinx-core/hbss/src/core/hbss/merkle"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

// fingerprintSize is the number of hash bytes encoded into a fingerprint.
const fingerprintSize = 20

type publicKeyJSON struct {
	Policy      Policy        `json:"policy"`
	Hash        digest.Func   `json:"hash"`
	N           int           `json:"n"`
	M           int           `json:"m"`
	FanIn       int           `json:"fanIn"`
	Root        digest.Hash   `json:"root"`
	Commitments []digest.Hash `json:"commitments,omitempty"`
}

type privateKeyJSON struct {
	Policy    Policy            `json:"policy"`
	Hash      digest.Func       `json:"hash"`
	N         int               `json:"n"`
	M         int               `json:"m"`
	FanIn     int               `json:"fanIn"`
	Seed      string            `json:"seed,omitempty"`
	Preimages []commit.Preimage `json:"preimages,omitempty"`
}

// MarshalJSON encodes the public key. Merkle-compressed keys carry only the root.
func (pk *PublicKey) MarshalJSON() ([]byte, error) {
	out := publicKeyJSON{
		Policy: pk.Policy,
		Hash:   pk.Params.Hash,
		N:      pk.Params.N,
		M:      pk.Params.M,
		FanIn:  pk.Params.FanIn,
		Root:   pk.Root,
	}
	if pk.Policy != PolicyMerkleCompressed {
		out.Commitments = pk.Commitments
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates a public key. The root of a key that
// ships its commitments must match the commitments.
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var in publicKeyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	p, err := params.NewParameters(in.N, in.M, in.FanIn, in.Hash)
	if err != nil {
		return err
	}
	switch in.Policy {
	case PolicyBase, PolicySeedDerived:
		if len(in.Commitments) != p.M {
			return fmt.Errorf("%w: expected %d commitments, got %d", ErrInvalidKey, p.M, len(in.Commitments))
		}
		root, err := merkle.Root(p.Hash, in.Commitments)
		if err != nil {
			return err
		}
		if root != in.Root {
			return fmt.Errorf("%w: root does not match commitments", ErrInvalidKey)
		}
	case PolicyMerkleCompressed:
		if len(in.Commitments) != 0 {
			return fmt.Errorf("%w: compressed key carries commitments", ErrInvalidKey)
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownPolicy, in.Policy)
	}
	*pk = PublicKey{Params: *p, Policy: in.Policy, Root: in.Root, Commitments: in.Commitments}
	return nil
}

// Export returns the JSON form of the public key.
func (pk *PublicKey) Export() ([]byte, error) {
	return json.Marshal(pk)
}

// ImportPublicKey parses the output of PublicKey.Export.
func ImportPublicKey(data []byte) (*PublicKey, error) {
	pk := new(PublicKey)
	if err := json.Unmarshal(data, pk); err != nil {
		return nil, err
	}
	return pk, nil
}

// Size is the number of bytes of public key material: the commitment array,
// or the root alone for Merkle-compressed keys.
func (pk *PublicKey) Size() int {
	if pk.Policy == PolicyMerkleCompressed {
		return digest.Size
	}
	return len(pk.Commitments) * digest.Size
}

// Fingerprint is a short base58 identifier of the public key.
func (pk *PublicKey) Fingerprint() string {
	data, err := pk.Export()
	if err != nil {
		return ""
	}
	sum := pk.Params.Hash.Sum(data)
	return base58.Encode(sum[:fingerprintSize])
}

// Export returns the JSON form of the private key: the seed of a
// seed-derived key, the preimage array otherwise. Derived material such as
// commitments and proofs is rebuilt on import.
func (sk *PrivateKey) Export() ([]byte, error) {
	out := privateKeyJSON{
		Policy: sk.Policy,
		Hash:   sk.Params.Hash,
		N:      sk.Params.N,
		M:      sk.Params.M,
		FanIn:  sk.Params.FanIn,
	}
	switch sk.Policy {
	case PolicySeedDerived:
		out.Seed = hex.EncodeToString(sk.seed)
	case PolicyBase, PolicyMerkleCompressed:
		out.Preimages = sk.preimages
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, sk.Policy)
	}
	return json.Marshal(out)
}

// ImportPrivateKey parses the output of PrivateKey.Export and rebuilds the
// full key pair.
func ImportPrivateKey(ctx context.Context, data []byte, opts ...Option) (*KeyPair, error) {
	var in privateKeyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	p, err := params.NewParameters(in.N, in.M, in.FanIn, in.Hash)
	if err != nil {
		return nil, err
	}
	km, err := NewKeyManager(p, opts...)
	if err != nil {
		return nil, err
	}
	switch in.Policy {
	case PolicySeedDerived:
		seed, err := hex.DecodeString(in.Seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
		}
		return km.GenerateFromSeed(ctx, seed)
	case PolicyBase, PolicyMerkleCompressed:
		if len(in.Preimages) != p.N {
			return nil, fmt.Errorf("%w: expected %d preimages, got %d", ErrInvalidKey, p.N, len(in.Preimages))
		}
		return km.assemble(ctx, in.Policy, nil, in.Preimages)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, in.Policy)
	}
}

// Size is the number of bytes of exported private key material.
func (sk *PrivateKey) Size() int {
	if sk.Policy == PolicySeedDerived {
		return len(sk.seed)
	}
	return len(sk.preimages) * params.PreimageSize
}

// ResidentSize is the in-memory footprint of the private key, including
// retained commitments and precomputed proofs.
func (sk *PrivateKey) ResidentSize() int {
	size := sk.Size() + len(sk.commitments)*digest.Size
	for _, p := range sk.proofs {
		size += len(p) * digest.Size
	}
	return size
}
