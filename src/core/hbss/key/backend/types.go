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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sphinx-core/hbss/src/core/hbss/commit"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"github.com/sphinx-core/hbss/src/core/hbss/merkle"
	"github.com/sphinx-core/hbss/src/crypto/digest"
	"go.uber.org/zap"
)

var (
	ErrUnknownPolicy = errors.New("hbss: unknown key policy")
	ErrInvalidSeed   = errors.New("hbss: invalid seed")
	ErrInvalidKey    = errors.New("hbss: invalid key")
)

// Policy selects how a key pair is generated and what its public key contains.
type Policy uint8

const (
	PolicyBase             Policy = iota // random preimages, full commitment array public
	PolicySeedDerived                    // preimages derived from a 32-byte seed
	PolicyMerkleCompressed               // random preimages, public key is the Merkle root only
)

var policyNames = [...]string{"base", "seed-derived", "merkle-compressed"}

// String returns the canonical policy name.
func (p Policy) String() string {
	if int(p) >= len(policyNames) {
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
	return policyNames[p]
}

// ParsePolicy maps a case-insensitive name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range policyNames {
		if n == name {
			return Policy(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if int(p) >= len(policyNames) {
		return nil, ErrUnknownPolicy
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PublicKey is immutable once generated.
type PublicKey struct {
	Params      params.Parameters
	Policy      Policy
	Root        digest.Hash   // Merkle root of the commitment array
	Commitments []digest.Hash // nil for PolicyMerkleCompressed
}

// PrivateKey must be treated as a secret. It is immutable once generated and
// safe for concurrent signing.
type PrivateKey struct {
	Params params.Parameters
	Policy Policy

	seed        []byte            // PolicySeedDerived only
	preimages   []commit.Preimage // PolicyBase and PolicyMerkleCompressed
	commitments []digest.Hash     // PolicyMerkleCompressed only
	proofs      []merkle.Proof    // PolicyMerkleCompressed only, one per commitment
}

// KeyPair bundles the two halves returned by key generation.
type KeyPair struct {
	Public  *PublicKey
	Private *PrivateKey
}

// Result is delivered by GenerateKeyAsync.
type Result struct {
	KeyPair *KeyPair
	Err     error
}

// KeyManager generates HBSS key pairs for one parameter set.
type KeyManager struct {
	Params  *params.Parameters
	rand    io.Reader
	workers int
	log     *zap.Logger
}

// Option configures a KeyManager.
type Option func(*KeyManager)
