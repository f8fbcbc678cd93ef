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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sphinx-core/hbss/src/core/hbss/commit"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"github.com/sphinx-core/hbss/src/core/hbss/merkle"
	"github.com/sphinx-core/hbss/src/crypto/digest"
	"go.uber.org/zap"
)

// preimageBatch is the number of preimages drawn between cancellation checks.
const preimageBatch = 128

// randMu serializes reads from random sources that are not safe for concurrent use.
var randMu sync.Mutex

// WithRandom injects the random source used for preimages and seeds.
func WithRandom(r io.Reader) Option {
	return func(km *KeyManager) { km.rand = r }
}

// WithLogger attaches a zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(km *KeyManager) {
		if l != nil {
			km.log = l
		}
	}
}

// WithWorkers bounds the goroutines used to hash commitments.
// Zero or less selects runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(km *KeyManager) { km.workers = n }
}

// NewKeyManager initializes a KeyManager for the given parameters.
// The default random source is the system CSPRNG.
func NewKeyManager(p *params.Parameters, opts ...Option) (*KeyManager, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cp := *p
	km := &KeyManager{
		Params: &cp,
		rand:   digest.SystemRandom(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(km)
	}
	return km, nil
}

// Keygen generates a key pair with the default fan-in, hash function and
// random source.
func Keygen(ctx context.Context, policy Policy, n, m int) (*KeyPair, error) {
	p, err := params.NewParameters(n, m, params.DefaultFanIn, digest.SHA512)
	if err != nil {
		return nil, err
	}
	km, err := NewKeyManager(p)
	if err != nil {
		return nil, err
	}
	return km.GenerateKey(ctx, policy)
}

// GenerateKey generates a new key pair under policy. Seed-derived keys draw
// a fresh seed from the random source. The call is CPU bound; cancellation
// is checked between preimage and commitment batches and no partial key is
// ever returned.
func (km *KeyManager) GenerateKey(ctx context.Context, policy Policy) (*KeyPair, error) {
	switch policy {
	case PolicyBase, PolicyMerkleCompressed:
		start := time.Now()
		preimages, err := km.randomPreimages(ctx)
		if err != nil {
			return nil, err
		}
		kp, err := km.assemble(ctx, policy, nil, preimages)
		if err != nil {
			return nil, err
		}
		km.logGenerated(policy, start)
		return kp, nil
	case PolicySeedDerived:
		seed := make([]byte, params.SeedSize)
		if err := km.read(seed); err != nil {
			return nil, err
		}
		return km.GenerateFromSeed(ctx, seed)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, policy)
	}
}

// GenerateFromSeed deterministically derives a seed-derived key pair:
// preimage i is H(seed || be32(i)). No randomness is consumed.
func (km *KeyManager) GenerateFromSeed(ctx context.Context, seed []byte) (*KeyPair, error) {
	if len(seed) != params.SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSeed, params.SeedSize, len(seed))
	}
	start := time.Now()
	s := append([]byte(nil), seed...)

	preimages := make([]commit.Preimage, km.Params.N)
	for i := range preimages {
		if i%preimageBatch == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		preimages[i] = DerivePreimage(km.Params.Hash, s, i)
	}
	kp, err := km.assemble(ctx, PolicySeedDerived, s, preimages)
	if err != nil {
		return nil, err
	}
	km.logGenerated(PolicySeedDerived, start)
	return kp, nil
}

// GenerateKeyAsync runs GenerateKey on a background goroutine. The returned
// channel yields exactly one Result and is then closed.
func (km *KeyManager) GenerateKeyAsync(ctx context.Context, policy Policy) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		kp, err := km.GenerateKey(ctx, policy)
		out <- Result{KeyPair: kp, Err: err}
	}()
	return out
}

// DerivePreimage returns H(seed || be32(i)).
func DerivePreimage(fn digest.Func, seed []byte, i int) commit.Preimage {
	return commit.Preimage(fn.Sum(seed, digest.Uint32(uint32(i))))
}

func (km *KeyManager) read(p []byte) error {
	randMu.Lock()
	defer randMu.Unlock()
	return digest.ReadFull(km.rand, p)
}

func (km *KeyManager) randomPreimages(ctx context.Context) ([]commit.Preimage, error) {
	preimages := make([]commit.Preimage, km.Params.N)
	buf := make([]byte, preimageBatch*params.PreimageSize)
	for start := 0; start < len(preimages); start += preimageBatch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + preimageBatch
		if end > len(preimages) {
			end = len(preimages)
		}
		chunk := buf[:(end-start)*params.PreimageSize]
		if err := km.read(chunk); err != nil {
			return nil, err
		}
		for i := start; i < end; i++ {
			copy(preimages[i][:], chunk[(i-start)*params.PreimageSize:])
		}
	}
	return preimages, nil
}

// assemble builds commitments and the Merkle tree, then splits the material
// into public and private halves according to policy.
func (km *KeyManager) assemble(ctx context.Context, policy Policy, seed []byte, preimages []commit.Preimage) (*KeyPair, error) {
	layout := commit.LayoutFor(km.Params)
	commitments, err := commit.NewBuilder(km.workers).Build(ctx, layout, func(i int) commit.Preimage { return preimages[i] })
	if err != nil {
		return nil, err
	}
	tree, err := merkle.Build(km.Params.Hash, commitments)
	if err != nil {
		return nil, err
	}

	pk := &PublicKey{Params: *km.Params, Policy: policy, Root: tree.Root()}
	sk := &PrivateKey{Params: *km.Params, Policy: policy}
	switch policy {
	case PolicyBase:
		pk.Commitments = commitments
		sk.preimages = preimages
	case PolicySeedDerived:
		pk.Commitments = commitments
		sk.seed = seed
	case PolicyMerkleCompressed:
		sk.preimages = preimages
		sk.commitments = commitments
		sk.proofs = tree.ProveAll()
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, policy)
	}
	return &KeyPair{Public: pk, Private: sk}, nil
}

func (km *KeyManager) logGenerated(policy Policy, start time.Time) {
	km.log.Debug("generated key pair",
		zap.Stringer("policy", policy),
		zap.Int("n", km.Params.N),
		zap.Int("m", km.Params.M),
		zap.Int("fanIn", km.Params.FanIn),
		zap.Stringer("hash", km.Params.Hash),
		zap.Duration("duration", time.Since(start)),
	)
}

// M returns the number of commitments.
func (pk *PublicKey) M() int {
	return pk.Params.M
}

// N returns the number of preimages.
func (sk *PrivateKey) N() int {
	return sk.Params.N
}

// Preimage returns preimage i. Seed-derived keys recompute it from the seed.
func (sk *PrivateKey) Preimage(i int) commit.Preimage {
	if sk.Policy == PolicySeedDerived {
		return DerivePreimage(sk.Params.Hash, sk.seed, i)
	}
	return sk.preimages[i]
}

// Seed returns a copy of the seed of a seed-derived key, or nil.
func (sk *PrivateKey) Seed() []byte {
	if sk.seed == nil {
		return nil
	}
	return append([]byte(nil), sk.seed...)
}

// Proof returns the precomputed inclusion proof of commitment c for
// Merkle-compressed keys.
func (sk *PrivateKey) Proof(c int) (merkle.Proof, error) {
	if sk.Policy != PolicyMerkleCompressed {
		return nil, fmt.Errorf("%w: %v keys carry no proofs", ErrInvalidKey, sk.Policy)
	}
	if c < 0 || c >= len(sk.proofs) {
		return nil, fmt.Errorf("%w: %d", merkle.ErrIndexOutOfRange, c)
	}
	return sk.proofs[c], nil
}

// Commitments returns the commitment array retained by a Merkle-compressed
// private key, or nil for other policies.
func (sk *PrivateKey) Commitments() []digest.Hash {
	return append([]digest.Hash(nil), sk.commitments...)
}
