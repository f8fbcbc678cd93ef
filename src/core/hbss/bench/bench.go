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

// Package bench drives keygen, sign and verify for each signature scheme and
// records wall-clock time per phase together with key and signature sizes.
package bench

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	sign "github.com/sphinx-core/hbss/src/core/hbss/sign/backend"
	spxkey "github.com/sphinx-core/hbss/src/core/sphincs/key/backend"
	spxsign "github.com/sphinx-core/hbss/src/core/sphincs/sign/backend"
	"github.com/sphinx-core/hbss/src/crypto/digest"
	"go.uber.org/zap"
)

// WithParameters sets the HBSS parameters; the default is n=1024, m=512, fanIn=3.
func WithParameters(p *params.Parameters) Option {
	return func(h *Harness) { h.params = p }
}

// WithRandom sets the random source for HBSS key generation.
func WithRandom(r io.Reader) Option {
	return func(h *Harness) { h.rand = r }
}

// WithWorkers bounds the goroutines used to build commitments.
func WithWorkers(n int) Option {
	return func(h *Harness) { h.workers = n }
}

// WithLogger attaches a zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.log = l
		}
	}
}

// WithObserver attaches an Observer notified after every phase.
func WithObserver(o Observer) Option {
	return func(h *Harness) { h.observer = o }
}

// NewHarness returns a Harness with the given options applied.
func NewHarness(opts ...Option) (*Harness, error) {
	h := &Harness{
		params: params.DefaultParameters(),
		rand:   digest.SystemRandom(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.params.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Benchmark runs one cycle of scheme with default parameters.
func Benchmark(ctx context.Context, scheme Scheme, message []byte) (*Metrics, error) {
	h, err := NewHarness()
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, scheme, message)
}

// Run performs keygen, sign and verify for scheme. A signature that fails to
// verify is reported in Metrics.Verified, not as an error.
func (h *Harness) Run(ctx context.Context, scheme Scheme, message []byte) (*Metrics, error) {
	run, err := h.dispatch(scheme)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := run(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("bench: %v: %w", scheme, err)
	}
	m.Scheme = scheme
	h.log.Info("benchmark finished",
		zap.Stringer("scheme", scheme),
		zap.Duration("keygen", m.KeygenTime),
		zap.Duration("sign", m.SignTime),
		zap.Duration("verify", m.VerifyTime),
		zap.Int("signatureSize", m.SignatureSize),
		zap.Bool("verified", m.Verified),
	)
	return m, nil
}

// RunAll runs every scheme in order and returns the results keyed by scheme,
// preserving that order. The first failure aborts the remaining runs.
func (h *Harness) RunAll(ctx context.Context, schemes []Scheme, message []byte) (*orderedmap.OrderedMap[Scheme, *Metrics], error) {
	out := orderedmap.NewOrderedMap[Scheme, *Metrics]()
	for _, s := range schemes {
		m, err := h.Run(ctx, s, message)
		if err != nil {
			return nil, err
		}
		out.Set(s, m)
	}
	return out, nil
}

// dispatch selects the runner of scheme.
func (h *Harness) dispatch(scheme Scheme) (runner, error) {
	switch scheme {
	case Base:
		return h.hbssRunner(key.PolicyBase), nil
	case SeedDerived:
		return h.hbssRunner(key.PolicySeedDerived), nil
	case MerkleCompressed:
		return h.hbssRunner(key.PolicyMerkleCompressed), nil
	case ReferenceBaseline:
		return h.runReference, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
	}
}

func (h *Harness) observe(scheme Scheme, phase string, d time.Duration) {
	if h.observer != nil {
		h.observer.ObservePhase(scheme.String(), phase, d)
	}
}

func (h *Harness) observeVerification(scheme Scheme, ok bool) {
	if h.observer != nil {
		h.observer.ObserveVerification(scheme.String(), ok)
	}
}

func (h *Harness) hbssRunner(policy key.Policy) runner {
	scheme := SchemeFor(policy)
	return func(ctx context.Context, message []byte) (*Metrics, error) {
		km, err := key.NewKeyManager(h.params,
			key.WithRandom(h.rand),
			key.WithWorkers(h.workers),
			key.WithLogger(h.log),
		)
		if err != nil {
			return nil, err
		}
		m := new(Metrics)

		start := time.Now()
		kp, err := km.GenerateKey(ctx, policy)
		if err != nil {
			return nil, err
		}
		m.KeygenTime = time.Since(start)
		h.observe(scheme, PhaseKeygen, m.KeygenTime)

		start = time.Now()
		sig, err := sign.Sign(message, kp.Private)
		if err != nil {
			return nil, err
		}
		m.SignTime = time.Since(start)
		h.observe(scheme, PhaseSign, m.SignTime)

		verifier := sign.NewVerifier(h.log)
		start = time.Now()
		m.Verified = verifier.Verify(message, sig, kp.Public)
		m.VerifyTime = time.Since(start)
		h.observe(scheme, PhaseVerify, m.VerifyTime)
		h.observeVerification(scheme, m.Verified)

		m.PublicKeySize = kp.Public.Size()
		m.PrivateKeySize = kp.Private.Size()
		m.SignatureSize = sig.Size()
		m.MemoryFootprint = m.PublicKeySize + kp.Private.ResidentSize()
		return m, nil
	}
}

// runReference is not cancellable once started; SPHINCS+ operations run to completion.
func (h *Harness) runReference(_ context.Context, message []byte) (*Metrics, error) {
	km, err := spxkey.NewKeyManager()
	if err != nil {
		return nil, err
	}
	sm, err := spxsign.NewSphincsManager(km, km.Params)
	if err != nil {
		return nil, err
	}
	m := new(Metrics)

	start := time.Now()
	sk, pk, err := km.GenerateKey()
	if err != nil {
		return nil, err
	}
	m.KeygenTime = time.Since(start)
	h.observe(ReferenceBaseline, PhaseKeygen, m.KeygenTime)

	start = time.Now()
	sig, err := sm.SignMessage(message, sk)
	if err != nil {
		return nil, err
	}
	m.SignTime = time.Since(start)
	h.observe(ReferenceBaseline, PhaseSign, m.SignTime)

	start = time.Now()
	m.Verified = sm.VerifySignature(message, sig, pk)
	m.VerifyTime = time.Since(start)
	h.observe(ReferenceBaseline, PhaseVerify, m.VerifyTime)
	h.observeVerification(ReferenceBaseline, m.Verified)

	skBytes, pkBytes, err := km.SerializeKeyPair(sk, pk)
	if err != nil {
		return nil, err
	}
	sigBytes, err := sm.SerializeSignature(sig)
	if err != nil {
		return nil, err
	}
	m.PublicKeySize = len(pkBytes)
	m.PrivateKeySize = len(skBytes)
	m.SignatureSize = len(sigBytes)
	m.MemoryFootprint = m.PublicKeySize + m.PrivateKeySize
	return m, nil
}

// SchemeFor returns the scheme that benchmarks keys of the given policy.
func SchemeFor(policy key.Policy) Scheme {
	switch policy {
	case key.PolicySeedDerived:
		return SeedDerived
	case key.PolicyMerkleCompressed:
		return MerkleCompressed
	default:
		return Base
	}
}
