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

// hbss/src/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sphinx-core/hbss/src/common"
	"github.com/sphinx-core/hbss/src/core/hbss/bench"
	"github.com/sphinx-core/hbss/src/core/hbss/compare"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	sign "github.com/sphinx-core/hbss/src/core/hbss/sign/backend"
	"github.com/sphinx-core/hbss/src/keystore"
	"github.com/sphinx-core/hbss/src/metrics"
	"github.com/sphinx-core/hbss/src/store"
	"go.uber.org/zap"
)

// gcInterval is how often the key registry drops expired entries.
const gcInterval = time.Minute

// NewServer creates a new HTTP server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("http: registry is required")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(cfg.Logger))
	s := &Server{
		address:  cfg.Address,
		router:   r,
		params:   cfg.Params,
		workers:  cfg.Workers,
		registry: cfg.Registry,
		keystore: cfg.Keystore,
		metrics:  cfg.Metrics,
		gatherer: cfg.Gatherer,
		verifier: sign.NewVerifier(cfg.Logger),
		log:      cfg.Logger,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes defines HTTP endpoints.
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/v1")
	v1.POST("/keys", s.handleKeygen)
	v1.GET("/keys/:id", s.handleGetKey)
	v1.POST("/sign", s.handleSign)
	v1.POST("/verify", s.handleVerify)
	v1.POST("/benchmark", s.handleBenchmark)
	v1.GET("/schemes", s.handleSchemes)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler(s.gatherer)))
}

// handleKeygen generates a key pair, keeps it in the registry and returns
// its id with the public key.
func (s *Server) handleKeygen(c *gin.Context) {
	var req keygenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	policy, err := key.ParsePolicy(req.Policy)
	if err != nil {
		s.fail(c, err)
		return
	}
	km, err := key.NewKeyManager(s.params, key.WithWorkers(s.workers), key.WithLogger(s.log))
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	start := time.Now()
	var kp *key.KeyPair
	if req.Seed != "" {
		if policy != key.PolicySeedDerived {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seed is only valid for the seed-derived policy"})
			return
		}
		seed, err := common.FixedHex2Bytes(req.Seed, params.SeedSize)
		if err != nil {
			s.fail(c, fmt.Errorf("%w: %v", key.ErrInvalidSeed, err))
			return
		}
		kp, err = km.GenerateFromSeed(ctx, seed)
		if err != nil {
			s.fail(c, err)
			return
		}
	} else {
		res := <-km.GenerateKeyAsync(ctx, policy)
		if res.Err != nil {
			s.fail(c, res.Err)
			return
		}
		kp = res.KeyPair
	}
	s.observe(policy, bench.PhaseKeygen, time.Since(start))

	id, err := s.registry.Put(kp)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.metrics != nil {
		s.metrics.SetRegistryKeys(s.registry.Len())
	}
	if s.keystore != nil {
		if err := s.keystore.SavePublicKey(string(id), kp.Public); err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, keygenResponse{ID: id, Fingerprint: kp.Public.Fingerprint(), PublicKey: kp.Public})
}

// handleGetKey returns a public key from the registry or the keystore.
func (s *Server) handleGetKey(c *gin.Context) {
	pk, err := s.publicKey(store.ID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, keygenResponse{ID: store.ID(c.Param("id")), Fingerprint: pk.Fingerprint(), PublicKey: pk})
}

// handleSign signs a message with a registered private key.
func (s *Server) handleSign(c *gin.Context) {
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := message(req.Message, req.MessageHex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kp, err := s.registry.Get(req.KeyID)
	if err != nil {
		s.fail(c, err)
		return
	}

	start := time.Now()
	sig, err := sign.Sign(msg, kp.Private)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.observe(kp.Private.Policy, bench.PhaseSign, time.Since(start))
	c.JSON(http.StatusOK, signResponse{Signature: sig, Size: sig.Size()})
}

// handleVerify checks a signature against a registered, stored or inline public key.
func (s *Server) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := message(req.Message, req.MessageHex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pk := req.PublicKey
	if pk == nil {
		if req.KeyID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "keyId or publicKey is required"})
			return
		}
		if pk, err = s.publicKey(req.KeyID); err != nil {
			s.fail(c, err)
			return
		}
	}

	start := time.Now()
	valid := s.verifier.Verify(msg, req.Signature, pk)
	s.observe(pk.Policy, bench.PhaseVerify, time.Since(start))
	if s.metrics != nil {
		s.metrics.ObserveVerification(bench.SchemeFor(pk.Policy).String(), valid)
	}
	c.JSON(http.StatusOK, verifyResponse{Valid: valid})
}

// handleBenchmark runs the requested schemes, all of them by default.
func (s *Server) handleBenchmark(c *gin.Context) {
	var req benchmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schemes := bench.AllSchemes()
	if len(req.Schemes) > 0 {
		schemes = schemes[:0]
		for _, name := range req.Schemes {
			sch, err := bench.ParseScheme(name)
			if err != nil {
				s.fail(c, err)
				return
			}
			schemes = append(schemes, sch)
		}
	}

	opts := []bench.Option{
		bench.WithParameters(s.params),
		bench.WithWorkers(s.workers),
		bench.WithLogger(s.log),
	}
	if s.metrics != nil {
		opts = append(opts, bench.WithObserver(s.metrics))
	}
	h, err := bench.NewHarness(opts...)
	if err != nil {
		s.fail(c, err)
		return
	}
	results, err := h.RunAll(c.Request.Context(), schemes, []byte(req.Message))
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := benchmarkResponse{Results: make([]*bench.Metrics, 0, results.Len())}
	for el := results.Front(); el != nil; el = el.Next() {
		resp.Results = append(resp.Results, el.Value)
	}
	if req.Persist && s.keystore != nil {
		run, err := s.keystore.SaveRun(resp.Results)
		if err != nil {
			s.fail(c, err)
			return
		}
		resp.RunID = run.ID
	}
	c.JSON(http.StatusOK, resp)
}

// handleSchemes returns the comparison table.
func (s *Server) handleSchemes(c *gin.Context) {
	c.JSON(http.StatusOK, compare.All())
}

// Start runs the HTTP server and the registry collector until ctx is done,
// then shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{Addr: s.address, Handler: s.router}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.registry.Run(ctx, gcInterval, func(size int) {
		if s.metrics != nil {
			s.metrics.SetRegistryKeys(size)
		}
	})

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("address", s.address))
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) publicKey(id store.ID) (*key.PublicKey, error) {
	kp, err := s.registry.Get(id)
	if err == nil {
		return kp.Public, nil
	}
	if s.keystore == nil {
		return nil, err
	}
	return s.keystore.LoadPublicKey(string(id))
}

func (s *Server) observe(policy key.Policy, phase string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObservePhase(bench.SchemeFor(policy).String(), phase, d)
	}
}

// fail maps err to an HTTP status and writes it as JSON.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, params.ErrInvalidParameters),
		errors.Is(err, key.ErrUnknownPolicy),
		errors.Is(err, key.ErrInvalidSeed),
		errors.Is(err, key.ErrInvalidKey),
		errors.Is(err, bench.ErrUnknownScheme):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, keystore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// message returns the hex-decoded message when one is given, the text otherwise.
func message(text, hexText string) ([]byte, error) {
	if hexText == "" {
		return []byte(text), nil
	}
	b, err := common.Hex2Bytes(hexText)
	if err != nil {
		return nil, fmt.Errorf("invalid messageHex: %w", err)
	}
	return b, nil
}

func requestLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
