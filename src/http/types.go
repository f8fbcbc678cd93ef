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

// hbss/src/http/types.go
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sphinx-core/hbss/src/core/hbss/bench"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	sign "github.com/sphinx-core/hbss/src/core/hbss/sign/backend"
	"github.com/sphinx-core/hbss/src/keystore"
	"github.com/sphinx-core/hbss/src/metrics"
	"github.com/sphinx-core/hbss/src/store"
	"go.uber.org/zap"
)

// Server handles HTTP requests.
type Server struct {
	address  string
	router   *gin.Engine
	httpSrv  *http.Server
	params   *params.Parameters
	workers  int
	registry *store.KVStore
	keystore *keystore.Keystore // optional
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	verifier *sign.Verifier
	log      *zap.Logger
}

// Config wires a Server. Registry is required; Keystore and Metrics are
// optional. Gatherer defaults to the Prometheus default registry.
type Config struct {
	Address  string
	Params   *params.Parameters
	Workers  int
	Registry *store.KVStore
	Keystore *keystore.Keystore
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type keygenRequest struct {
	Policy string `json:"policy"`
	Seed   string `json:"seed,omitempty"` // hex, seed-derived policy only
}

type keygenResponse struct {
	ID          store.ID       `json:"id"`
	Fingerprint string         `json:"fingerprint"`
	PublicKey   *key.PublicKey `json:"publicKey"`
}

type signRequest struct {
	KeyID      store.ID `json:"keyId" binding:"required"`
	Message    string   `json:"message"`
	MessageHex string   `json:"messageHex,omitempty"`
}

type signResponse struct {
	Signature *sign.Signature `json:"signature"`
	Size      int             `json:"size"`
}

type verifyRequest struct {
	KeyID      store.ID        `json:"keyId,omitempty"`
	PublicKey  *key.PublicKey  `json:"publicKey,omitempty"`
	Message    string          `json:"message"`
	MessageHex string          `json:"messageHex,omitempty"`
	Signature  *sign.Signature `json:"signature" binding:"required"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

type benchmarkRequest struct {
	Schemes []string `json:"schemes"`
	Message string   `json:"message"`
	Persist bool     `json:"persist"`
}

type benchmarkResponse struct {
	RunID   string           `json:"runId,omitempty"`
	Results []*bench.Metrics `json:"results"`
}
