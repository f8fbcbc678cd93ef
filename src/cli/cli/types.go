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

// hbss/src/cli/cli/types.go
package cli

import (
	"errors"
	"io"

	"github.com/sphinx-core/hbss/src/common"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned by the verify command when the signature
// does not check out, so that the process exits non-zero.
var ErrInvalidSignature = errors.New("signature is not valid")

// env is what every command runs with once flags and config are loaded.
type env struct {
	cfg    *common.Config
	params *params.Parameters
	log    *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

// KeygenResult is printed by the keygen command.
type KeygenResult struct {
	Fingerprint    string     `json:"fingerprint"`
	Policy         key.Policy `json:"policy"`
	PublicKeyPath  string     `json:"publicKeyPath"`
	PrivateKeyPath string     `json:"privateKeyPath"`
	PublicKeySize  int        `json:"publicKeySize"`
	PrivateKeySize int        `json:"privateKeySize"`
}

// VerifyResult is printed by the verify command.
type VerifyResult struct {
	Valid       bool   `json:"valid"`
	Fingerprint string `json:"fingerprint"`
}

// BenchReport is printed by the bench command with -json.
type BenchReport struct {
	RunID      string        `json:"runId,omitempty"`
	ReportPath string        `json:"reportPath,omitempty"`
	Parameters string        `json:"parameters"`
	Results    []*BenchEntry `json:"results"`
}

// BenchEntry is one row of a BenchReport, with human readable columns.
type BenchEntry struct {
	Scheme         string `json:"scheme"`
	Keygen         string `json:"keygen"`
	Sign           string `json:"sign"`
	Verify         string `json:"verify"`
	PublicKeySize  string `json:"publicKeySize"`
	PrivateKeySize string `json:"privateKeySize"`
	SignatureSize  string `json:"signatureSize"`
	Verified       bool   `json:"verified"`
}
