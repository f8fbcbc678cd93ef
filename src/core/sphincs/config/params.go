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

// hbss/src/core/sphincs/config/params.go
package params

import (
	"errors"

	"github.com/kasperdi/SPHINCSPLUS-golang/parameters"
)

// Name identifies the parameter set used as the benchmark reference.
const Name = "SPHINCS+-SHAKE256-128f-robust"

// SPHINCSParameters wraps the SPHINCS+ parameter configuration.
type SPHINCSParameters struct {
	Params *parameters.Parameters
}

// NewSPHINCSParameters initializes SPHINCS+ parameters for SHAKE256-128f-robust (NIST level 1).
// Signing is deterministic: the optional randomizer is disabled.
func NewSPHINCSParameters() (*SPHINCSParameters, error) {
	params := parameters.MakeSphincsPlusSHAKE256128fRobust(false)
	if params == nil {
		return nil, errors.New("failed to initialize SPHINCS+ parameters")
	}
	return &SPHINCSParameters{Params: params}, nil
}

// SecretKeySize is the serialized secret key size: SKseed, SKprf, PKseed and PKroot.
func (p *SPHINCSParameters) SecretKeySize() int {
	return 4 * p.Params.N
}

// PublicKeySize is the serialized public key size: PKseed and PKroot.
func (p *SPHINCSParameters) PublicKeySize() int {
	return 2 * p.Params.N
}
