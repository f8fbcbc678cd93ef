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

// hbss/src/core/sphincs/sign/backend/sign.go
package sign

import (
	"errors"

	"github.com/kasperdi/SPHINCSPLUS-golang/sphincs"
	params "github.com/sphinx-core/hbss/src/core/sphincs/config"
	key "github.com/sphinx-core/hbss/src/core/sphincs/key/backend"
)

// SphincsManager signs and verifies with the reference SPHINCS+ parameter set.
type SphincsManager struct {
	keyManager *key.KeyManager
	parameters *params.SPHINCSParameters
}

// NewSphincsManager creates a new instance of SphincsManager with a KeyManager and its parameters.
func NewSphincsManager(keyManager *key.KeyManager, parameters *params.SPHINCSParameters) (*SphincsManager, error) {
	if keyManager == nil || parameters == nil || parameters.Params == nil {
		return nil, errors.New("KeyManager or SPHINCSParameters are not properly initialized")
	}
	return &SphincsManager{keyManager: keyManager, parameters: parameters}, nil
}

// SignMessage signs a given message using the secret key.
func (sm *SphincsManager) SignMessage(message []byte, sk *sphincs.SPHINCS_SK) (*sphincs.SPHINCS_SIG, error) {
	if sk == nil {
		return nil, errors.New("private key is nil")
	}
	signature := sphincs.Spx_sign(sm.parameters.Params, message, sk)
	if signature == nil {
		return nil, errors.New("failed to sign message")
	}
	return signature, nil
}

// VerifySignature verifies if a signature is valid for a given message and public key.
func (sm *SphincsManager) VerifySignature(message []byte, sig *sphincs.SPHINCS_SIG, pk *sphincs.SPHINCS_PK) bool {
	if sig == nil || pk == nil {
		return false
	}
	return sphincs.Spx_verify(sm.parameters.Params, message, sig, pk)
}
