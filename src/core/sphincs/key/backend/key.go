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

// hbss/src/core/sphincs/key/backend/key.go
package key

import (
	"errors"
	"fmt"

	"github.com/kasperdi/SPHINCSPLUS-golang/sphincs"
	params "github.com/sphinx-core/hbss/src/core/sphincs/config"
)

var (
	// ErrNoParameters is returned by a KeyManager built without parameters.
	ErrNoParameters = errors.New("sphincs: missing parameters")
	// ErrKeygen is returned when the library hands back an empty key.
	ErrKeygen = errors.New("sphincs: key generation failed")
)

// KeyManager generates and (de)serializes SPHINCS+ keys for the reference baseline.
type KeyManager struct {
	Params *params.SPHINCSParameters
}

// NewKeyManager returns a KeyManager for the baseline parameter set.
func NewKeyManager() (*KeyManager, error) {
	p, err := params.NewSPHINCSParameters()
	if err != nil {
		return nil, err
	}
	return &KeyManager{Params: p}, nil
}

func (km *KeyManager) check() error {
	if km == nil || km.Params == nil || km.Params.Params == nil {
		return ErrNoParameters
	}
	return nil
}

// GenerateKey draws a fresh key pair.
func (km *KeyManager) GenerateKey() (*sphincs.SPHINCS_SK, *sphincs.SPHINCS_PK, error) {
	if err := km.check(); err != nil {
		return nil, nil, err
	}
	sk, pk := sphincs.Spx_keygen(km.Params.Params)
	switch {
	case sk == nil || pk == nil:
		return nil, nil, fmt.Errorf("%w: nil key", ErrKeygen)
	case len(sk.SKseed) == 0 || len(pk.PKseed) == 0:
		return nil, nil, fmt.Errorf("%w: empty seed", ErrKeygen)
	}
	return sk, pk, nil
}

// SerializeSK encodes sk as SKseed || SKprf || PKseed || PKroot, the layout
// sphincs.DeserializeSK reads. The library has no encoder of its own.
func SerializeSK(sk *sphincs.SPHINCS_SK) ([]byte, error) {
	if sk == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrKeygen)
	}
	out := make([]byte, 0, len(sk.SKseed)+len(sk.SKprf)+len(sk.PKseed)+len(sk.PKroot))
	for _, part := range [][]byte{sk.SKseed, sk.SKprf, sk.PKseed, sk.PKroot} {
		out = append(out, part...)
	}
	return out, nil
}

// SerializeKeyPair encodes both halves of a key pair.
func (km *KeyManager) SerializeKeyPair(sk *sphincs.SPHINCS_SK, pk *sphincs.SPHINCS_PK) (skBytes, pkBytes []byte, err error) {
	if pk == nil {
		return nil, nil, fmt.Errorf("%w: nil public key", ErrKeygen)
	}
	if skBytes, err = SerializeSK(sk); err != nil {
		return nil, nil, err
	}
	if pkBytes, err = pk.SerializePK(); err != nil {
		return nil, nil, fmt.Errorf("sphincs: encode public key: %w", err)
	}
	return skBytes, pkBytes, nil
}

// DeserializeKeyPair is the inverse of SerializeKeyPair.
func (km *KeyManager) DeserializeKeyPair(skBytes, pkBytes []byte) (*sphincs.SPHINCS_SK, *sphincs.SPHINCS_PK, error) {
	if err := km.check(); err != nil {
		return nil, nil, err
	}
	sk, err := sphincs.DeserializeSK(km.Params.Params, skBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("sphincs: decode private key: %w", err)
	}
	pk, err := sphincs.DeserializePK(km.Params.Params, pkBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("sphincs: decode public key: %w", err)
	}
	return sk, pk, nil
}
