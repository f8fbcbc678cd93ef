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

package sign

import (
	"bytes"
	"testing"

	key "github.com/sphinx-core/hbss/src/core/sphincs/key/backend"
)

func newManager(t *testing.T) (*SphincsManager, *key.KeyManager) {
	t.Helper()
	km, err := key.NewKeyManager()
	if err != nil {
		t.Fatal(err)
	}
	sm, err := NewSphincsManager(km, km.Params)
	if err != nil {
		t.Fatal(err)
	}
	return sm, km
}

func TestSignVerifyRoundTrip(t *testing.T) {
	sm, km := newManager(t)
	sk, pk, err := km.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("reference baseline")
	sig, err := sm.SignMessage(msg, sk)
	if err != nil {
		t.Fatal(err)
	}
	if !sm.VerifySignature(msg, sig, pk) {
		t.Fatal("VerifySignature() = false, want true")
	}
	if sm.VerifySignature([]byte("reference baselinf"), sig, pk) {
		t.Error("VerifySignature() accepted a different message")
	}

	sigBytes, err := sm.SerializeSignature(sig)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := sm.DeserializeSignature(sigBytes)
	if err != nil {
		t.Fatalf("DeserializeSignature() err = %v, want nil", err)
	}
	if !sm.VerifySignature(msg, decoded, pk) {
		t.Error("decoded signature does not verify")
	}
}

func TestKeyPairSerialization(t *testing.T) {
	sm, km := newManager(t)
	sk, pk, err := km.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	skBytes, pkBytes, err := km.SerializeKeyPair(sk, pk)
	if err != nil {
		t.Fatal(err)
	}
	if len(skBytes) != km.Params.SecretKeySize() || len(pkBytes) != km.Params.PublicKeySize() {
		t.Errorf("sizes = %d/%d, want %d/%d", len(skBytes), len(pkBytes), km.Params.SecretKeySize(), km.Params.PublicKeySize())
	}
	sk2, pk2, err := km.DeserializeKeyPair(skBytes, pkBytes)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sk2.SKseed, sk.SKseed) || !bytes.Equal(pk2.PKroot, pk.PKroot) {
		t.Error("key pair changed across serialization")
	}
	sig, err := sm.SignMessage([]byte("m"), sk2)
	if err != nil {
		t.Fatal(err)
	}
	if !sm.VerifySignature([]byte("m"), sig, pk) {
		t.Error("signature from a deserialized key does not verify")
	}
}

func TestNilInputs(t *testing.T) {
	if _, err := NewSphincsManager(nil, nil); err == nil {
		t.Error("NewSphincsManager(nil) err = nil, want an error")
	}
	sm, _ := newManager(t)
	if _, err := sm.SignMessage([]byte("m"), nil); err == nil {
		t.Error("SignMessage(nil key) err = nil, want an error")
	}
	if sm.VerifySignature([]byte("m"), nil, nil) {
		t.Error("VerifySignature(nil) = true, want false")
	}
	if _, err := key.SerializeSK(nil); err == nil {
		t.Error("SerializeSK(nil) err = nil, want an error")
	}
}
