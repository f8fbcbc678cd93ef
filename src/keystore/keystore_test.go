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

package keystore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sphinx-core/hbss/src/core/hbss/bench"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

func TestPublicKeyRoundTrip(t *testing.T) {
	ks, err := Open(filepath.Join(t.TempDir(), "keystore"))
	if err != nil {
		t.Fatal(err)
	}
	defer ks.Close()

	p, _ := params.NewParameters(16, 8, 2, digest.SHA3_512)
	km, err := key.NewKeyManager(p, key.WithRandom(digest.NewDeterministicRandom([]byte("keystore"))))
	if err != nil {
		t.Fatal(err)
	}
	for _, policy := range []key.Policy{key.PolicyBase, key.PolicyMerkleCompressed} {
		kp, err := km.GenerateKey(context.Background(), policy)
		if err != nil {
			t.Fatal(err)
		}
		if err := ks.SavePublicKey(policy.String(), kp.Public); err != nil {
			t.Fatal(err)
		}
		got, err := ks.LoadPublicKey(policy.String())
		if err != nil {
			t.Fatalf("LoadPublicKey() err = %v, want nil", err)
		}
		if diff := cmp.Diff(kp.Public, got); diff != "" {
			t.Errorf("stored key differs (-want +got):\n%s", diff)
		}
	}
	if _, err := ks.LoadPublicKey("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadPublicKey(missing) err = %v, want ErrNotFound", err)
	}
}

func TestRunsInSaveOrder(t *testing.T) {
	ks, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer ks.Close()

	first, err := ks.SaveRun([]*bench.Metrics{{Scheme: bench.Base, SignTime: time.Millisecond, Verified: true}})
	if err != nil {
		t.Fatal(err)
	}
	second, err := ks.SaveRun([]*bench.Metrics{{Scheme: bench.ReferenceBaseline, SignatureSize: 17088}})
	if err != nil {
		t.Fatal(err)
	}
	runs, err := ks.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != first.ID || runs[1].ID != second.ID {
		t.Fatalf("Runs() = %+v, want [%s %s]", runs, first.ID, second.ID)
	}
	if diff := cmp.Diff(first.Results, runs[0].Results); diff != "" {
		t.Errorf("run results differ (-want +got):\n%s", diff)
	}
}
