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

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lni/goutils/leaktest"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

func testPair(t *testing.T, label string) *key.KeyPair {
	t.Helper()
	p, _ := params.NewParameters(16, 8, 2, digest.SHA512)
	km, err := key.NewKeyManager(p, key.WithRandom(digest.NewDeterministicRandom([]byte(label))))
	if err != nil {
		t.Fatal(err)
	}
	kp, err := km.GenerateKey(context.Background(), key.PolicyBase)
	if err != nil {
		t.Fatal(err)
	}
	return kp
}

func TestPutGet(t *testing.T) {
	s, err := NewKVStore(time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	a, b := testPair(t, "a"), testPair(t, "b")
	idA, err := s.Put(a)
	if err != nil {
		t.Fatal(err)
	}
	idB, err := s.Put(b)
	if err != nil {
		t.Fatal(err)
	}
	if idA == idB || len(idA) != 2*idSize {
		t.Fatalf("ids = %q, %q, want distinct %d-char ids", idA, idB, 2*idSize)
	}
	got, err := s.Get(idA)
	if err != nil || got != a {
		t.Errorf("Get(idA) = %p, %v, want %p", got, err, a)
	}

	again, err := s.Put(a)
	if err != nil || again != idA {
		t.Errorf("Put(same key) = %q, %v, want %q", again, err, idA)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	s.Delete(idA)
	if _, err := s.Get(idA); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) err = %v, want ErrNotFound", err)
	}
	if _, err := s.Put(&key.KeyPair{}); !errors.Is(err, key.ErrInvalidKey) {
		t.Errorf("Put(empty) err = %v, want ErrInvalidKey", err)
	}
}

func TestExpiry(t *testing.T) {
	s, err := NewKVStore(time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	id, err := s.Put(testPair(t, "expiring"))
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(expired) err = %v, want ErrNotFound", err)
	}
	if removed := s.GC(); removed != 1 || s.Len() != 0 {
		t.Errorf("GC() removed %d, Len() = %d, want 1, 0", removed, s.Len())
	}
	if _, err := NewKVStore(0); err == nil {
		t.Error("NewKVStore(0) err = nil, want an error")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	defer leaktest.AfterTest(t)()
	s, err := NewKVStore(time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, time.Millisecond, func(size int) {
			select {
			case ticks <- size:
			default:
			}
		})
	}()
	if size := <-ticks; size != 0 {
		t.Errorf("size after GC = %d, want 0", size)
	}
	cancel()
	<-done
}
