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

// Package store keeps generated key pairs in memory for a limited time so
// that private keys never have to leave the process.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/minio/highwayhash"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
)

// ErrNotFound is returned for unknown or expired ids.
var ErrNotFound = errors.New("store: key not found")

// idSize is the number of checksum bytes encoded into an ID.
const idSize = 16

// ID identifies a stored key pair.
type ID string

type stored struct {
	pair *key.KeyPair
	ttl  time.Time
}

// KVStore is an in-memory registry of key pairs addressed by a keyed
// HighwayHash checksum of their public key.
type KVStore struct {
	mu      sync.Mutex
	hashKey []byte
	ttl     time.Duration
	data    map[ID]*stored
	now     func() time.Time
}

// NewKVStore creates a registry whose entries expire ttl after their last Put.
func NewKVStore(ttl time.Duration) (*KVStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("store: ttl must be positive, got %v", ttl)
	}
	hashKey := make([]byte, 32)
	if _, err := rand.Read(hashKey); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &KVStore{
		hashKey: hashKey,
		ttl:     ttl,
		data:    make(map[ID]*stored),
		now:     time.Now,
	}, nil
}

// Put stores kp and returns its ID. Storing the same public key again
// returns the same ID and refreshes its expiry.
func (s *KVStore) Put(kp *key.KeyPair) (ID, error) {
	if kp == nil || kp.Public == nil || kp.Private == nil {
		return "", fmt.Errorf("%w: incomplete key pair", key.ErrInvalidKey)
	}
	id, err := s.checksum(kp.Public)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = &stored{pair: kp, ttl: s.now().Add(s.ttl)}
	return id, nil
}

// Get returns the key pair stored under id.
func (s *KVStore) Get(id ID) (*key.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[id]
	if !ok || rec.ttl.Before(s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.pair, nil
}

// Delete removes id; deleting an unknown id is a no-op.
func (s *KVStore) Delete(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}

// Len returns the number of entries, including expired ones not yet collected.
func (s *KVStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// GC performs garbage collection on expired entries and returns how many were removed.
func (s *KVStore) GC() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.data {
		if rec.ttl.Before(now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run calls GC every interval until ctx is done. onGC, if set, receives the
// registry size after each collection.
func (s *KVStore) Run(ctx context.Context, interval time.Duration, onGC func(size int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.GC()
			if onGC != nil {
				onGC(s.Len())
			}
		}
	}
}

// checksum computes the ID of a public key using HighwayHash.
func (s *KVStore) checksum(pk *key.PublicKey) (ID, error) {
	data, err := pk.Export()
	if err != nil {
		return "", err
	}
	sum := highwayhash.Sum(data, s.hashKey)
	return ID(hex.EncodeToString(sum[:idSize])), nil
}
