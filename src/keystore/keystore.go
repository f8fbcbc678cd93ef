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

// hbss/src/keystore/keystore.go

// Package keystore persists exported public keys and benchmark runs in LevelDB.
// Private keys are never written.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/sphinx-core/hbss/src/core/hbss/bench"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned when no record exists under the requested id.
var ErrNotFound = errors.New("keystore: not found")

var (
	publicKeyPrefix = []byte("pk/")
	runPrefix       = []byte("run/")
)

// Run is one persisted benchmark invocation.
type Run struct {
	ID      string           `json:"id"`
	Time    time.Time        `json:"time"`
	Results []*bench.Metrics `json:"results"`
}

// Keystore wraps a LevelDB instance.
type Keystore struct {
	db  *leveldb.DB
	seq atomic.Uint64
}

// Open opens, creating if needed, the keystore database at path.
func Open(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB: %w", err)
	}
	return &Keystore{db: db}, nil
}

// OpenMemory opens a keystore backed by memory only.
func OpenMemory() (*Keystore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB: %w", err)
	}
	return &Keystore{db: db}, nil
}

// SavePublicKey stores the export of pk under id, replacing any previous value.
func (k *Keystore) SavePublicKey(id string, pk *key.PublicKey) error {
	data, err := pk.Export()
	if err != nil {
		return err
	}
	if err := k.db.Put(dbKey(publicKeyPrefix, id), data, nil); err != nil {
		return fmt.Errorf("failed to save public key in LevelDB: %w", err)
	}
	return nil
}

// LoadPublicKey returns the public key stored under id.
func (k *Keystore) LoadPublicKey(id string) (*key.PublicKey, error) {
	data, err := k.db.Get(dbKey(publicKeyPrefix, id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: public key %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load public key from LevelDB: %w", err)
	}
	return key.ImportPublicKey(data)
}

// SaveRun stores a benchmark run and returns its id. Ids sort in save order.
func (k *Keystore) SaveRun(results []*bench.Metrics) (*Run, error) {
	now := time.Now().UTC()
	run := &Run{
		ID:      fmt.Sprintf("%020d-%06d", now.UnixNano(), k.seq.Add(1)%1_000_000),
		Time:    now,
		Results: results,
	}
	data, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}
	if err := k.db.Put(dbKey(runPrefix, run.ID), data, nil); err != nil {
		return nil, fmt.Errorf("failed to save run in LevelDB: %w", err)
	}
	return run, nil
}

// Runs returns every stored benchmark run, oldest first.
func (k *Keystore) Runs() ([]*Run, error) {
	iter := k.db.NewIterator(util.BytesPrefix(runPrefix), nil)
	defer iter.Release()

	var runs []*Run
	for iter.Next() {
		run := new(Run)
		if err := json.Unmarshal(iter.Value(), run); err != nil {
			return nil, fmt.Errorf("corrupt run %s: %w", iter.Key(), err)
		}
		runs = append(runs, run)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return runs, nil
}

func dbKey(prefix []byte, id string) []byte {
	k := make([]byte, 0, len(prefix)+len(id))
	return append(append(k, prefix...), id...)
}

// Close closes the LevelDB database.
func (k *Keystore) Close() error {
	return k.db.Close()
}
