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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sphinx-core/hbss/src/common"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	"github.com/sphinx-core/hbss/src/keystore"
)

// writeConfig writes a small-parameter configuration rooted in a temp dir.
func writeConfig(t *testing.T) (string, *common.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := common.DefaultConfig()
	cfg.N, cfg.M, cfg.FanIn = 64, 16, 2
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.LogLevel = "error"
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path, cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func keygen(t *testing.T, config string, extra ...string) *KeygenResult {
	t.Helper()
	out, err := run(t, append([]string{"keygen", "-config", config}, extra...)...)
	if err != nil {
		t.Fatal(err)
	}
	var res KeygenResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("bad keygen output %q: %v", out, err)
	}
	return &res
}

func TestKeygenSignVerify(t *testing.T) {
	config, _ := writeConfig(t)
	for _, policy := range []key.Policy{key.PolicyBase, key.PolicySeedDerived, key.PolicyMerkleCompressed} {
		t.Run(policy.String(), func(t *testing.T) {
			res := keygen(t, config, "-policy", policy.String())
			if res.Policy != policy {
				t.Fatalf("policy %v, want %v", res.Policy, policy)
			}
			info, err := os.Stat(res.PrivateKeyPath)
			if err != nil {
				t.Fatal(err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("private key mode %v", perm)
			}

			sigPath := filepath.Join(t.TempDir(), "sig.json")
			if _, err := run(t, "sign", "-config", config, "-key", res.PrivateKeyPath, "-message", "hello", "-out", sigPath); err != nil {
				t.Fatal(err)
			}

			out, err := run(t, "verify", "-config", config, "-pub", res.PublicKeyPath, "-sig", sigPath, "-message", "hello")
			if err != nil {
				t.Fatal(err)
			}
			var vr VerifyResult
			if err := json.Unmarshal([]byte(out), &vr); err != nil {
				t.Fatal(err)
			}
			if !vr.Valid || vr.Fingerprint != res.Fingerprint {
				t.Fatalf("verify result %+v", vr)
			}

			// Same signature, looked up by fingerprint, wrong message.
			_, err = run(t, "verify", "-config", config, "-key-id", res.Fingerprint, "-sig", sigPath, "-message", "other")
			if !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestKeygenSeedIsDeterministic(t *testing.T) {
	config, _ := writeConfig(t)
	seed := strings.Repeat("5a", 32)
	a := keygen(t, config, "-policy", "seed-derived", "-seed", seed)
	b := keygen(t, config, "-policy", "seed-derived", "-seed", seed)
	if a.Fingerprint != b.Fingerprint {
		t.Fatal("same seed produced different keys")
	}
	if a.PrivateKeySize != 32 {
		t.Fatalf("seed-derived private key size %d, want 32", a.PrivateKeySize)
	}
}

func TestKeygenRejectsBadInput(t *testing.T) {
	config, _ := writeConfig(t)
	tests := [][]string{
		{"-policy", "unknown"},
		{"-policy", "base", "-seed", "00"},
		{"-policy", "seed-derived", "-seed", "00"},
	}
	for _, args := range tests {
		if _, err := run(t, append([]string{"keygen", "-config", config}, args...)...); err == nil {
			t.Errorf("keygen %v: expected an error", args)
		}
	}
}

func TestSignToStdoutAndMessageFile(t *testing.T) {
	config, _ := writeConfig(t)
	res := keygen(t, config)
	msgPath := filepath.Join(t.TempDir(), "msg.bin")
	if err := os.WriteFile(msgPath, []byte{0, 1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "sign", "-config", config, "-key", res.PrivateKeyPath, "-message-file", msgPath)
	if err != nil {
		t.Fatal(err)
	}
	sigPath := filepath.Join(t.TempDir(), "sig.json")
	if err := os.WriteFile(sigPath, []byte(out), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "verify", "-config", config, "-pub", res.PublicKeyPath, "-sig", sigPath, "-message-file", msgPath); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "sign", "-config", config, "-key", res.PrivateKeyPath, "-message", "x", "-message-file", msgPath); err == nil {
		t.Fatal("expected an error for both -message and -message-file")
	}
}

func TestBenchPersistsRun(t *testing.T) {
	config, cfg := writeConfig(t)
	out, err := run(t, "bench", "-config", config, "-schemes", "HBSS, HBSS*", "-json")
	if err != nil {
		t.Fatal(err)
	}
	var report BenchReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 2 || report.Results[0].Scheme != "HBSS" || report.Results[1].Scheme != "HBSS*" {
		t.Fatalf("unexpected results %s", out)
	}
	for _, r := range report.Results {
		if !r.Verified {
			t.Errorf("%s did not verify", r.Scheme)
		}
	}
	if _, err := os.Stat(report.ReportPath); err != nil {
		t.Fatal(err)
	}

	ks, err := keystore.Open(common.GetLevelDBPath(cfg.DataDir))
	if err != nil {
		t.Fatal(err)
	}
	defer ks.Close()
	runs, err := ks.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != report.RunID {
		t.Fatalf("stored runs %+v", runs)
	}
}

func TestBenchTable(t *testing.T) {
	config, _ := writeConfig(t)
	out, err := run(t, "bench", "-config", config, "-schemes", "HBSS**", "-persist=false")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "HBSS**") || !strings.Contains(out, "VERIFIED") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}

func TestSchemes(t *testing.T) {
	out, err := run(t, "schemes")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"HBSS", "SPHINCS+"} {
		if !strings.Contains(out, name) {
			t.Errorf("table lacks %s:\n%s", name, out)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := run(t); err == nil {
		t.Fatal("expected an error without a command")
	}
	if _, err := run(t, "frobnicate"); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}
