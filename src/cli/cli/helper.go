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

// hbss/src/cli/cli/helper.go
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sphinx-core/hbss/src/common"
	"github.com/sphinx-core/hbss/src/core/hbss/bench"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	"github.com/sphinx-core/hbss/src/keystore"
	logger "github.com/sphinx-core/hbss/src/log"
)

// loadEnv reads the configuration at path, or the defaults when path is
// empty, and builds the logger.
func loadEnv(path string, stdout, stderr io.Writer) (*env, error) {
	cfg := common.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = common.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	p, err := cfg.Parameters()
	if err != nil {
		return nil, err
	}
	l, err := logger.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, params: p, log: l, stdout: stdout, stderr: stderr}, nil
}

func (e *env) openKeystore() (*keystore.Keystore, error) {
	if err := os.MkdirAll(e.cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", e.cfg.DataDir, err)
	}
	return keystore.Open(common.GetLevelDBPath(e.cfg.DataDir))
}

// saveKeyPair writes both halves of kp below the data directory, named by
// the public key fingerprint, and records the public key in the keystore.
// The private key file is readable by the owner only.
func (e *env) saveKeyPair(kp *key.KeyPair) (*KeygenResult, error) {
	fp := kp.Public.Fingerprint()
	pub, err := kp.Public.Export()
	if err != nil {
		return nil, err
	}
	pubPath, err := common.WriteJSONToFile(json.RawMessage(pub), e.cfg.DataDir, fp+".pub.json")
	if err != nil {
		return nil, err
	}
	priv, err := kp.Private.Export()
	if err != nil {
		return nil, err
	}
	privPath := filepath.Join(filepath.Dir(pubPath), fp+".key.json")
	if err := os.WriteFile(privPath, priv, 0600); err != nil {
		return nil, fmt.Errorf("failed to write private key: %w", err)
	}

	ks, err := e.openKeystore()
	if err != nil {
		return nil, err
	}
	defer ks.Close()
	if err := ks.SavePublicKey(fp, kp.Public); err != nil {
		return nil, err
	}

	return &KeygenResult{
		Fingerprint:    fp,
		Policy:         kp.Public.Policy,
		PublicKeyPath:  pubPath,
		PrivateKeyPath: privPath,
		PublicKeySize:  kp.Public.Size(),
		PrivateKeySize: kp.Private.Size(),
	}, nil
}

// loadPublicKey reads a public key from a file, or from the keystore by
// fingerprint when path is empty.
func (e *env) loadPublicKey(path, id string) (*key.PublicKey, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		return key.ImportPublicKey(data)
	}
	ks, err := e.openKeystore()
	if err != nil {
		return nil, err
	}
	defer ks.Close()
	return ks.LoadPublicKey(id)
}

// persistRun stores the run in the keystore and writes it as a JSON report.
func (e *env) persistRun(results []*bench.Metrics, report *BenchReport) error {
	ks, err := e.openKeystore()
	if err != nil {
		return err
	}
	defer ks.Close()
	run, err := ks.SaveRun(results)
	if err != nil {
		return err
	}
	path, err := common.WriteJSONToFile(run, e.cfg.DataDir, "bench-"+run.ID+".json")
	if err != nil {
		return err
	}
	report.RunID = run.ID
	report.ReportPath = path
	return nil
}

type messageFlags struct {
	text *string
	file *string
}

func bindMessageFlags(fs *flag.FlagSet) messageFlags {
	return messageFlags{
		text: fs.String("message", "", "message text"),
		file: fs.String("message-file", "", "read the message from a file instead of -message"),
	}
}

func (m messageFlags) read() ([]byte, error) {
	if *m.file == "" {
		return []byte(*m.text), nil
	}
	if *m.text != "" {
		return nil, fmt.Errorf("-message and -message-file are mutually exclusive")
	}
	data, err := os.ReadFile(*m.file)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
