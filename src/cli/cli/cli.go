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

// hbss/src/cli/cli/cli.go
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sphinx-core/hbss/src/common"
	"github.com/sphinx-core/hbss/src/core/hbss/bench"
	"github.com/sphinx-core/hbss/src/core/hbss/compare"
	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	sign "github.com/sphinx-core/hbss/src/core/hbss/sign/backend"
	"github.com/sphinx-core/hbss/src/http"
	"github.com/sphinx-core/hbss/src/metrics"
	"github.com/sphinx-core/hbss/src/store"
	"go.uber.org/zap"
)

const usage = `usage: hbss <command> [flags]

commands:
  keygen   generate a key pair and write it to the data directory
  sign     sign a message with a private key file
  verify   verify a signature against a public key
  bench    benchmark the HBSS variants and the SPHINCS+ baseline
  schemes  print the scheme comparison table
  serve    run the REST API

Every command accepts -config <file>; run "hbss <command> -h" for its flags.
`

// Execute runs the command named by args[0]. Results go to stdout as JSON
// or tables, logs go to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("no command given")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "keygen":
		return runKeygen(ctx, rest, stdout, stderr)
	case "sign":
		return runSign(ctx, rest, stdout, stderr)
	case "verify":
		return runVerify(rest, stdout, stderr)
	case "bench":
		return runBench(ctx, rest, stdout, stderr)
	case "schemes":
		return runSchemes(rest, stdout, stderr)
	case "serve":
		return runServe(ctx, rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runKeygen(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("keygen", stderr)
	policyName := fs.String("policy", key.PolicyBase.String(), "key policy: base, seed-derived or merkle-compressed")
	seedHex := fs.String("seed", "", "hex seed for the seed-derived policy (random if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := loadEnv(*configPath, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	policy, err := key.ParsePolicy(*policyName)
	if err != nil {
		return err
	}
	km, err := key.NewKeyManager(e.params, key.WithWorkers(e.cfg.Workers), key.WithLogger(e.log))
	if err != nil {
		return err
	}

	var kp *key.KeyPair
	switch {
	case *seedHex != "" && policy != key.PolicySeedDerived:
		return fmt.Errorf("-seed is only valid with -policy %v", key.PolicySeedDerived)
	case *seedHex != "":
		seed, err := common.FixedHex2Bytes(*seedHex, params.SeedSize)
		if err != nil {
			return fmt.Errorf("%w: %v", key.ErrInvalidSeed, err)
		}
		kp, err = km.GenerateFromSeed(ctx, seed)
		if err != nil {
			return err
		}
	default:
		kp, err = km.GenerateKey(ctx, policy)
		if err != nil {
			return err
		}
	}

	res, err := e.saveKeyPair(kp)
	if err != nil {
		return err
	}
	return writeJSON(stdout, res)
}

func runSign(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("sign", stderr)
	keyPath := fs.String("key", "", "private key file written by keygen")
	msg := bindMessageFlags(fs)
	out := fs.String("out", "", "signature file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyPath == "" {
		return fmt.Errorf("-key is required")
	}
	e, err := loadEnv(*configPath, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	message, err := msg.read()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*keyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}
	kp, err := key.ImportPrivateKey(ctx, data, key.WithWorkers(e.cfg.Workers), key.WithLogger(e.log))
	if err != nil {
		return err
	}

	sig, err := sign.Sign(message, kp.Private)
	if err != nil {
		return err
	}
	e.log.Info("message signed",
		zap.String("fingerprint", kp.Public.Fingerprint()),
		zap.Int("indices", len(sig.Indices)),
		zap.Int("size", sig.Size()),
	)
	encoded, err := sig.Export()
	if err != nil {
		return err
	}
	if *out == "" {
		return writeJSON(stdout, json.RawMessage(encoded))
	}
	return os.WriteFile(*out, encoded, 0644)
}

func runVerify(args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("verify", stderr)
	pubPath := fs.String("pub", "", "public key file")
	keyID := fs.String("key-id", "", "fingerprint of a public key in the keystore, instead of -pub")
	sigPath := fs.String("sig", "", "signature file written by sign")
	msg := bindMessageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sigPath == "" {
		return fmt.Errorf("-sig is required")
	}
	if (*pubPath == "") == (*keyID == "") {
		return fmt.Errorf("exactly one of -pub and -key-id is required")
	}
	e, err := loadEnv(*configPath, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	message, err := msg.read()
	if err != nil {
		return err
	}
	pk, err := e.loadPublicKey(*pubPath, *keyID)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*sigPath)
	if err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}
	sig, err := sign.ImportSignature(data)
	if err != nil {
		return err
	}

	valid := sign.NewVerifier(e.log).Verify(message, sig, pk)
	if err := writeJSON(stdout, VerifyResult{Valid: valid, Fingerprint: pk.Fingerprint()}); err != nil {
		return err
	}
	if !valid {
		return ErrInvalidSignature
	}
	return nil
}

func runBench(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("bench", stderr)
	schemeList := fs.String("schemes", "", "comma separated schemes (HBSS, HBSS*, HBSS**, SPHINCS+); all if empty")
	message := fs.String("message", "benchmark message", "message to sign")
	persist := fs.Bool("persist", true, "store the run in the keystore and write a JSON report")
	asJSON := fs.Bool("json", false, "print the report as JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := loadEnv(*configPath, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	schemes, err := parseSchemes(*schemeList)
	if err != nil {
		return err
	}
	h, err := bench.NewHarness(
		bench.WithParameters(e.params),
		bench.WithWorkers(e.cfg.Workers),
		bench.WithLogger(e.log),
	)
	if err != nil {
		return err
	}
	results, err := h.RunAll(ctx, schemes, []byte(*message))
	if err != nil {
		return err
	}

	report := &BenchReport{Parameters: e.params.String()}
	var all []*bench.Metrics
	for el := results.Front(); el != nil; el = el.Next() {
		all = append(all, el.Value)
		report.Results = append(report.Results, benchEntry(el.Value))
	}
	if *persist {
		if err := e.persistRun(all, report); err != nil {
			return err
		}
	}
	if *asJSON {
		return writeJSON(stdout, report)
	}
	return printBench(stdout, report)
}

func runSchemes(args []string, stdout, stderr io.Writer) error {
	fs, _ := newFlagSet("schemes", stderr)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rows := compare.All()
	if *asJSON {
		return writeJSON(stdout, rows)
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEME\tSTATELESS\tPOST-QUANTUM\tKEY\tSIGNATURE\tSPEED\tSECURITY")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%t\t%t\t%s\t%s\t%s\t%d\n",
			r.Scheme, r.Stateless, r.PostQuantum, r.KeySize, r.SigSize, r.Speed, r.SecurityLevel)
	}
	return w.Flush()
}

func runServe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("serve", stderr)
	addr := fs.String("addr", "", "listen address (overrides the config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := loadEnv(*configPath, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.log.Sync()
	if *addr != "" {
		e.cfg.HTTPAddr = *addr
	}

	ks, err := e.openKeystore()
	if err != nil {
		return err
	}
	defer ks.Close()
	registry, err := store.NewKVStore(time.Duration(e.cfg.KeyTTL))
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	srv, err := http.NewServer(http.Config{
		Address:  e.cfg.HTTPAddr,
		Params:   e.params,
		Workers:  e.cfg.Workers,
		Registry: registry,
		Keystore: ks,
		Metrics:  m,
		Gatherer: reg,
		Logger:   e.log,
	})
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a JSON configuration file")
	return fs, configPath
}

func parseSchemes(list string) ([]bench.Scheme, error) {
	if list == "" {
		return bench.AllSchemes(), nil
	}
	var out []bench.Scheme
	for _, name := range strings.Split(list, ",") {
		s, err := bench.ParseScheme(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func benchEntry(m *bench.Metrics) *BenchEntry {
	return &BenchEntry{
		Scheme:         m.Scheme.String(),
		Keygen:         compare.FormatDuration(m.KeygenTime),
		Sign:           compare.FormatDuration(m.SignTime),
		Verify:         compare.FormatDuration(m.VerifyTime),
		PublicKeySize:  compare.FormatBytes(m.PublicKeySize),
		PrivateKeySize: compare.FormatBytes(m.PrivateKeySize),
		SignatureSize:  compare.FormatBytes(m.SignatureSize),
		Verified:       m.Verified,
	}
}

func printBench(w io.Writer, r *BenchReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "parameters: %s\n", r.Parameters)
	fmt.Fprintln(tw, "SCHEME\tKEYGEN\tSIGN\tVERIFY\tPUBLIC KEY\tPRIVATE KEY\tSIGNATURE\tVERIFIED")
	for _, e := range r.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			e.Scheme, e.Keygen, e.Sign, e.Verify, e.PublicKeySize, e.PrivateKeySize, e.SignatureSize, e.Verified)
	}
	if r.ReportPath != "" {
		fmt.Fprintf(tw, "report: %s\n", filepath.ToSlash(r.ReportPath))
	}
	return tw.Flush()
}
