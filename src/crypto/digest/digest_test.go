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

package digest

import (
	"bytes"
	"crypto/sha512"
	"errors"
	"io"
	"testing"
)

func TestSumMatchesStdlibSHA512(t *testing.T) {
	got := SHA512.Sum([]byte("te"), []byte("st"))
	want := sha512.Sum512([]byte("test"))
	if got != Hash(want) {
		t.Errorf("SHA512.Sum(\"te\", \"st\") = %x, want %x", got, want)
	}
}

func TestFuncsAreDistinct(t *testing.T) {
	msg := []byte("hbss")
	seen := make(map[Hash]Func)
	for _, f := range []Func{SHA512, SHA3_512, BLAKE2b512} {
		h := f.Sum(msg)
		if prev, ok := seen[h]; ok {
			t.Fatalf("%v and %v produced the same digest", prev, f)
		}
		seen[h] = f
		if f.New().Size() != Size {
			t.Errorf("%v.New().Size() = %d, want %d", f, f.New().Size(), Size)
		}
	}
}

func TestParseFunc(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Func
		wantErr bool
	}{
		{in: "", want: SHA512},
		{in: "sha512", want: SHA512},
		{in: "SHA3-512", want: SHA3_512},
		{in: " blake2b-512 ", want: BLAKE2b512},
		{in: "md5", wantErr: true},
	} {
		got, err := ParseFunc(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownFunc) {
				t.Errorf("ParseFunc(%q) err = %v, want ErrUnknownFunc", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseFunc(%q) = %v, %v, want %v, nil", tc.in, got, err, tc.want)
		}
	}
}

func TestReduceStaysInRange(t *testing.T) {
	for _, n := range []int{1, 2, 7, 8, 1000, 1024} {
		for c := uint32(0); c < 200; c++ {
			idx := Reduce(SHA512.Sum(Uint32(c)), n)
			if idx < 0 || idx >= n {
				t.Fatalf("Reduce(H(%d), %d) = %d, out of range", c, n, idx)
			}
		}
	}
}

func TestReduceUsesLeadingBytes(t *testing.T) {
	var h Hash
	h[31] = 10
	h[63] = 0xff // ignored
	if got := Reduce(h, 7); got != 3 {
		t.Errorf("Reduce(10, 7) = %d, want 3", got)
	}
}

func TestHashHexRoundTrip(t *testing.T) {
	h := SHA3_512.Sum([]byte("x"))
	parsed, err := HashFromHex(h.Hex())
	if err != nil {
		t.Fatalf("HashFromHex() err = %v, want nil", err)
	}
	if parsed != h {
		t.Errorf("HashFromHex(Hex()) = %v, want %v", parsed, h)
	}
	if _, err := HashFromHex("abcd"); err == nil {
		t.Error("HashFromHex(short) err = nil, want error")
	}
}

func TestDeterministicRandomIsReproducible(t *testing.T) {
	a := make([]byte, 128)
	b := make([]byte, 128)
	if err := ReadFull(NewDeterministicRandom([]byte("seed")), a); err != nil {
		t.Fatal(err)
	}
	if err := ReadFull(NewDeterministicRandom([]byte("seed")), b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("same seed produced different streams")
	}
	if err := ReadFull(NewDeterministicRandom([]byte("other")), b); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("different seeds produced the same stream")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestReadFullWrapsFailures(t *testing.T) {
	if err := ReadFull(failingReader{}, make([]byte, 8)); !errors.Is(err, ErrRandomness) {
		t.Errorf("ReadFull(failing) err = %v, want ErrRandomness", err)
	}
	if err := ReadFull(nil, make([]byte, 8)); !errors.Is(err, ErrRandomness) {
		t.Errorf("ReadFull(nil) err = %v, want ErrRandomness", err)
	}
}
