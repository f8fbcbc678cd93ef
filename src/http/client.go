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

// hbss/src/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sphinx-core/hbss/src/core/hbss/compare"
	key "github.com/sphinx-core/hbss/src/core/hbss/key/backend"
	sign "github.com/sphinx-core/hbss/src/core/hbss/sign/backend"
	"github.com/sphinx-core/hbss/src/store"
)

// Client talks to a Server over HTTP.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient returns a client for the server at base, e.g. "http://127.0.0.1:8080".
// A nil hc uses http.DefaultClient.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: base, hc: hc}
}

// GenerateKey asks the server for a new key pair of the given policy and
// returns its registry id and public key.
func (c *Client) GenerateKey(ctx context.Context, policy key.Policy) (store.ID, *key.PublicKey, error) {
	var resp keygenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/keys", keygenRequest{Policy: policy.String()}, &resp); err != nil {
		return "", nil, err
	}
	return resp.ID, resp.PublicKey, nil
}

// PublicKey fetches a public key by id.
func (c *Client) PublicKey(ctx context.Context, id store.ID) (*key.PublicKey, error) {
	var resp keygenResponse
	if err := c.do(ctx, http.MethodGet, "/v1/keys/"+string(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.PublicKey, nil
}

// Sign signs message with the registered key id.
func (c *Client) Sign(ctx context.Context, id store.ID, message []byte) (*sign.Signature, error) {
	var resp signResponse
	req := signRequest{KeyID: id, MessageHex: fmt.Sprintf("%x", message)}
	if err := c.do(ctx, http.MethodPost, "/v1/sign", req, &resp); err != nil {
		return nil, err
	}
	return resp.Signature, nil
}

// Verify checks sig against the registered key id.
func (c *Client) Verify(ctx context.Context, id store.ID, message []byte, sig *sign.Signature) (bool, error) {
	var resp verifyResponse
	req := verifyRequest{KeyID: id, MessageHex: fmt.Sprintf("%x", message), Signature: sig}
	if err := c.do(ctx, http.MethodPost, "/v1/verify", req, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Schemes returns the server's comparison table.
func (c *Client) Schemes(ctx context.Context) ([]compare.SchemeComparison, error) {
	var rows []compare.SchemeComparison
	if err := c.do(ctx, http.MethodGet, "/v1/schemes", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
