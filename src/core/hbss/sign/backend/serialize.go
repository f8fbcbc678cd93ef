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
	"encoding/json"
	"fmt"

	params "github.com/sphinx-core/hbss/src/core/hbss/config"
	"github.com/sphinx-core/hbss/src/crypto/digest"
)

// indexSize is the encoded width of a revealed index.
const indexSize = 4

// Export returns the JSON form of the signature; every byte string is hex.
func (sig *Signature) Export() ([]byte, error) {
	return json.Marshal(sig)
}

// ImportSignature parses the output of Signature.Export. Only the encoding
// is checked here; Verify performs the structural checks.
func ImportSignature(data []byte) (*Signature, error) {
	sig := new(Signature)
	if err := json.Unmarshal(data, sig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return sig, nil
}

// Size is the number of bytes of signature material: the digest, 4 bytes per
// index, every revealed and companion preimage, and every proof sibling.
func (sig *Signature) Size() int {
	size := digest.Size + len(sig.Indices)*indexSize + len(sig.RevealedPreimages)*params.PreimageSize
	for _, c := range sig.Companions {
		size += len(c) * params.PreimageSize
	}
	for _, p := range sig.MerkleProofs {
		size += len(p) * digest.Size
	}
	return size
}
