// Copyright © 2018 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package seqfeat

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// WriteCompactCounts writes pairs to path in a variable-length binary
// encoding (one control byte plus 2-16 payload bytes per pair, via
// PutUint64s) instead of the tab-delimited text format — an opt-in, more
// compact alternative output for counter runs over very large k, where
// the distinct canonical k-mer count makes the text file large enough to
// matter.
func WriteCompactCounts(path string, pairs CodeCountSlice) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create compact output %s", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	buf := make([]byte, 16)
	for _, p := range pairs {
		ctrl, n := PutUint64s(buf, p.Code, uint64(p.Count))
		if _, err := w.Write([]byte{ctrl}); err != nil {
			return errors.Wrapf(err, "write compact output %s", path)
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return errors.Wrapf(err, "write compact output %s", path)
		}
	}
	return w.Flush()
}

// ReadCompactCounts reverses WriteCompactCounts.
func ReadCompactCounts(path string) (CodeCountSlice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read compact output %s", path)
	}
	var out CodeCountSlice
	for i := 0; i < len(data); {
		ctrl := data[i]
		i++
		values, n := Uint64s(ctrl, data[i:])
		if n == 0 {
			return nil, errors.Errorf("truncated compact record in %s at byte %d", path, i)
		}
		out = append(out, CodeCount{Code: values[0], Count: uint32(values[1])})
		i += n
	}
	return out, nil
}

// EncodeUvarintInto and DecodeUvarintFrom wrap the package's compact
// single-value varint codec (putUvarint/uvarint) for use outside the
// package — the index cache uses them to delta-encode its sorted
// representative-kmer table instead of storing fixed-width uint64s.
func EncodeUvarintInto(buf []byte, x uint64) int {
	return putUvarint(buf, x)
}

func DecodeUvarintFrom(buf []byte) uint64 {
	return uvarint(buf, len(buf))
}
