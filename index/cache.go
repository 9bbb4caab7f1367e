// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
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

// Package index persists a built canonical k-mer index to disk, so repeat
// CLI invocations over the same k can skip the O(4^k) build pass.
package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shenwei356/seqfeat"
)

// Version is the version of the cache file format.
const Version uint8 = 1

// Magic identifies a canonical-index cache file.
var Magic = [8]byte{'.', 's', 'q', 'f', 'i', 'd', 'x', '1'}

// ErrInvalidFormat means the magic number or version did not match.
var ErrInvalidFormat = errors.New("seqfeat/index: invalid or incompatible cache file")

// ErrTruncated means the file ended before all tables were read.
var ErrTruncated = errors.New("seqfeat/index: truncated cache file")

var be = binary.BigEndian

// Header describes a cached canonical index.
type Header struct {
	Version uint8
	K       int
	Size    int // 4^k
	Count   int // number of distinct canonical k-mers
}

func (h Header) String() string {
	return fmt.Sprintf("seqfeat index cache v%d, k=%d, size=%d, count=%d", h.Version, h.K, h.Size, h.Count)
}

// Save writes ci to path: a small header, the Count representative
// k-mers as ascending varint deltas (the table is built in ascending
// order, so deltas stay small), then the Size-entry slot table as raw
// big-endian int32s for O(1) random access on load.
func Save(path string, ci *seqfeat.CanonicalIndex) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, be, [2]uint8{Version, uint8(ci.K)}); err != nil {
		return err
	}
	if err := binary.Write(w, be, [2]uint32{uint32(ci.Size), uint32(ci.Count)}); err != nil {
		return err
	}

	kmers := ci.RawKmers()
	var prev uint64
	deltaBuf := make([]byte, 9)
	for _, k := range kmers {
		delta := k - prev
		prev = k
		n := seqfeat.EncodeUvarintInto(deltaBuf[1:], delta)
		deltaBuf[0] = byte(n)
		if _, err := w.Write(deltaBuf[:1+n]); err != nil {
			return err
		}
	}

	slots := ci.RawSlots()
	slotBuf := make([]byte, 4)
	for _, s := range slots {
		be.PutUint32(slotBuf, uint32(s))
		if _, err := w.Write(slotBuf); err != nil {
			return err
		}
	}

	return w.Flush()
}

// Load reads a cache file written by Save and rebuilds a CanonicalIndex
// without repeating the O(4^k) enumeration.
func Load(path string) (*seqfeat.CanonicalIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, ErrTruncated
	}
	if magic != Magic {
		return nil, ErrInvalidFormat
	}

	var meta [2]uint8
	if err := binary.Read(r, be, &meta); err != nil {
		return nil, ErrTruncated
	}
	if meta[0] != Version {
		return nil, ErrInvalidFormat
	}
	k := int(meta[1])

	var dims [2]uint32
	if err := binary.Read(r, be, &dims); err != nil {
		return nil, ErrTruncated
	}
	size, count := int(dims[0]), int(dims[1])

	kmers := make([]uint64, count)
	var prev uint64
	lenBuf := make([]byte, 1)
	valBuf := make([]byte, 9)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return nil, ErrTruncated
		}
		n := int(lenBuf[0])
		if _, err := io.ReadFull(r, valBuf[:n]); err != nil {
			return nil, ErrTruncated
		}
		delta := seqfeat.DecodeUvarintFrom(valBuf[:n])
		prev += delta
		kmers[i] = prev
	}

	slotOf := make([]int32, size)
	slotBuf := make([]byte, 4)
	for i := 0; i < size; i++ {
		if _, err := io.ReadFull(r, slotBuf); err != nil {
			return nil, ErrTruncated
		}
		slotOf[i] = int32(be.Uint32(slotBuf))
	}

	return seqfeat.FromTables(k, slotOf, kmers), nil
}
