// Copyright © 2018-2021 Wei Shen <shenwei356@gmail.com>
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
	"encoding/binary"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Magic identifies an indexed-mode vector file produced by this toolkit.
var Magic = [8]byte{'s', 'e', 'q', 'f', 'e', 'a', 't', '1'}

// MainVersion is the main version number of the mmap vector file format.
const MainVersion uint8 = 1

// HeaderLen is the fixed byte length of the header written at the front of
// every indexed-mode mmap output file.
const HeaderLen = 32

var be = binary.BigEndian

// VectorHeader describes the fixed-width rows that follow it in an
// indexed-mode mmap output file.
type VectorHeader struct {
	Version     uint8
	K           uint8
	VectorWidth uint32 // number of value fields per row (C(k) or bin count)
	RowWidth    uint32 // bytes per row, including delimiters and newline
	SeqCount    uint64 // number of rows following the header
}

// EncodeHeader serialises h into a HeaderLen-byte buffer.
func EncodeHeader(h VectorHeader) []byte {
	buf := make([]byte, HeaderLen)
	copy(buf[0:8], Magic[:])
	buf[8] = h.Version
	buf[9] = h.K
	be.PutUint32(buf[10:14], h.VectorWidth)
	be.PutUint32(buf[14:18], h.RowWidth)
	be.PutUint64(buf[18:26], h.SeqCount)
	return buf
}

// DecodeHeader parses the first HeaderLen bytes of an indexed-mode file.
func DecodeHeader(buf []byte) (VectorHeader, error) {
	var h VectorHeader
	if len(buf) < HeaderLen {
		return h, ErrInvalidMmapHeader
	}
	var magic [8]byte
	copy(magic[:], buf[0:8])
	if magic != Magic {
		return h, ErrInvalidMmapHeader
	}
	h.Version = buf[8]
	h.K = buf[9]
	h.VectorWidth = be.Uint32(buf[10:14])
	h.RowWidth = be.Uint32(buf[14:18])
	h.SeqCount = be.Uint64(buf[18:26])
	return h, nil
}

// MMapWriter is a pre-sized, memory-mapped output file. WriteAt is
// unsynchronised: callers across goroutines must write to disjoint byte
// ranges, which indexed-mode vectorisers guarantee via
// offset = HeaderLen + ordinal*rowWidth.
type MMapWriter struct {
	f  *os.File
	mm mmap.MMap
}

// CreateMMapWriter truncates/creates path to exactly size bytes and maps
// it read-write.
func CreateMMapWriter(path string, size int64) (*MMapWriter, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "create mmap output %s", path)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "truncate mmap output %s to %d bytes", path, size)
	}
	mm, err := mmap.MapRegion(f, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "mmap output %s", path)
	}
	return &MMapWriter{f: f, mm: mm}, nil
}

// WriteAt copies data into the mapping starting at offset.
//
// Safety: during concurrent use, the caller must ensure that no two
// goroutines write to overlapping [offset, offset+len(data)) ranges.
func (w *MMapWriter) WriteAt(data []byte, offset int64) {
	copy(w.mm[offset:offset+int64(len(data))], data)
}

// Close flushes the mapping to disk and releases it.
func (w *MMapWriter) Close() error {
	if err := w.mm.Flush(); err != nil {
		return errors.Wrap(err, "flush mmap output")
	}
	if err := w.mm.Unmap(); err != nil {
		return errors.Wrap(err, "unmap mmap output")
	}
	return w.f.Close()
}
