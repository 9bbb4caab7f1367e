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
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := VectorHeader{
		Version:     MainVersion,
		K:           6,
		VectorWidth: 10,
		RowWidth:    64,
		SeqCount:    12345,
	}
	buf := EncodeHeader(h)
	if len(buf) != HeaderLen {
		t.Fatalf("encoded header length: got %d, want %d", len(buf), HeaderLen)
	}
	got, err := DecodeHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, HeaderLen)
	copy(buf, []byte("garbage!"))
	if _, err := DecodeHeader(buf); err != ErrInvalidMmapHeader {
		t.Errorf("expected ErrInvalidMmapHeader, got %v", err)
	}
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, HeaderLen-1)); err != ErrInvalidMmapHeader {
		t.Errorf("expected ErrInvalidMmapHeader, got %v", err)
	}
}

// TestMMapWriterThreadInvariance checks that concurrent WriteAt calls into
// disjoint row ranges produce byte-identical output regardless of the
// number of goroutines writing, matching the disjoint-offset invariant
// indexed-mode vectorisers rely on.
func TestMMapWriterThreadInvariance(t *testing.T) {
	const rowWidth = 16
	const rows = 200

	run := func(workers int) []byte {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.bin")
		size := int64(HeaderLen + rows*rowWidth)
		w, err := CreateMMapWriter(path, size)
		if err != nil {
			t.Fatal(err)
		}
		w.WriteAt(EncodeHeader(VectorHeader{Version: MainVersion, K: 4, VectorWidth: 1, RowWidth: rowWidth, SeqCount: rows}), 0)

		var wg sync.WaitGroup
		rowsPerWorker := (rows + workers - 1) / workers
		for wk := 0; wk < workers; wk++ {
			wg.Add(1)
			go func(wk int) {
				defer wg.Done()
				start := wk * rowsPerWorker
				end := start + rowsPerWorker
				if end > rows {
					end = rows
				}
				for r := start; r < end; r++ {
					row := make([]byte, rowWidth)
					for i := range row {
						row[i] = byte(r % 251)
					}
					w.WriteAt(row, int64(HeaderLen+r*rowWidth))
				}
			}(wk)
		}
		wg.Wait()
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	out1 := run(1)
	out8 := run(8)
	if len(out1) != len(out8) {
		t.Fatalf("output length differs: %d vs %d", len(out1), len(out8))
	}
	for i := range out1 {
		if out1[i] != out8[i] {
			t.Fatalf("byte %d differs between T=1 and T=8 runs: %d vs %d", i, out1[i], out8[i])
		}
	}
}
