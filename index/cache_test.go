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

package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shenwei356/seqfeat"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, k := range []int{1, 2, 3, 4, 7} {
		ci, err := seqfeat.BuildCanonicalIndex(k)
		if err != nil {
			t.Fatalf("k=%d: BuildCanonicalIndex: %v", k, err)
		}
		path := filepath.Join(t.TempDir(), "cache.idx")
		if err := Save(path, ci); err != nil {
			t.Fatalf("k=%d: Save: %v", k, err)
		}
		loaded, err := Load(path)
		if err != nil {
			t.Fatalf("k=%d: Load: %v", k, err)
		}
		if loaded.K != ci.K || loaded.Size != ci.Size || loaded.Count != ci.Count {
			t.Fatalf("k=%d: header mismatch: got %+v, %+v", k, loaded, ci)
		}
		for m := 0; m < ci.Size; m++ {
			if loaded.Slot(uint64(m)) != ci.Slot(uint64(m)) {
				t.Fatalf("k=%d: slot mismatch at kmer %d: got %d want %d", k, m, loaded.Slot(uint64(m)), ci.Slot(uint64(m)))
			}
		}
		for slot := 0; slot < ci.Count; slot++ {
			if loaded.KmerAt(slot) != ci.KmerAt(slot) {
				t.Fatalf("k=%d: kmer mismatch at slot %d: got %d want %d", k, slot, loaded.KmerAt(slot), ci.KmerAt(slot))
			}
		}
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.idx")
	if err := os.WriteFile(path, []byte("not a cache file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != ErrInvalidFormat {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}
