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

package seqfeat

import "testing"

func TestMinimiserW31M7(t *testing.T) {
	seq := []byte("ATGCGATATCGTAGGCGTCGATGGAGAGCTAGATCGATCGATCTAAATCCCGATCGATTCCGAGCGCGATCAAAGCGCGATAGGCTAGCTAAAGCTAGCA")
	it, err := NewMinimiserIterator(seq, 31, 7)
	if err != nil {
		t.Fatal(err)
	}

	m, start, end, _, ok := it.Next()
	if !ok {
		t.Fatal("expected a first window")
	}
	if got := string(Decode(m, 7)); got != "ACGATAT" {
		t.Errorf("first window minimiser: got %s, want ACGATAT", got)
	}
	if start != 0 || end != 35 {
		t.Errorf("first window range: got [%d,%d), want [0,35)", start, end)
	}

	m2, start2, _, _, ok := it.Next()
	if !ok {
		t.Fatal("expected a second window")
	}
	if got := string(Decode(m2, 7)); got != "ACGCCTA" {
		t.Errorf("second window minimiser: got %s, want ACGCCTA", got)
	}
	if start2 != 7 {
		t.Errorf("second window start: got %d, want 7", start2)
	}
}

func TestMinimiserW8M5WithAmbiguousBase(t *testing.T) {
	seq := []byte("ATGCGATATCGNTAGGCGTCGATGGA")
	it, err := NewMinimiserIterator(seq, 8, 5)
	if err != nil {
		t.Fatal(err)
	}

	var windows []string
	var firstMinimiser string
	for i := 0; ; i++ {
		m, _, _, _, ok := it.Next()
		if !ok {
			break
		}
		s := string(Decode(m, 5))
		windows = append(windows, s)
		if i == 0 {
			firstMinimiser = s
		}
	}

	if len(windows) != 4 {
		t.Fatalf("expected exactly 4 windows, got %d: %v", len(windows), windows)
	}
	if firstMinimiser != "ATCGC" {
		t.Errorf("first window minimiser: got %s, want ATCGC", firstMinimiser)
	}
}

func TestMinimiserInvalidWindow(t *testing.T) {
	if _, err := NewMinimiserIterator([]byte("ACGT"), 4, 4); err != ErrInvalidWindow {
		t.Errorf("expected ErrInvalidWindow for w==m, got %v", err)
	}
	if _, err := NewMinimiserIterator([]byte("ACGT"), 4, 5); err != ErrInvalidWindow {
		t.Errorf("expected ErrInvalidWindow for m>w, got %v", err)
	}
}

// TestMinimiserWindowCoverageMonotonic checks the emitted [start,end)
// ranges are monotonically non-decreasing in both start and end.
func TestMinimiserWindowCoverageMonotonic(t *testing.T) {
	seq := randomSeq(500)
	it, err := NewMinimiserIterator(seq, 15, 5)
	if err != nil {
		t.Fatal(err)
	}
	prevStart, prevEnd := -1, -1
	for {
		_, start, end, _, ok := it.Next()
		if !ok {
			break
		}
		if start < prevStart || end < prevEnd {
			t.Fatalf("non-monotonic window: [%d,%d) after [%d,%d)", start, end, prevStart, prevEnd)
		}
		prevStart, prevEnd = start, end
	}
}
