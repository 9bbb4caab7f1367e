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

import "testing"

func canonicalKmers(seq []byte, k int) []uint64 {
	it, _ := NewKmerIterator(seq, k)
	var kmers []uint64
	for {
		fval, rval, ok := it.Next()
		if !ok {
			break
		}
		km := fval
		if rval < fval {
			km = rval
		}
		kmers = append(kmers, km)
	}
	return kmers
}

func TestCoverageVectoriserBinning(t *testing.T) {
	k := 4
	seq := []byte("AAACCCGGGTTTACGATCG")
	kmers := canonicalKmers(seq, k)

	// Assign each distinct canonical kmer a distinct ascending count, in
	// first-seen order, then independently recompute the expected
	// per-bin histogram from that same assignment.
	counts := make(map[uint64]uint32)
	order := make([]uint64, 0)
	for _, km := range kmers {
		if _, seen := counts[km]; !seen {
			order = append(order, km)
		}
	}
	for i, km := range order {
		counts[km] = uint32(i + 1)
	}

	binSize := uint32(2)
	binCount := 3
	want := make([]float64, binCount)
	for _, km := range kmers {
		b := int(counts[km] / binSize)
		if b >= binCount {
			b = binCount - 1
		}
		want[b]++
	}

	cv := NewCoverageVectoriser(k, binSize, binCount, false, counts)
	vec, err := cv.Vectorise(seq)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("bin %d: got %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestCoverageVectoriserNormalised(t *testing.T) {
	k := 4
	counts := map[uint64]uint32{}
	cv := NewCoverageVectoriser(k, 1, 4, true, counts)
	vec, err := cv.Vectorise([]byte("AAAAAAAA"))
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, x := range vec {
		sum += x
	}
	if sum != 0 && (sum < 0.999999 || sum > 1.000001) {
		t.Errorf("normalised coverage vector should sum to 1 or 0, got %v", sum)
	}
}
