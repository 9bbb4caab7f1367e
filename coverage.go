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

// CoverageVectoriser bins per-sequence k-mer counts, looked up from a
// merged counts file produced by Counter, into bin_count buckets of width
// bin_size. It reflects every occurrence of each k-mer across the whole
// counted input, not just the sequence being vectorised, which is why it
// needs a fresh counter pass rather than counting while vectorising.
type CoverageVectoriser struct {
	K         int
	BinSize   uint32
	BinCount  int
	Normalise bool
	counts    map[uint64]uint32
}

// NewCoverageVectoriser returns a vectoriser backed by a pre-loaded counts
// map (see LoadCounts).
func NewCoverageVectoriser(k int, binSize uint32, binCount int, normalise bool, counts map[uint64]uint32) *CoverageVectoriser {
	if binSize == 0 {
		binSize = 1
	}
	return &CoverageVectoriser{K: k, BinSize: binSize, BinCount: binCount, Normalise: normalise, counts: counts}
}

// bin maps a raw count to its bucket index, clamped to the top bucket.
func (v *CoverageVectoriser) bin(count uint32) int {
	b := int(count / v.BinSize)
	if b >= v.BinCount {
		b = v.BinCount - 1
	}
	return b
}

// Vectorise bins every canonical k-mer of seq by its counted occurrence
// across the whole counted input.
func (v *CoverageVectoriser) Vectorise(seq []byte) ([]float64, error) {
	it, err := NewKmerIterator(seq, v.K)
	if err != nil {
		return nil, err
	}
	counts := make([]uint32, v.BinCount)
	var total uint32
	for {
		fval, rval, ok := it.Next()
		if !ok {
			break
		}
		km := fval
		if rval < fval {
			km = rval
		}
		c := v.counts[km]
		counts[v.bin(c)]++
		total++
	}

	out := make([]float64, v.BinCount)
	if !v.Normalise {
		for i, c := range counts {
			out[i] = float64(c)
		}
		return out, nil
	}
	if total == 0 {
		return out, nil
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(total)
	}
	return out, nil
}
