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
	"bytes"
	"fmt"
	"strconv"
)

// OligoVectoriser counts canonical k-mer occurrences per sequence and
// emits either raw counts or frequencies normalised to sum to 1.
type OligoVectoriser struct {
	K        int
	Index    *CanonicalIndex
	Normalise bool
}

// NewOligoVectoriser builds the canonical index once up front; reuse one
// instance across every sequence in a run.
func NewOligoVectoriser(k int, normalise bool) (*OligoVectoriser, error) {
	idx, err := BuildCanonicalIndex(k)
	if err != nil {
		return nil, err
	}
	return &OligoVectoriser{K: k, Index: idx, Normalise: normalise}, nil
}

// Count tallies canonical k-mer occurrences for seq into a dense vector of
// length v.Index.Count. Runs containing ambiguous bases contribute no
// count for the k-mers that would have overlapped them, matching
// KmerIterator's skip-on-N behaviour.
func (v *OligoVectoriser) Count(seq []byte) ([]uint32, error) {
	it, err := NewKmerIterator(seq, v.K)
	if err != nil {
		return nil, err
	}
	vec := make([]uint32, v.Index.Count)
	for {
		fval, rval, ok := it.Next()
		if !ok {
			break
		}
		vec[v.Index.CanonicalSlot(fval, rval)]++
	}
	return vec, nil
}

// Vectorise counts seq and returns a float64 vector, normalised to sum to
// 1 when v.Normalise is set (an all-ambiguous/too-short sequence yields a
// zero vector rather than dividing by zero).
func (v *OligoVectoriser) Vectorise(seq []byte) ([]float64, error) {
	counts, err := v.Count(seq)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(counts))
	if !v.Normalise {
		for i, c := range counts {
			out[i] = float64(c)
		}
		return out, nil
	}
	var sum uint64
	for _, c := range counts {
		sum += uint64(c)
	}
	if sum == 0 {
		return out, nil
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(sum)
	}
	return out, nil
}

// RowWidth returns the fixed byte width of one indexed-mode output row:
// Index.Count fixed-point fields of width fieldWidth, single-byte-delimited,
// plus a trailing newline.
func (v *OligoVectoriser) RowWidth(fieldWidth int) int {
	if v.Index.Count == 0 {
		return 1
	}
	return v.Index.Count*(fieldWidth+1) - 1 + 1 // fields + delimiters (n-1) + newline
}

// FormatRow renders vec as a fixed-width delimited row suitable for
// indexed-mode mmap output: each field is either a raw integer count or a
// "0."-prefixed fractional count, left-padded with spaces to width so
// RowWidth never varies across rows (required by the mmap writer's
// disjoint-offset contract). delim is one of ',', '\t', ' ' — any single
// byte separator keeps RowWidth's fixed-width arithmetic valid.
func FormatRow(vec []float64, normalise bool, width int, delim byte) []byte {
	var buf bytes.Buffer
	for i, x := range vec {
		if i > 0 {
			buf.WriteByte(delim)
		}
		var field string
		if normalise {
			field = strconv.FormatFloat(x, 'f', 6, 64)
		} else {
			field = strconv.FormatFloat(x, 'f', 0, 64)
		}
		if len(field) < width {
			field = fmt.Sprintf("%*s", width, field)
		}
		buf.WriteString(field)
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
