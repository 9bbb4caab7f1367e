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

import "fmt"

// Point is a 2-D coordinate in the Chaos Game Representation square.
type Point struct {
	X, Y float64
}

// cgrCorner maps a raw input byte to its CGR corner, or ok=false if the
// byte is not one of A/C/G/T/U (case-insensitive).
func cgrCorner(b byte, v float64) (p Point, ok bool) {
	switch b {
	case 'A', 'a':
		return Point{0, 0}, true
	case 'T', 't', 'U', 'u':
		return Point{v, 0}, true
	case 'G', 'g':
		return Point{v, v}, true
	case 'C', 'c':
		return Point{0, v}, true
	}
	return Point{}, false
}

// CGRVectoriser computes the Chaos Game Representation of sequences in a
// square of side V.
type CGRVectoriser struct {
	V float64
}

// NewCGRVectoriser returns a vectoriser over a square of side v.
func NewCGRVectoriser(v float64) *CGRVectoriser {
	return &CGRVectoriser{V: v}
}

// Vectorise walks seq one base at a time, each step moving the marker to
// the midpoint between its current position and the corner of the base,
// and returns the resulting marker position after every base in input
// order. An ambiguous base fails the whole sequence: CGR's positional
// semantics cannot tolerate gaps the way k-mer counting can.
func (c *CGRVectoriser) Vectorise(seq []byte) ([]Point, error) {
	out := make([]Point, 0, len(seq))
	marker := Point{c.V / 2, c.V / 2}
	for _, b := range seq {
		corner, ok := cgrCorner(b, c.V)
		if !ok {
			return nil, ErrAmbiguousBase
		}
		marker = Point{(corner.X + marker.X) / 2, (corner.Y + marker.Y) / 2}
		out = append(out, marker)
	}
	return out, nil
}

// KmerPoint is a per-k-mer CGR position paired with its canonical
// frequency.
type KmerPoint struct {
	Point
	Freq float64
}

// VectorisePerKmer computes the canonical k-mer frequency vector of seq
// (via v, reusing one OligoVectoriser across calls) and maps every slot's
// representative canonical k-mer to its CGR position by walking the
// k-mer's own bytes as a short sequence from the square's centre — the
// same recurrence as Vectorise, just replayed on a synthetic k-length
// input instead of the real sequence.
func VectorisePerKmer(ov *OligoVectoriser, cv *CGRVectoriser, seq []byte) ([]KmerPoint, error) {
	freqs, err := ov.Vectorise(seq)
	if err != nil {
		return nil, err
	}
	out := make([]KmerPoint, len(freqs))
	for slot, freq := range freqs {
		kmer := Decode(ov.Index.KmerAt(slot), ov.K)
		// Decode always produces A/C/G/T, never ambiguous, so the error
		// return here cannot occur.
		points, _ := cv.Vectorise(kmer)
		out[slot] = KmerPoint{Point: points[len(points)-1], Freq: freq}
	}
	return out, nil
}

// FormatPoints renders a whole-sequence CGR row as space-separated
// "(x,y)" pairs, matching the reference toolkit's row format.
func FormatPoints(points []Point) string {
	buf := make([]byte, 0, len(points)*24)
	for i, p := range points {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, []byte(fmt.Sprintf("(%v,%v)", p.X, p.Y))...)
	}
	buf = append(buf, '\n')
	return string(buf)
}

// FormatKmerPoints renders a per-k-mer CGR row as space-separated
// "(x,y,freq)" triples in slot order.
func FormatKmerPoints(points []KmerPoint) string {
	buf := make([]byte, 0, len(points)*32)
	for i, p := range points {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, []byte(fmt.Sprintf("(%v,%v,%v)", p.X, p.Y, p.Freq))...)
	}
	buf = append(buf, '\n')
	return string(buf)
}
