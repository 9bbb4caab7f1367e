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

// reverseComplementBytes complements and reverses an arbitrary-length
// sequence directly, without going through the <=32-base 2-bit codec —
// used only to build canonical-symmetry test fixtures.
func reverseComplementBytes(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		out[len(seq)-1-i] = code2base[baseCode[b]^3]
	}
	return out
}

func TestOligoVectoriserAAAANGAGARaw(t *testing.T) {
	v, err := NewOligoVectoriser(4, false)
	if err != nil {
		t.Fatal(err)
	}
	counts, err := v.Count([]byte("AAAANGAGA"))
	if err != nil {
		t.Fatal(err)
	}
	if counts[0] != 1 {
		t.Errorf("vec[0] (AAAA): got %d, want 1", counts[0])
	}
	var sum uint32
	for _, c := range counts {
		sum += c
	}
	if sum != 2 {
		t.Errorf("sum(vec): got %d, want 2", sum)
	}
}

func TestOligoVectoriserAAAANGAGANormalised(t *testing.T) {
	v, err := NewOligoVectoriser(4, true)
	if err != nil {
		t.Fatal(err)
	}
	vec, err := v.Vectorise([]byte("AAAANGAGA"))
	if err != nil {
		t.Fatal(err)
	}
	if vec[0] != 0.5 {
		t.Errorf("normalised vec[0]: got %v, want 0.5", vec[0])
	}
}

// TestOligoCanonicalSymmetry checks that a sequence and its reverse
// complement produce identical frequency vectors.
func TestOligoCanonicalSymmetry(t *testing.T) {
	v, err := NewOligoVectoriser(4, true)
	if err != nil {
		t.Fatal(err)
	}
	seq := []byte("ACGATCGATCGTAGCTAGCTAGGATCGATCGATCGATGCTAGCTAGCATCG")
	rc := reverseComplementBytes(seq)

	vecA, err := v.Vectorise(seq)
	if err != nil {
		t.Fatal(err)
	}
	vecB, err := v.Vectorise(rc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range vecA {
		if vecA[i] != vecB[i] {
			t.Fatalf("canonical symmetry violated at slot %d: %v != %v", i, vecA[i], vecB[i])
		}
	}
}

// TestOligoEmptyOnTooShort checks a sequence shorter than k yields a
// zero vector rather than an error (KmerIterator simply never emits).
func TestOligoEmptyOnTooShort(t *testing.T) {
	v, err := NewOligoVectoriser(8, false)
	if err != nil {
		t.Fatal(err)
	}
	counts, err := v.Count([]byte("ACGT"))
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range counts {
		if c != 0 {
			t.Fatalf("slot %d: got %d, want 0 for too-short sequence", i, c)
		}
	}
}
