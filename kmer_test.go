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
	"math/rand"
	"testing"
)

var acgt = [4]byte{'A', 'C', 'G', 'T'}

var randomMers [][]byte
var randomMersN = 100000

var benchMer = []byte("ACTGACTGGTCAGTCAACTGGTCAACTGGTCA")
var benchCode uint64
var benchKmerCode KmerCode

func init() {
	randomMers = make([][]byte, randomMersN)
	for i := 0; i < randomMersN; i++ {
		randomMers[i] = make([]byte, rand.Intn(32)+1)
		for j := range randomMers[i] {
			randomMers[i][j] = acgt[rand.Intn(4)]
		}
	}

	var err error
	benchCode, err = Encode(benchMer)
	if err != nil {
		panic(fmt.Sprintf("init: fail to encode %s", benchMer))
	}

	benchKmerCode, err = NewKmerCode(benchMer)
	if err != nil {
		panic(fmt.Sprintf("init: fail to create KmerCode from %s", benchMer))
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, mer := range randomMers {
		kcode, err := NewKmerCode(mer)
		if err != nil {
			t.Errorf("Encode error: %s", mer)
			continue
		}
		if !bytes.Equal(mer, kcode.Bytes()) {
			t.Errorf("Decode error: %s != %s", mer, kcode.Bytes())
		}
	}
}

// TestEncodeAmbiguous checks that any byte outside A/C/G/T/U (either
// case) is rejected by Encode.
func TestEncodeAmbiguous(t *testing.T) {
	if _, err := Encode([]byte("ACGN")); err != ErrAmbiguousBase {
		t.Errorf("expected ErrAmbiguousBase, got %v", err)
	}
	if _, err := Encode(nil); err != ErrKOverflow {
		t.Errorf("expected ErrKOverflow on empty input, got %v", err)
	}
}

// TestURepresentedAsT checks that U/u is treated identically to T/t.
func TestURepresentedAsT(t *testing.T) {
	u, err := Encode([]byte("ACGU"))
	if err != nil {
		t.Fatal(err)
	}
	tt, err := Encode([]byte("ACGT"))
	if err != nil {
		t.Fatal(err)
	}
	if u != tt {
		t.Errorf("U should encode identically to T: got %d, %d", u, tt)
	}
}

// TestRevCompInvolution checks RevComp(RevComp(m,k),k) == m for all m <
// 4^k, the revcomp involution property.
func TestRevCompInvolution(t *testing.T) {
	for k := 1; k <= 10; k++ {
		size := 1 << uint(2*k)
		for m := 0; m < size; m++ {
			rc := RevComp(uint64(m), k)
			if RevComp(rc, k) != uint64(m) {
				t.Fatalf("k=%d: RevComp not involutive at m=%d", k, m)
			}
		}
	}
}

func TestRevComp(t *testing.T) {
	for _, mer := range randomMers {
		kcode, _ := NewKmerCode(mer)
		if !kcode.Rev().Rev().Equal(kcode) {
			t.Errorf("Rev() error: %s, Rev(): %s", kcode, kcode.Rev())
		}
	}
	for _, mer := range randomMers {
		kcode, _ := NewKmerCode(mer)
		if !kcode.Comp().Comp().Equal(kcode) {
			t.Errorf("Comp() error: %s, Comp(): %s", kcode, kcode.Comp())
		}
	}
	for _, mer := range randomMers {
		kcode, _ := NewKmerCode(mer)
		if !kcode.RevComp().RevComp().Equal(kcode) {
			t.Errorf("RevComp() error: %s, RevComp(): %s", kcode, kcode.RevComp())
		}
	}
}

// TestCodecRoundTrip checks Decode(Encode(s)) == s (canonical letters).
func TestCodecRoundTrip(t *testing.T) {
	for k := 1; k <= 8; k++ {
		size := 1 << uint(2*k)
		for m := 0; m < size; m++ {
			decoded := Decode(uint64(m), k)
			back, err := Encode(decoded)
			if err != nil {
				t.Fatalf("k=%d m=%d: Encode(Decode(m)) failed: %v", k, m, err)
			}
			if back != uint64(m) {
				t.Fatalf("k=%d m=%d: round-trip mismatch, got %d", k, m, back)
			}
		}
	}
}

func BenchmarkEncodeK32(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Encode(benchMer)
	}
}

func BenchmarkDecodeK32(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Decode(benchCode, len(benchMer))
	}
}

func BenchmarkRevK32(b *testing.B) {
	for i := 0; i < b.N; i++ {
		benchKmerCode.Rev()
	}
}

func BenchmarkCompK32(b *testing.B) {
	for i := 0; i < b.N; i++ {
		benchKmerCode.Comp()
	}
}

func BenchmarkRevCompK32(b *testing.B) {
	for i := 0; i < b.N; i++ {
		benchKmerCode.RevComp()
	}
}
