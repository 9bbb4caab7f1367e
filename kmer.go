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

// baseCode is the 256-entry lookup table mapping a raw input byte to its
// 2-bit code. 4 marks "ambiguous" (anything outside A/C/G/T/U, either case).
// Built once at package init so Encode is a single slice index, no switch.
var baseCode [256]uint8

func init() {
	for i := range baseCode {
		baseCode[i] = 4
	}
	baseCode['A'], baseCode['a'] = 0, 0
	baseCode['C'], baseCode['c'] = 1, 1
	baseCode['G'], baseCode['g'] = 2, 2
	baseCode['T'], baseCode['t'] = 3, 3
	baseCode['U'], baseCode['u'] = 3, 3 // U is treated as T
}

// code2base maps a 2-bit code back to its upper-case base letter.
var code2base = [4]byte{'A', 'C', 'G', 'T'}

// EncodeBase returns the 2-bit code of a single base, or 4 if it is
// ambiguous (anything outside A/C/G/T/U, case-insensitive).
func EncodeBase(b byte) uint8 {
	return baseCode[b]
}

// Encode packs a short byte slice (len<=32, no ambiguous bases) into a
// uint64, most-significant base first. Callers that need to tolerate
// ambiguous bases should use KmerIterator instead of this helper.
func Encode(kmer []byte) (code uint64, err error) {
	k := len(kmer)
	if k == 0 || k > 32 {
		return 0, ErrKOverflow
	}
	for _, b := range kmer {
		c := baseCode[b]
		if c > 3 {
			return 0, ErrAmbiguousBase
		}
		code = (code << 2) | uint64(c)
	}
	return code, nil
}

// Reverse returns the code of the reversed (not complemented) sequence.
func Reverse(code uint64, k int) (c uint64) {
	if k <= 0 || k > 32 {
		panic(ErrKOverflow)
	}
	for i := 0; i < k; i++ {
		c <<= 2
		c |= code & 3
		code >>= 2
	}
	return
}

// Complement returns the code of the complemented (not reversed) sequence.
func Complement(code uint64, k int) (c uint64) {
	if k <= 0 || k > 32 {
		panic(ErrKOverflow)
	}
	for i := 0; i < k; i++ {
		c |= (code&3 ^ 3) << uint(i<<1)
		code >>= 2
	}
	return
}

// RevComp returns the code of the reverse complement. It is its own
// involution: RevComp(RevComp(code, k), k) == code.
func RevComp(code uint64, k int) (c uint64) {
	if k <= 0 || k > 32 {
		panic(ErrKOverflow)
	}
	for i := 0; i < k; i++ {
		c <<= 2
		c |= code&3 ^ 3
		code >>= 2
	}
	return
}

// Decode converts a code back into an upper-case ACGT byte slice.
func Decode(code uint64, k int) []byte {
	if k <= 0 || k > 32 {
		panic(ErrKOverflow)
	}
	kmer := make([]byte, k)
	for i := 0; i < k; i++ {
		kmer[k-1-i] = code2base[code&3]
		code >>= 2
	}
	return kmer
}

// KmerCode is a k-mer packed into a uint64 together with its length.
type KmerCode struct {
	Code uint64
	K    int
}

// NewKmerCode builds a KmerCode from a byte slice with no ambiguous bases.
func NewKmerCode(kmer []byte) (KmerCode, error) {
	code, err := Encode(kmer)
	if err != nil {
		return KmerCode{}, err
	}
	return KmerCode{code, len(kmer)}, nil
}

// Equal reports whether two KmerCodes represent the same k-mer.
func (kcode KmerCode) Equal(other KmerCode) bool {
	return kcode.K == other.K && kcode.Code == other.Code
}

// Rev returns the KmerCode of the reversed sequence.
func (kcode KmerCode) Rev() KmerCode {
	return KmerCode{Reverse(kcode.Code, kcode.K), kcode.K}
}

// Comp returns the KmerCode of the complemented sequence.
func (kcode KmerCode) Comp() KmerCode {
	return KmerCode{Complement(kcode.Code, kcode.K), kcode.K}
}

// RevComp returns the KmerCode of the reverse complement.
func (kcode KmerCode) RevComp() KmerCode {
	return KmerCode{RevComp(kcode.Code, kcode.K), kcode.K}
}

// Canonical returns whichever of {kcode, its reverse complement} sorts
// lower numerically.
func (kcode KmerCode) Canonical() KmerCode {
	rc := kcode.RevComp()
	if rc.Code < kcode.Code {
		return rc
	}
	return kcode
}

// Bytes returns the k-mer as an upper-case ACGT byte slice.
func (kcode KmerCode) Bytes() []byte {
	return Decode(kcode.Code, kcode.K)
}

// String returns the k-mer as an upper-case ACGT string.
func (kcode KmerCode) String() string {
	return string(Decode(kcode.Code, kcode.K))
}

// Canonical returns min(code, RevComp(code, k)) directly on codes, without
// allocating a KmerCode.
func Canonical(code uint64, k int) uint64 {
	rc := RevComp(code, k)
	if rc < code {
		return rc
	}
	return code
}
