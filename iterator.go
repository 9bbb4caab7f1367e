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

// KmerIterator streams every k-mer of a sequence as a (forward, reverse
// complement) pair, in lockstep, skipping runs that touch an ambiguous
// base. It never errors: ambiguous bases simply suppress the next k-1
// emissions.
type KmerIterator struct {
	seq   []byte
	k     int
	mask  uint64
	shift uint

	pos    int
	fval   uint64
	rval   uint64
	runLen int
}

// NewKmerIterator returns an iterator over seq for the given k (1<=k<=32).
func NewKmerIterator(seq []byte, k int) (*KmerIterator, error) {
	if k <= 0 || k > 32 {
		return nil, ErrKOverflow
	}
	var mask uint64
	if k == 32 {
		mask = ^uint64(0)
	} else {
		mask = (uint64(1) << uint(2*k)) - 1
	}
	return &KmerIterator{
		seq:   seq,
		k:     k,
		mask:  mask,
		shift: uint(2 * (k - 1)),
	}, nil
}

// Next returns the next (forward, reverse-complement) k-mer pair, and
// false once the sequence is exhausted. The rolling update never clears
// fval/rval on an ambiguous base; the mask and shift naturally evict the
// stale bits over the following k bases, so runLen alone tracks validity.
func (it *KmerIterator) Next() (fval, rval uint64, ok bool) {
	for it.pos < len(it.seq) {
		c := baseCode[it.seq[it.pos]]
		it.pos++

		if c < 4 {
			it.fval = ((it.fval << 2) | uint64(c)) & it.mask
			it.rval = (it.rval >> 2) | (uint64(c^3) << it.shift)
			it.runLen++
		} else {
			it.runLen = 0
		}

		if it.runLen == it.k {
			it.runLen = it.k - 1
			return it.fval, it.rval, true
		}
	}
	return 0, 0, false
}

// Pos returns the number of bytes of seq consumed so far — i.e. one past
// the end of the k-mer last returned by Next.
func (it *KmerIterator) Pos() int {
	return it.pos
}

// CanonicalIndex is a dense perfect-hash mapping of every k-mer (k<=12) to
// its canonical slot in [0, Count). Building it costs one O(4^k) pass; it
// is meant to be built once per k and reused across every sequence in a
// run.
type CanonicalIndex struct {
	K      int
	Size   int      // 4^k
	Count  int      // number of distinct canonical k-mers
	slotOf []int32  // Size entries: kmer -> dense slot
	kmers  []uint64 // Count entries: slot -> representative canonical kmer
}

// BuildCanonicalIndex enumerates every k-mer in [0, 4^k), canonicalises
// it, and assigns slots in ascending numeric order of the canonical value.
func BuildCanonicalIndex(k int) (*CanonicalIndex, error) {
	if k <= 0 || k > 12 {
		return nil, ErrIndexTooLarge
	}
	size := 1 << uint(2*k)

	slotOf := make([]int32, size)
	for i := range slotOf {
		slotOf[i] = -1
	}
	kmers := make([]uint64, 0, size/2+1)

	// First pass: every m that is its own canonical (m <= revcomp(m))
	// gets a slot, visited in ascending m order so slots come out sorted.
	for m := 0; m < size; m++ {
		rc := RevComp(uint64(m), k)
		if uint64(m) <= rc {
			slotOf[m] = int32(len(kmers))
			kmers = append(kmers, uint64(m))
		}
	}
	// Second pass: every non-canonical m borrows its revcomp's slot.
	for m := 0; m < size; m++ {
		if slotOf[m] == -1 {
			rc := RevComp(uint64(m), k)
			slotOf[m] = slotOf[rc]
		}
	}

	return &CanonicalIndex{
		K:      k,
		Size:   size,
		Count:  len(kmers),
		slotOf: slotOf,
		kmers:  kmers,
	}, nil
}

// Slot returns the dense slot in [0, Count) for any k-mer code (canonical
// or not) in [0, Size).
func (ci *CanonicalIndex) Slot(kmer uint64) int {
	return int(ci.slotOf[kmer])
}

// CanonicalSlot returns the slot for a (forward, reverse-complement) pair
// as produced by KmerIterator — equivalent to Slot(min(fval, rval)) but
// avoids a second RevComp call since both values are already at hand.
func (ci *CanonicalIndex) CanonicalSlot(fval, rval uint64) int {
	if rval < fval {
		return int(ci.slotOf[rval])
	}
	return int(ci.slotOf[fval])
}

// KmerAt returns the representative canonical k-mer code for a slot.
func (ci *CanonicalIndex) KmerAt(slot int) uint64 {
	return ci.kmers[slot]
}

// RawSlots exposes the dense kmer->slot table for serialisation by the
// index cache; callers must not mutate the returned slice.
func (ci *CanonicalIndex) RawSlots() []int32 {
	return ci.slotOf
}

// RawKmers exposes the slot->representative-kmer table for serialisation
// by the index cache; callers must not mutate the returned slice.
func (ci *CanonicalIndex) RawKmers() []uint64 {
	return ci.kmers
}

// FromTables reconstructs a CanonicalIndex from previously-serialised
// slot and kmer tables (the index cache's load path), skipping the O(4^k)
// build pass.
func FromTables(k int, slotOf []int32, kmers []uint64) *CanonicalIndex {
	return &CanonicalIndex{
		K:      k,
		Size:   1 << uint(2*k),
		Count:  len(kmers),
		slotOf: slotOf,
		kmers:  kmers,
	}
}
