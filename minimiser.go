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

import "math"

// MinimiserIterator slides a window of wsize bases over a sequence and
// streams the canonical msize-mer of smallest numeric value in each
// maximal run where it holds the minimum, together with the canonical
// wsize-mers ("k_buff" kmers) seen while that minimiser was active. It
// resets completely on an ambiguous base, emitting whatever window was
// in progress first.
type MinimiserIterator struct {
	seq   []byte
	pos   int
	wsize int
	msize int

	mMask        uint64
	mShift       uint
	mValF, mValR uint64
	mValL        int

	kMask        uint64
	kShift       uint
	kValF, kValR uint64
	kValL        int

	mActive                    uint64
	mWindowStart, mWindowEnd   int
	buff                       []uint64
	buffPos                   int
}

// NewMinimiserIterator returns an iterator over seq with window size wsize
// and minimiser size msize (0 < msize < wsize).
func NewMinimiserIterator(seq []byte, wsize, msize int) (*MinimiserIterator, error) {
	if msize <= 0 || wsize <= msize || wsize > 32 {
		return nil, ErrInvalidWindow
	}
	mask := func(n int) uint64 {
		if n == 32 {
			return ^uint64(0)
		}
		return (uint64(1) << uint(2*n)) - 1
	}
	return &MinimiserIterator{
		seq:     seq,
		wsize:   wsize,
		msize:   msize,
		mMask:   mask(msize),
		mShift:  uint(2 * (msize - 1)),
		kMask:   mask(wsize),
		kShift:  uint(2 * (wsize - 1)),
		mActive: math.MaxUint64,
		buff:    make([]uint64, 0, wsize-msize+1),
	}, nil
}

// Next returns the next (minimiser, windowStart, windowEnd, wmers) tuple,
// or ok=false once the sequence is exhausted. windowStart/windowEnd are a
// half-open byte range [windowStart, windowEnd) of seq.
func (g *MinimiserIterator) Next() (minimiser uint64, windowStart, windowEnd int, wmers []uint64, ok bool) {
	kBuff := make([]uint64, 0)
	var prevMVal uint64
	var prevWStart, prevWEnd int
	var prevKBuff []uint64

	bufCap := g.wsize - g.msize + 1

	for {
		if g.pos == len(g.seq) {
			if g.mWindowEnd == g.pos-1 && g.mActive != math.MaxUint64 {
				g.mWindowEnd = g.pos
				return g.mActive, g.mWindowStart, g.pos, kBuff, true
			}
			return 0, 0, 0, nil, false
		}
		posFVal := uint64(baseCode[g.seq[g.pos]])
		posRVal := posFVal ^ 3

		if posFVal < 4 {
			g.kValF = ((g.kValF << 2) | posFVal) & g.kMask
			g.kValR = (g.kValR >> 2) | (posRVal << g.kShift)
			g.kValL++
			g.mValF = ((g.mValF << 2) | posFVal) & g.mMask
			g.mValR = (g.mValR >> 2) | (posRVal << g.mShift)
			g.mValL++
		} else {
			shouldReturn := len(g.buff) == bufCap
			prevMVal = g.mActive
			prevWStart = g.mWindowStart
			prevWEnd = g.pos
			if shouldReturn {
				prevKBuff = append([]uint64(nil), kBuff...)
			}
			g.buffPos = 0
			g.mActive = math.MaxUint64
			g.mValF, g.mValR, g.mValL = 0, 0, 0
			g.kValF, g.kValR, g.kValL = 0, 0, 0
			g.mWindowEnd = 0
			g.mWindowStart = g.pos + 1
			g.buff = g.buff[:0]
			kBuff = kBuff[:0]
			g.pos++

			if shouldReturn {
				return prevMVal, prevWStart, prevWEnd, prevKBuff, true
			}
			continue
		}

		if g.mValL < g.msize {
			g.pos++
			continue
		}
		g.mValL--

		minMVal := g.mValF
		if g.mValR < minMVal {
			minMVal = g.mValR
		}

		if g.kValL == g.wsize {
			kv := g.kValF
			if g.kValR < kv {
				kv = g.kValR
			}
			kBuff = append(kBuff, kv)
			g.kValL--
		}

		if len(g.buff) == bufCap {
			copy(g.buff, g.buff[1:])
			g.buff[len(g.buff)-1] = minMVal

			if g.buffPos == 0 {
				newMin := uint64(math.MaxUint64)
				for j := 0; j < len(g.buff); j++ {
					if g.buff[j] < newMin {
						g.buffPos = j
						newMin = g.buff[j]
					}
				}
				if newMin != g.mActive {
					g.mWindowEnd = g.pos
					prevMVal, prevWStart, prevWEnd = g.mActive, g.mWindowStart, g.mWindowEnd
					g.mActive = newMin
					g.mWindowStart = g.pos - g.wsize + 1
					g.pos++
					return prevMVal, prevWStart, prevWEnd, kBuff, true
				}
			} else if minMVal < g.mActive {
				g.mWindowEnd = g.pos
				prevMVal, prevWStart, prevWEnd = g.mActive, g.mWindowStart, g.mWindowEnd
				g.mActive = minMVal
				g.buffPos = len(g.buff) - 1
				g.mWindowStart = g.pos - g.wsize + 1
				g.pos++
				return prevMVal, prevWStart, prevWEnd, kBuff, true
			} else {
				g.buffPos--
			}
		} else {
			g.buff = append(g.buff, minMVal)
		}

		if g.mActive == math.MaxUint64 && len(g.buff) == bufCap {
			for j := 0; j < len(g.buff); j++ {
				if g.buff[j] < g.mActive {
					g.buffPos = j
					g.mActive = g.buff[j]
				}
			}
		}

		if g.pos == len(g.seq)-1 && g.mActive != math.MaxUint64 {
			g.pos++
			return g.mActive, g.mWindowStart, len(g.seq), kBuff, true
		}
		g.pos++
	}
}
