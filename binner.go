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
	"bufio"
	"fmt"
	"sync"
)

// MinimiserHit is one emitted window, with its minimiser already decoded
// to ACGT text for output.
type MinimiserHit struct {
	Minimiser    string
	Start, End   int
}

// windowsOf runs a MinimiserIterator over seq to exhaustion and decodes
// every emitted window, used by both binner modes.
func windowsOf(seq []byte, wsize, msize int) ([]MinimiserHit, error) {
	it, err := NewMinimiserIterator(seq, wsize, msize)
	if err != nil {
		return nil, err
	}
	var hits []MinimiserHit
	for {
		m, start, end, _, ok := it.Next()
		if !ok {
			break
		}
		hits = append(hits, MinimiserHit{Minimiser: string(Decode(m, msize)), Start: start, End: end})
	}
	return hits, nil
}

// MinimiserBinner runs the shared worker-pool skeleton over a sequence
// source in one of two output modes.
type MinimiserBinner struct {
	WSize, MSize int
	Threads      int
}

// RunSeqToMin emits one line per sequence to w: "id\tm1:s1-e1\tm2:s2-e2...".
// Writes are serialised through a mutex local to the call so each line is atomic, but line
// order across sequences is not guaranteed.
func (b *MinimiserBinner) RunSeqToMin(src *SequenceSource, w *bufio.Writer) error {
	threads := b.Threads
	if threads <= 0 {
		threads = 1
	}
	var wg sync.WaitGroup
	var writeMu sync.Mutex
	errCh := make(chan error, threads)

	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				rec, err := src.Next()
				if err != nil {
					return
				}
				hits, herr := windowsOf(rec.Seq, b.WSize, b.MSize)
				if herr != nil {
					errCh <- herr
					return
				}
				line := formatSeqToMinLine(rec.ID, hits)
				writeMu.Lock()
				_, werr := w.WriteString(line)
				writeMu.Unlock()
				if werr != nil {
					errCh <- werr
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return w.Flush()
}

func formatSeqToMinLine(id string, hits []MinimiserHit) string {
	out := id
	for _, h := range hits {
		out += fmt.Sprintf("\t%s:%d-%d", h.Minimiser, h.Start, h.End)
	}
	return out + "\n"
}

// MinToSeqEntry is one occurrence of a minimiser in min-to-seq mode.
type MinToSeqEntry struct {
	SeqID      string
	Start, End int
}

// RunMinToSeq builds a concurrent minimiser -> occurrences index over the
// whole source and returns it; it writes no output itself. The map's key
// order is not a stable cross-run order — callers needing deterministic
// output should sort the returned map's keys.
func (b *MinimiserBinner) RunMinToSeq(src *SequenceSource) (map[string][]MinToSeqEntry, error) {
	threads := b.Threads
	if threads <= 0 {
		threads = 1
	}
	index := make(map[string][]MinToSeqEntry)
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, threads)

	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				rec, err := src.Next()
				if err != nil {
					return
				}
				hits, herr := windowsOf(rec.Seq, b.WSize, b.MSize)
				if herr != nil {
					errCh <- herr
					return
				}
				mu.Lock()
				for _, h := range hits {
					index[h.Minimiser] = append(index[h.Minimiser], MinToSeqEntry{SeqID: rec.ID, Start: h.Start, End: h.End})
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return index, nil
}

// FormatMinToSeqLine renders one minimiser's occurrence list as
// "minimiser\t[(id,start,end),(id,start,end),...]".
func FormatMinToSeqLine(minimiser string, entries []MinToSeqEntry) string {
	out := minimiser + "\t["
	for i, e := range entries {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("(%s,%d,%d)", e.SeqID, e.Start, e.End)
	}
	return out + "]\n"
}
