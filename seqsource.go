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
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Sequence is one record pulled off a SequenceSource.
type Sequence struct {
	Ordinal uint64
	ID      string
	Seq     []byte
}

// SeqStats is the result of a single streaming pass over a sequence file.
type SeqStats struct {
	SeqCount    uint64
	TotalLength uint64
}

// SequenceSource is a uniform, concurrency-safe iterator over a FASTA/FASTQ
// file (or stdin), gzip or not — format and compression detection are
// delegated to fastx.NewDefaultReader, the same reader the reference
// toolkit's count/view/sample commands use. Workers share one
// SequenceSource and call Next() under its internal lock.
type SequenceSource struct {
	path    string
	reader  *fastx.Reader
	mu      sync.Mutex
	ordinal uint64
}

// NewSequenceSource opens path ("-" for stdin) for streaming.
func NewSequenceSource(path string) (*SequenceSource, error) {
	r, err := fastx.NewDefaultReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sequence source %s", path)
	}
	return &SequenceSource{path: path, reader: r}, nil
}

// Next returns the next record, or io.EOF when the source is exhausted.
// Safe to call from multiple goroutines: each call delivers a distinct
// record with a unique, gapless Ordinal.
func (s *SequenceSource) Next() (Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.reader.Read()
	if err != nil {
		return Sequence{}, err
	}

	// fastx.Reader reuses its internal record buffer across calls, so the
	// bytes must be copied out before releasing the lock.
	seq := make([]byte, len(rec.Seq.Seq))
	copy(seq, rec.Seq.Seq)
	id := string(rec.ID)

	ord := s.ordinal
	s.ordinal++
	return Sequence{Ordinal: ord, ID: id, Seq: seq}, nil
}

// Close releases the underlying reader.
func (s *SequenceSource) Close() {
	s.reader.Close()
}

// ComputeSeqStats does a one-shot streaming pass over path, counting
// records and total sequence length. It is used to size the mmap output
// of indexed-mode vectorisers and to estimate the external counter's
// partition count. It cannot be used on stdin, which is not rewindable —
// callers needing both stats and data on stdin must fall back to batch
// mode, which needs no upfront size.
func ComputeSeqStats(path string) (SeqStats, error) {
	if path == "-" {
		return SeqStats{}, ErrStdinNotRewindable
	}
	r, err := fastx.NewDefaultReader(path)
	if err != nil {
		return SeqStats{}, errors.Wrapf(err, "open sequence source %s", path)
	}
	defer r.Close()

	var stats SeqStats
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return stats, errors.Wrapf(err, "scanning %s", path)
		}
		stats.SeqCount++
		stats.TotalLength += uint64(len(rec.Seq.Seq))
	}
	return stats, nil
}
