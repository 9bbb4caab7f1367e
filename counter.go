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
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/twotwotwo/sorts"
)

// CounterOptions configures a partitioned external k-mer counter run.
type CounterOptions struct {
	InPath      string
	OutDir      string
	K           int
	MaxMemoryGB float64
	Threads     int
	ACGTOutput  bool // emit k-mers as ACGT text instead of their numeric code
	DeleteTemps bool
}

// PartitionCount implements the counter's sizing formula: P = max(T,
// ceil(8*data_gb / (2*mem_gb))), an 8 bytes/k-mer estimate with the memory
// budget split between the live hash table and the OS page cache backing
// spill writes.
func PartitionCount(threads int, dataBytes int64, maxMemoryGB float64) int {
	dataGB := float64(dataBytes) / (1 << 30)
	byBudget := int(math.Ceil(8 * dataGB / (2 * maxMemoryGB)))
	if byBudget < threads {
		return threads
	}
	return byBudget
}

// chunkByteBudget returns the cumulative sequence-byte budget for a single
// chunked-counting pass, per the 8-bytes/k-mer accounting used to size
// partitions.
func chunkByteBudget(maxMemoryGB float64) uint64 {
	return uint64(1e9 * maxMemoryGB / 8)
}

// Counter runs the chunked-then-merge external k-mer counting pipeline
// described for this engine: spill per-partition chunk files while a
// bounded amount of sequence is processed, then merge each partition's
// chunks into a single deterministically-sorted output.
type Counter struct {
	opts CounterOptions
	k    int
}

// NewCounter validates opts and returns a ready-to-run Counter.
func NewCounter(opts CounterOptions) (*Counter, error) {
	if opts.K <= 0 || opts.K > 32 {
		return nil, ErrKOverflow
	}
	if opts.Threads <= 0 {
		opts.Threads = 1
	}
	if opts.MaxMemoryGB <= 0 {
		opts.MaxMemoryGB = 1
	}
	return &Counter{opts: opts, k: opts.K}, nil
}

func chunkSpillPath(dir string, part, chunk int) string {
	return filepath.Join(dir, fmt.Sprintf("temp_kmers.part_%d_chunk_%d", part, chunk))
}

// Run executes the full chunked + merge pipeline and writes
// <OutDir>/kmers.counts. It returns the number of partitions used and the
// number of chunk passes performed, mainly for test assertions.
func (c *Counter) Run() (partitions, chunks int, err error) {
	src, err := NewSequenceSource(c.opts.InPath)
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	stats, statErr := ComputeSeqStats(c.opts.InPath)
	var dataBytes int64
	if statErr == nil {
		dataBytes = int64(stats.TotalLength)
		// stats consumed a full pass over the file; re-open for the real run.
		src.Close()
		src, err = NewSequenceSource(c.opts.InPath)
		if err != nil {
			return 0, 0, err
		}
	}

	P := PartitionCount(c.opts.Threads, dataBytes, c.opts.MaxMemoryGB)
	budget := chunkByteBudget(c.opts.MaxMemoryGB)

	if err := os.MkdirAll(c.opts.OutDir, 0755); err != nil {
		return 0, 0, errors.Wrapf(err, "create output dir %s", c.opts.OutDir)
	}

	chunk := 0
	for {
		counters := make([]*ShardedCounter, P)
		for i := range counters {
			counters[i] = NewShardedCounter()
		}

		var processedBases uint64
		var mu sync.Mutex
		var recordsSeen uint64

		var wg sync.WaitGroup
		for t := 0; t < c.opts.Threads; t++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					mu.Lock()
					if processedBases >= budget {
						mu.Unlock()
						return
					}
					mu.Unlock()

					rec, rerr := src.Next()
					if rerr != nil {
						return
					}

					it, ierr := NewKmerIterator(rec.Seq, c.k)
					if ierr != nil {
						continue
					}
					for {
						fval, rval, ok := it.Next()
						if !ok {
							break
						}
						km := fval
						if rval < fval {
							km = rval
						}
						p := km % uint64(P)
						counters[p].Add(km)
					}

					mu.Lock()
					processedBases += uint64(len(rec.Seq))
					recordsSeen++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if recordsSeen == 0 {
			break
		}

		var spillWG sync.WaitGroup
		spillErrs := make([]error, P)
		for p := 0; p < P; p++ {
			spillWG.Add(1)
			go func(p int) {
				defer spillWG.Done()
				spillErrs[p] = spillPartition(chunkSpillPath(c.opts.OutDir, p, chunk), counters[p])
			}(p)
		}
		spillWG.Wait()
		for _, e := range spillErrs {
			if e != nil {
				return P, chunk + 1, e
			}
		}

		chunk++
	}

	if err := c.merge(P, chunk); err != nil {
		return P, chunk, err
	}
	return P, chunk, nil
}

func spillPartition(path string, counter *ShardedCounter) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create spill file %s", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for k, v := range counter.Snapshot() {
		if _, err := fmt.Fprintf(w, "%d\t%d\n", k, v); err != nil {
			return errors.Wrapf(err, "write spill file %s", path)
		}
	}
	return w.Flush()
}

// merge folds every partition's chunk spill files into the final output,
// one partition at a time, sorting each partition's keys numerically
// before writing so the output is byte-identical across thread counts
// and independent of map iteration order.
func (c *Counter) merge(partitions, chunks int) error {
	outPath := filepath.Join(c.opts.OutDir, "kmers.counts")
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "create merged output %s", outPath)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	for p := 0; p < partitions; p++ {
		merged := make(map[uint64]uint32)
		var mu sync.Mutex
		var wg sync.WaitGroup
		errs := make([]error, chunks)

		for ch := 0; ch < chunks; ch++ {
			wg.Add(1)
			go func(ch int) {
				defer wg.Done()
				path := chunkSpillPath(c.opts.OutDir, p, ch)
				local, rerr := readSpillFile(path)
				if rerr != nil {
					errs[ch] = rerr
					return
				}
				mu.Lock()
				for k, v := range local {
					merged[k] += v
				}
				mu.Unlock()
				if c.opts.DeleteTemps {
					os.Remove(path)
				}
			}(ch)
		}
		wg.Wait()
		for _, e := range errs {
			if e != nil {
				return e
			}
		}

		pairs := make(CodeCountSlice, 0, len(merged))
		for k, v := range merged {
			pairs = append(pairs, CodeCount{Code: k, Count: v})
		}
		sorts.Sort(pairs)

		for _, pair := range pairs {
			if c.opts.ACGTOutput {
				fmt.Fprintf(w, "%s\t%d\n", Decode(pair.Code, c.k), pair.Count)
			} else {
				fmt.Fprintf(w, "%d\t%d\n", pair.Code, pair.Count)
			}
		}
	}
	return w.Flush()
}

func readSpillFile(path string) (map[uint64]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read spill file %s", path)
	}
	defer f.Close()
	out := make(map[uint64]uint32)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		k, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			k, err = Encode([]byte(fields[0]))
			if err != nil {
				return nil, errors.Wrapf(err, "parse spill kmer in %s", path)
			}
		}
		v, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "parse spill count in %s", path)
		}
		out[k] += uint32(v)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan spill file %s", path)
	}
	return out, nil
}

// LoadCounts reads a merged kmers.counts file into memory, for use by the
// coverage vectoriser. Accepts either key encoding the counter can write
// (numeric code or ACGT text, see CounterOptions.ACGTOutput).
func LoadCounts(path string) (map[uint64]uint32, error) {
	return readSpillFile(path)
}
