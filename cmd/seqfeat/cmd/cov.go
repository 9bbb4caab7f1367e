// Copyright © 2018-2021 Wei Shen <shenwei356@gmail.com>
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

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shenwei356/seqfeat"
	"github.com/spf13/cobra"
)

var covCmd = &cobra.Command{
	Use:   "cov",
	Short: "k-mer coverage histogram per sequence",
	Long: `cov bins each sequence's canonical k-mers by their occurrence count
across a reference k-mer count file (built first via the external counter,
or reused from an earlier "seqfeat ctr" run with --counts).
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		runtime.GOMAXPROCS(opt.NumCPUs)

		k := getFlagPositiveInt(cmd, "kmer-len")
		binSize := getFlagPositiveInt(cmd, "bin-size")
		binCount := getFlagPositiveInt(cmd, "bin-count")
		normalise := getFlagBool(cmd, "normalize")
		outFile := getFlagString(cmd, "out-file")
		countsFile := getFlagString(cmd, "counts")
		countPath := getFlagString(cmd, "count-input")
		maxMemoryGB := getFlagFloat64(cmd, "max-memory")
		delim := resolveDelimiter(cmd, opt)

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if len(files) != 1 {
			checkError(fmt.Errorf("cov takes exactly one input file to vectorise (got %d)", len(files)))
		}
		if countsFile == "" && countPath == "" {
			countPath = files[0]
		}

		counts, err := resolveCounts(countsFile, countPath, k, opt.NumCPUs, maxMemoryGB)
		checkError(err)

		cv := seqfeat.NewCoverageVectoriser(k, uint32(binSize), binCount, normalise, counts)
		checkError(runCoverage(cv, files[0], outFile, normalise, delim, opt))
	},
}

func init() {
	RootCmd.AddCommand(covCmd)

	covCmd.Flags().IntP("kmer-len", "k", 4, "k-mer length (1..32)")
	covCmd.Flags().IntP("bin-size", "b", 1, "occurrence count span covered by one histogram bin")
	covCmd.Flags().IntP("bin-count", "B", 10, "number of histogram bins, last bin is an overflow bucket")
	covCmd.Flags().BoolP("normalize", "n", false, "normalise bin counts to frequencies summing to 1")
	covCmd.Flags().StringP("out-file", "o", "-", `output file ("-" for stdout)`)
	covCmd.Flags().StringP("counts", "", "", "pre-built counter output file (<kmer>\\t<count> lines, or a .compact file from 'ctr --compact'); skips running the counter")
	covCmd.Flags().StringP("count-input", "", "", "sequence file to count k-mers over when --counts is not given (defaults to the vectorised input)")
	covCmd.Flags().Float64P("max-memory", "m", 4, "counter memory budget in GB, see 'seqfeat ctr --help'")
	covCmd.Flags().StringP("delimiter", "d", ",", `field delimiter: "," (default), "\t", or " "`)
}

func resolveCounts(countsFile, countPath string, k, threads int, maxMemoryGB float64) (map[uint64]uint32, error) {
	if countsFile != "" {
		return loadCountsFile(countsFile)
	}
	if countPath == "" {
		return nil, fmt.Errorf("either --counts or --count-input (or a single positional input) is required")
	}
	dir, err := os.MkdirTemp("", "seqfeat-cov-")
	if err != nil {
		return nil, errors.Wrap(err, "create temp counter dir")
	}
	c, err := seqfeat.NewCounter(seqfeat.CounterOptions{
		InPath:      countPath,
		OutDir:      dir,
		K:           k,
		MaxMemoryGB: maxMemoryGB,
		Threads:     threads,
		DeleteTemps: true,
	})
	if err != nil {
		return nil, err
	}
	if _, _, err := c.Run(); err != nil {
		return nil, err
	}
	return seqfeat.LoadCounts(filepath.Join(dir, "kmers.counts"))
}

// loadCountsFile reads a --counts file, transparently gunzipping it if
// needed; unlike seqfeat.LoadCounts (used for our own freshly merged
// kmers.counts), a user-supplied counts file may be compressed. A path
// ending in .compact is read as the variable-length binary encoding
// written by "seqfeat ctr --compact" instead of the tab-delimited text form.
func loadCountsFile(path string) (map[uint64]uint32, error) {
	if strings.HasSuffix(path, ".compact") {
		pairs, err := seqfeat.ReadCompactCounts(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read compact counts %s", path)
		}
		counts := make(map[uint64]uint32, len(pairs))
		for _, p := range pairs {
			counts[p.Code] = p.Count
		}
		return counts, nil
	}

	br, f, err := inStream(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open counts file %s", path)
	}
	if f != nil && f != os.Stdin {
		defer f.Close()
	}

	counts := make(map[uint64]uint32)
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed counts line: %q", line)
		}
		code, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			asACGT, encErr := seqfeat.Encode([]byte(fields[0]))
			if encErr != nil {
				return nil, fmt.Errorf("malformed counts key %q: %w", fields[0], err)
			}
			code = asACGT
		}
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed counts value %q: %w", fields[1], err)
		}
		counts[code] = uint32(n)
	}
	return counts, sc.Err()
}

func runCoverage(cv *seqfeat.CoverageVectoriser, inFile, outFile string, normalise bool, delim byte, opt Options) error {
	src, err := seqfeat.NewSequenceSource(inFile)
	if err != nil {
		return err
	}
	defer src.Close()

	bufw, closer, f, err := outStream(outFile, strings.HasSuffix(outFile, ".gz") || opt.Config.OutputGzip, opt.Config.CompressionN)
	if err != nil {
		return err
	}
	defer func() {
		bufw.Flush()
		if closer != nil {
			closer.Close()
		}
		f.Close()
	}()

	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, opt.NumCPUs)
	rows := make(map[uint64]string)

	for t := 0; t < opt.NumCPUs; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				rec, err := src.Next()
				if err != nil {
					if err != io.EOF {
						errCh <- err
					}
					return
				}
				vec, err := cv.Vectorise(rec.Seq)
				if err != nil {
					errCh <- errors.Wrapf(err, "sequence %s", rec.ID)
					return
				}
				row := string(seqfeat.FormatRow(vec, normalise, 0, delim))
				mu.Lock()
				rows[rec.Ordinal] = row
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		return err
	}

	for i := uint64(0); i < uint64(len(rows)); i++ {
		bufw.WriteString(rows[i])
	}
	if opt.Verbose {
		log.Infof("cov: wrote %d rows", len(rows))
	}
	return nil
}
