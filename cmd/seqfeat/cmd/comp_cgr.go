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
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shenwei356/seqfeat"
	"github.com/spf13/cobra"
)

var compCGRCmd = &cobra.Command{
	Use:   "cgr",
	Short: "Chaos Game Representation of each sequence",
	Long: `cgr walks each input sequence through the Chaos Game Representation
recurrence, one marker position per base. --per-kmer instead emits one
(x,y,freq) triple per canonical k-mer, reusing the comp oligo frequency
vector and replaying the same recurrence on each k-mer as a short sequence.

Always runs in batch mode: rows have variable length (one point per base,
or one triple per canonical k-mer), so indexed mmap output does not apply.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		runtime.GOMAXPROCS(opt.NumCPUs)

		v := getFlagFloat64(cmd, "side")
		perKmer := getFlagBool(cmd, "per-kmer")
		k := getFlagPositiveInt(cmd, "kmer-len")
		normalise := getFlagBool(cmd, "normalize")
		outFile := getFlagString(cmd, "out-file")

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if len(files) != 1 {
			checkError(fmt.Errorf("comp cgr takes exactly one input file (got %d)", len(files)))
		}

		cv := seqfeat.NewCGRVectoriser(v)

		var ov *seqfeat.OligoVectoriser
		if perKmer {
			var err error
			ov, err = newOligoVectoriser(k, normalise, opt)
			checkError(err)
		}

		checkError(runCGR(cv, ov, files[0], outFile, perKmer, opt))
	},
}

func init() {
	compCmd.AddCommand(compCGRCmd)

	compCGRCmd.Flags().Float64P("side", "V", 1, "side length of the CGR square")
	compCGRCmd.Flags().BoolP("per-kmer", "", false, "emit one (x,y,freq) triple per canonical k-mer instead of per base")
	compCGRCmd.Flags().IntP("kmer-len", "k", 4, "k-mer length for --per-kmer (1..12)")
	compCGRCmd.Flags().BoolP("normalize", "n", true, "normalise per-kmer frequencies to sum to 1")
	compCGRCmd.Flags().StringP("out-file", "o", "-", `output file ("-" for stdout)`)
}

func runCGR(cv *seqfeat.CGRVectoriser, ov *seqfeat.OligoVectoriser, inFile, outFile string, perKmer bool, opt Options) error {
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
				var row string
				if perKmer {
					points, err := seqfeat.VectorisePerKmer(ov, cv, rec.Seq)
					if err != nil {
						errCh <- errors.Wrapf(err, "sequence %s", rec.ID)
						return
					}
					row = seqfeat.FormatKmerPoints(points)
				} else {
					points, err := cv.Vectorise(rec.Seq)
					if err != nil {
						errCh <- errors.Wrapf(err, "sequence %s", rec.ID)
						return
					}
					row = seqfeat.FormatPoints(points)
				}
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
		log.Infof("cgr: wrote %d rows", len(rows))
	}
	return nil
}
