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
	"runtime"
	"sort"
	"strings"

	"github.com/shenwei356/seqfeat"
	"github.com/spf13/cobra"
)

var minCmd = &cobra.Command{
	Use:   "min",
	Short: "minimiser extraction and binning",
	Long: `min slides a window of size --wsize over each sequence and reports
its minimum --msize-mer by lexicographic order (the minimiser).

--mode seq-to-min writes one line per sequence: "id<TAB>mer:start-end<TAB>…".
--mode min-to-seq writes one line per minimiser: "mer<TAB>[(id,start,end),…]",
accumulated in memory across the whole input before being written out.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		runtime.GOMAXPROCS(opt.NumCPUs)

		wsize := getFlagPositiveInt(cmd, "wsize")
		msize := getFlagPositiveInt(cmd, "msize")
		mode := getFlagString(cmd, "mode")
		outFile := getFlagString(cmd, "out-file")

		if mode != "seq-to-min" && mode != "min-to-seq" {
			checkError(fmt.Errorf("--mode must be seq-to-min or min-to-seq, got %q", mode))
		}

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if len(files) != 1 {
			checkError(fmt.Errorf("min takes exactly one input file (got %d)", len(files)))
		}

		b := &seqfeat.MinimiserBinner{WSize: wsize, MSize: msize, Threads: opt.NumCPUs}
		checkError(runMinimiser(b, files[0], outFile, mode, opt))
	},
}

func init() {
	RootCmd.AddCommand(minCmd)

	minCmd.Flags().IntP("wsize", "w", 31, "window size in bases")
	minCmd.Flags().IntP("msize", "m", 7, "minimiser length in bases")
	minCmd.Flags().StringP("mode", "M", "seq-to-min", "seq-to-min | min-to-seq")
	minCmd.Flags().StringP("out-file", "o", "-", `output file ("-" for stdout)`)
}

func runMinimiser(b *seqfeat.MinimiserBinner, inFile, outFile, mode string, opt Options) error {
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

	if mode == "seq-to-min" {
		if err := b.RunSeqToMin(src, bufw); err != nil {
			return err
		}
		if opt.Verbose {
			log.Info("min: seq-to-min pass complete")
		}
		return nil
	}

	index, err := b.RunMinToSeq(src)
	if err != nil {
		return err
	}
	mers := make([]string, 0, len(index))
	for m := range index {
		mers = append(mers, m)
	}
	sort.Strings(mers)
	for _, m := range mers {
		bufw.WriteString(seqfeat.FormatMinToSeqLine(m, index[m]))
	}
	if opt.Verbose {
		log.Infof("min: min-to-seq pass complete, %d distinct minimisers", len(index))
	}
	return nil
}
