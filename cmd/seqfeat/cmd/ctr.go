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
	"path/filepath"
	"runtime"
	"sort"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/shenwei356/seqfeat"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"
)

var ctrCmd = &cobra.Command{
	Use:   "ctr",
	Short: "exact disk-parallel k-mer counter",
	Long: `ctr runs the external, partition-and-merge canonical k-mer counter
directly, for standalone use outside the "cov" pipeline. Partitions the
k-mer space across --max-memory GB of working set, spills per-partition
chunk files under --out-dir, then merges and sorts each partition.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		runtime.GOMAXPROCS(opt.NumCPUs)

		k := getFlagPositiveInt(cmd, "kmer-len")
		outDir := getFlagString(cmd, "out-dir")
		maxMemoryGB := getFlagFloat64(cmd, "max-memory")
		acgt := getFlagBool(cmd, "acgt")
		deleteTemps := getFlagBool(cmd, "delete-temps")
		force := getFlagBool(cmd, "force")
		compact := getFlagBool(cmd, "compact")

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if len(files) != 1 {
			checkError(fmt.Errorf("ctr takes exactly one input file (got %d)", len(files)))
		}

		checkError(ensureOutDir(outDir, force))

		c, err := seqfeat.NewCounter(seqfeat.CounterOptions{
			InPath:      files[0],
			OutDir:      outDir,
			K:           k,
			MaxMemoryGB: maxMemoryGB,
			Threads:     opt.NumCPUs,
			ACGTOutput:  acgt,
			DeleteTemps: deleteTemps,
		})
		checkError(err)

		start := time.Now()
		partitions, chunks, err := c.Run()
		checkError(err)
		elapsed := time.Since(start)

		if compact {
			checkError(writeCompactCopy(outDir))
		}

		if opt.Verbose {
			printCounterSummary(outDir, partitions, chunks, elapsed)
		}
	},
}

func init() {
	RootCmd.AddCommand(ctrCmd)

	ctrCmd.Flags().IntP("kmer-len", "k", 21, "k-mer length (1..32)")
	ctrCmd.Flags().StringP("out-dir", "O", "./seqfeat-ctr-out", "output directory for the merged counts file and any surviving spill files")
	ctrCmd.Flags().Float64P("max-memory", "m", 4, "approximate working-set budget in GB; drives partition count and chunk size")
	ctrCmd.Flags().BoolP("acgt", "", true, "write k-mers as ACGT text instead of their numeric code")
	ctrCmd.Flags().BoolP("delete-temps", "", true, "delete per-partition spill files after a successful merge")
	ctrCmd.Flags().BoolP("force", "f", false, "overwrite a non-empty --out-dir")
	ctrCmd.Flags().BoolP("compact", "", false, "also write kmers.compact, a variable-length binary encoding of the merged counts, smaller than the text form at large k")
}

// writeCompactCopy reads the just-merged kmers.counts text file and
// rewrites it as kmers.compact alongside it, for --compact runs where the
// distinct canonical k-mer count makes the text file large enough to matter.
func writeCompactCopy(outDir string) error {
	counts, err := seqfeat.LoadCounts(filepath.Join(outDir, "kmers.counts"))
	if err != nil {
		return err
	}
	pairs := make(seqfeat.CodeCountSlice, 0, len(counts))
	for code, n := range counts {
		pairs = append(pairs, seqfeat.CodeCount{Code: code, Count: n})
	}
	sort.Sort(pairs)
	return seqfeat.WriteCompactCounts(filepath.Join(outDir, "kmers.compact"), pairs)
}

func printCounterSummary(outDir string, partitions, chunks int, elapsed time.Duration) {
	counts, err := seqfeat.LoadCounts(filepath.Join(outDir, "kmers.counts"))
	checkError(err)

	exists, err := pathutil.Exists(outDir)
	checkError(err)
	if !exists {
		checkError(fmt.Errorf("output directory vanished: %s", outDir))
	}

	columns := []prettytable.Column{
		{Header: "partitions", AlignRight: true},
		{Header: "chunks", AlignRight: true},
		{Header: "distinct k-mers", AlignRight: true},
		{Header: "elapsed"},
	}
	tbl, err := prettytable.NewTable(columns...)
	checkError(err)
	tbl.Separator = "  "
	tbl.AddRow(partitions, chunks, humanize.Comma(int64(len(counts))), elapsed.Round(time.Millisecond).String())
	fmt.Print(string(tbl.Bytes()))
}
