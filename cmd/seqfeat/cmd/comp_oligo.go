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

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/seqfeat"
	"github.com/spf13/cobra"
)

// oligoFieldWidth is the fixed width of one normalised fraction field
// ("0." plus 6 fractional digits), used to size indexed-mode rows.
const oligoFieldWidth = 8

var compOligoCmd = &cobra.Command{
	Use:   "oligo",
	Short: "canonical k-mer frequency vector per sequence",
	Long: `oligo computes the canonical k-mer composition vector of every
input sequence: a dense vector of length C(k), one count or frequency per
canonical k-mer.

Indexed (mmap) output is used automatically when normalisation is on and
the input is not stdin, giving every row a fixed byte width; otherwise
output falls back to batch mode.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		runtime.GOMAXPROCS(opt.NumCPUs)

		k := getFlagPositiveInt(cmd, "kmer-len")
		normalise := getFlagBool(cmd, "normalize")
		header := getFlagBool(cmd, "header")
		outFile := getFlagString(cmd, "out-file")
		maxMemoryGB := getFlagFloat64(cmd, "max-memory")
		delim := resolveDelimiter(cmd, opt)

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if len(files) != 1 {
			checkError(fmt.Errorf("comp oligo takes exactly one input file (got %d)", len(files)))
		}
		file := files[0]

		ov, err := newOligoVectoriser(k, normalise, opt)
		checkError(err)

		if !isStdin(file) && normalise {
			if header {
				checkError(fmt.Errorf("--header is incompatible with indexed-mode output (fixed-width rows, no header slot); drop -n/--normalize to fall back to batch mode"))
			}
			checkError(runOligoIndexed(ov, file, outFile, delim, opt))
			return
		}
		checkError(runOligoBatch(ov, file, outFile, header, normalise, delim, maxMemoryGB, opt))
	},
}

func init() {
	compCmd.AddCommand(compOligoCmd)

	compOligoCmd.Flags().IntP("kmer-len", "k", 4, "k-mer length (1..12)")
	compOligoCmd.Flags().BoolP("normalize", "n", false, "normalise counts to frequencies summing to 1")
	compOligoCmd.Flags().BoolP("header", "H", false, "write a header row of canonical k-mers (ACGT) first")
	compOligoCmd.Flags().StringP("out-file", "o", "-", `output file ("-" for stdout)`)
	compOligoCmd.Flags().Float64P("max-memory", "m", 4, "batch-mode memory budget in GB for buffering input sequences")
	compOligoCmd.Flags().StringP("delimiter", "d", ",", `field delimiter: "," (default), "\t", or " "`)
}

func oligoHeaderRow(idx *seqfeat.CanonicalIndex, delim byte) string {
	fields := make([]string, idx.Count)
	for i := 0; i < idx.Count; i++ {
		fields[i] = string(seqfeat.Decode(idx.KmerAt(i), idx.K))
	}
	return strings.Join(fields, string(delim)) + "\n"
}

// runOligoBatch buffers whole sequences until the cumulative byte total
// reaches maxMemoryGB, maps each buffered sequence to its row string in
// parallel, then writes the buffer's rows as one concatenated join —
// preserving input order across an unordered worker pool.
func runOligoBatch(ov *seqfeat.OligoVectoriser, inFile, outFile string, header, normalise bool, delim byte, maxMemoryGB float64, opt Options) error {
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

	if header {
		bufw.WriteString(oligoHeaderRow(ov.Index, delim))
	}

	budget := uint64(1e9 * maxMemoryGB)
	var batch []seqfeat.Sequence
	var batchBytes uint64
	var total uint64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		rows := make([]string, len(batch))
		var wg sync.WaitGroup
		sem := make(chan struct{}, opt.NumCPUs)
		for i := range batch {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				vec, err := ov.Vectorise(batch[i].Seq)
				checkError(err)
				rows[i] = string(seqfeat.FormatRow(vec, normalise, 0, delim))
			}(i)
		}
		wg.Wait()
		for _, row := range rows {
			bufw.WriteString(row)
		}
		total += uint64(len(batch))
		batch = batch[:0]
		batchBytes = 0
		return nil
	}

	for {
		rec, err := src.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrap(err, "reading sequence")
		}
		batch = append(batch, rec)
		batchBytes += uint64(len(rec.Seq))
		if batchBytes >= budget {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if opt.Verbose {
		log.Infof("oligo: wrote %d rows (batch mode, budget %s)", total, humanize.Bytes(budget))
	}
	return nil
}

// runOligoIndexed precomputes the sequence count, pre-sizes an mmap output
// file to header + seq_count*rowWidth bytes, and spawns a worker pool that
// shares the sequence source and writes each row at its deterministic
// offset — so the final bytes are identical no matter how many workers ran.
func runOligoIndexed(ov *seqfeat.OligoVectoriser, inFile, outFile string, delim byte, opt Options) error {
	if isStdout(outFile) {
		return fmt.Errorf("indexed-mode output requires a regular file path, not stdout")
	}
	stats, err := seqfeat.ComputeSeqStats(inFile)
	if err != nil {
		return err
	}

	rowWidth := ov.RowWidth(oligoFieldWidth)
	headerLen := int64(seqfeat.HeaderLen)
	size := headerLen + int64(stats.SeqCount)*int64(rowWidth)

	w, err := seqfeat.CreateMMapWriter(outFile, size)
	if err != nil {
		return err
	}
	w.WriteAt(seqfeat.EncodeHeader(seqfeat.VectorHeader{
		Version:     seqfeat.MainVersion,
		K:           uint8(ov.K),
		VectorWidth: uint32(ov.Index.Count),
		RowWidth:    uint32(rowWidth),
		SeqCount:    stats.SeqCount,
	}), 0)

	src, err := seqfeat.NewSequenceSource(inFile)
	if err != nil {
		w.Close()
		return err
	}
	defer src.Close()

	var wg sync.WaitGroup
	errCh := make(chan error, opt.NumCPUs)
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
				vec, err := ov.Vectorise(rec.Seq)
				if err != nil {
					errCh <- err
					return
				}
				row := seqfeat.FormatRow(vec, true, oligoFieldWidth, delim)
				w.WriteAt(row, headerLen+int64(rec.Ordinal)*int64(rowWidth))
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		w.Close()
		return err
	}

	if opt.Verbose {
		log.Infof("oligo: wrote %d rows (indexed mode)", stats.SeqCount)
	}
	return w.Close()
}
