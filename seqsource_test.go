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
	"os"
	"path/filepath"
	"testing"
)

const (
	fqRead1 = "GGGTGATGGCCGCTGCCGATGGCGTCAAATCCCACCAAGTTACCCTTAACAACTTAAGGGTTTTCAAATAGA"
	fqRead2 = "GTTCAGGGATACGACGTTTGTATTTTAAGAATCTGAAGCAGAAGTCGATGATAATACGCGTCGTTTTATCAT"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSequenceSourceReadsFastaFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "reads.fa",
		">Record_1\n"+fqRead1+"\n>Record_2\n"+fqRead2+"\n")

	src, err := NewSequenceSource(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	r1, err := src.Next()
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID != "Record_1" || string(r1.Seq) != fqRead1 || r1.Ordinal != 0 {
		t.Errorf("record 1: got %+v", r1)
	}

	r2, err := src.Next()
	if err != nil {
		t.Fatal(err)
	}
	if r2.ID != "Record_2" || string(r2.Seq) != fqRead2 || r2.Ordinal != 1 {
		t.Errorf("record 2: got %+v", r2)
	}

	if _, err := src.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last record, got %v", err)
	}
}

func TestSequenceSourceReadsFastqFile(t *testing.T) {
	dir := t.TempDir()
	qual := make([]byte, len(fqRead1))
	for i := range qual {
		qual[i] = 'I'
	}
	path := writeTemp(t, dir, "reads.fq",
		"@Read_1\n"+fqRead1+"\n+\n"+string(qual)+"\n")

	src, err := NewSequenceSource(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	r1, err := src.Next()
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID != "Read_1" || string(r1.Seq) != fqRead1 {
		t.Errorf("record 1: got %+v", r1)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestComputeSeqStats(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "reads.fa",
		">Record_1\n"+fqRead1+"\n>Record_2\n"+fqRead2+"\n")

	stats, err := ComputeSeqStats(path)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SeqCount != 2 {
		t.Errorf("SeqCount: got %d, want 2", stats.SeqCount)
	}
	want := uint64(len(fqRead1) + len(fqRead2))
	if stats.TotalLength != want {
		t.Errorf("TotalLength: got %d, want %d", stats.TotalLength, want)
	}
}

func TestComputeSeqStatsRejectsStdin(t *testing.T) {
	if _, err := ComputeSeqStats("-"); err != ErrStdinNotRewindable {
		t.Errorf("expected ErrStdinNotRewindable, got %v", err)
	}
}

// TestSequenceSourceReadsStdin swaps os.Stdin for a pipe to check that
// path "-" is read as a stream, matching the convention ComputeSeqStats
// and the CLI's input-path flag share throughout this toolkit.
func TestSequenceSourceReadsStdin(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = orig }()

	go func() {
		io.WriteString(w, ">Record_1\nACGTACGTACGT\n")
		w.Close()
	}()

	src, err := NewSequenceSource("-")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	rec, err := src.Next()
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "Record_1" || string(rec.Seq) != "ACGTACGTACGT" {
		t.Errorf("got %+v", rec)
	}
}
