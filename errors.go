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

import "github.com/pkg/errors"

// ErrKOverflow means k is outside (0,32].
var ErrKOverflow = errors.New("seqfeat: k (1-32) overflow")

// ErrInvalidWindow means w<=m or m<=0 for a minimiser run.
var ErrInvalidWindow = errors.New("seqfeat: invalid minimiser window, need 0 < m < w")

// ErrShortSequence means the sequence is shorter than k (or w).
var ErrShortSequence = errors.New("seqfeat: sequence shorter than required window")

// ErrUnsupportedFormat means the input file extension is not recognised.
var ErrUnsupportedFormat = errors.New("seqfeat: unsupported sequence file format")

// ErrAmbiguousBase means CGR hit a base outside {A,C,G,T,U} (case-insensitive).
var ErrAmbiguousBase = errors.New("seqfeat: bad nucleotide, unable to proceed")

// ErrStdinNotRewindable means a stats pass was requested on stdin, which
// cannot be read a second time for the main pass.
var ErrStdinNotRewindable = errors.New("seqfeat: stdin is not rewindable, cannot be read twice")

// ErrIndexTooLarge means BuildCanonicalIndex was asked for a k too big to
// enumerate (4^k must fit comfortably in RAM).
var ErrIndexTooLarge = errors.New("seqfeat: k too large to build a canonical index table (k<=12 supported)")

// ErrInvalidMmapHeader means a pre-sized output file's header magic/version
// did not match what this build expects.
var ErrInvalidMmapHeader = errors.New("seqfeat: invalid or incompatible mmap vector file header")
