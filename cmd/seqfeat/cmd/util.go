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
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/shenwei356/go-logging"
	"github.com/shenwei356/seqfeat"
	"github.com/shenwei356/seqfeat/index"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var log = logging.MustGetLogger("seqfeat")

// checkError is the toolkit-wide fatal-error reporter: print to stderr and
// exit non-zero. No panics, no stack traces leaking to the user.
func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// Config holds defaults sourced from an optional --config YAML file. CLI
// flags given explicitly always take precedence; a missing config file is
// not an error.
type Config struct {
	Threads      int     `yaml:"threads"`
	K            int     `yaml:"k"`
	Delimiter    string  `yaml:"delimiter"`
	MaxMemoryGB  float64 `yaml:"maxMemoryGB"`
	OutputGzip   bool    `yaml:"outputGzip"`
	CompressionN int     `yaml:"compressionLevel"`
}

// defaultConfig returns the compiled-in defaults applied when no --config
// file is given or a key is absent from it.
func defaultConfig() Config {
	return Config{
		K:           4,
		Delimiter:   ",",
		MaxMemoryGB: 4,
	}
}

// loadConfig reads path as YAML into a Config seeded with defaultConfig's
// values, so unset fields fall back sanely. path == "" falls back to
// ~/.seqfeat.yaml if present, then to the compiled-in defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return cfg, nil
		}
		def := filepath.Join(home, ".seqfeat.yaml")
		if _, err := os.Stat(def); err != nil {
			return cfg, nil
		}
		path = def
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Options holds the resolved global flags shared by every subcommand.
type Options struct {
	NumCPUs       int
	Verbose       bool
	Config        Config
	IndexCacheDir string
}

func getOptions(cmd *cobra.Command) Options {
	cfgPath := getFlagString(cmd, "config")
	cfg, err := loadConfig(cfgPath)
	checkError(err)

	opt := Options{
		Verbose:       getFlagBool(cmd, "verbose"),
		Config:        cfg,
		IndexCacheDir: getFlagString(cmd, "index-cache"),
	}
	if cmd.Flags().Changed("threads") {
		opt.NumCPUs = getFlagPositiveInt(cmd, "threads")
	} else if cfg.Threads > 0 {
		opt.NumCPUs = cfg.Threads
	} else {
		opt.NumCPUs = getFlagPositiveInt(cmd, "threads")
	}

	if opt.Verbose {
		logging.SetLevel(logging.INFO, "seqfeat")
	} else {
		logging.SetLevel(logging.NOTICE, "seqfeat")
	}
	return opt
}

func getFlagString(cmd *cobra.Command, flag string) string {
	v, err := cmd.Flags().GetString(flag)
	checkError(err)
	return v
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	v, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return v
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	v, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return v
}

func getFlagFloat64(cmd *cobra.Command, flag string) float64 {
	v, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return v
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	v := getFlagInt(cmd, flag)
	if v <= 0 {
		checkError(fmt.Errorf("value of flag --%s should be > 0", flag))
	}
	return v
}

// resolveDelimiter picks the field delimiter for oligo/cov output rows: the
// --delimiter flag if given explicitly, else opt.Config.Delimiter, and
// validates it against the three delimiters the vectorisers support.
func resolveDelimiter(cmd *cobra.Command, opt Options) byte {
	d := getFlagString(cmd, "delimiter")
	if !cmd.Flags().Changed("delimiter") && opt.Config.Delimiter != "" {
		d = opt.Config.Delimiter
	}
	switch d {
	case ",":
		return ','
	case "\t":
		return '\t'
	case " ":
		return ' '
	default:
		checkError(fmt.Errorf("--delimiter must be one of \",\", \"\\t\", \" \" (got %q)", d))
		return 0
	}
}

// resolveCanonicalIndex loads a cached canonical index for k from
// opt.IndexCacheDir when set, else builds it fresh; a freshly built index
// is saved back to the cache dir so the next invocation over the same k
// skips the O(4^k) enumeration. Caching is opt-in and best-effort: a
// failed save degrades to "rebuild next time", never a hard error.
func resolveCanonicalIndex(k int, opt Options) (*seqfeat.CanonicalIndex, error) {
	if opt.IndexCacheDir == "" {
		return seqfeat.BuildCanonicalIndex(k)
	}
	cachePath := filepath.Join(opt.IndexCacheDir, fmt.Sprintf("k%d.sqidx", k))
	if idx, err := index.Load(cachePath); err == nil {
		return idx, nil
	}
	idx, err := seqfeat.BuildCanonicalIndex(k)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opt.IndexCacheDir, 0755); err != nil {
		log.Warningf("index cache: could not create %s: %v", opt.IndexCacheDir, err)
		return idx, nil
	}
	if err := index.Save(cachePath, idx); err != nil {
		log.Warningf("index cache: could not save %s: %v", cachePath, err)
	}
	return idx, nil
}

// newOligoVectoriser is NewOligoVectoriser plus index-cache lookup, used by
// every subcommand that needs a canonical k-mer index (comp oligo, comp cgr
// --per-kmer).
func newOligoVectoriser(k int, normalise bool, opt Options) (*seqfeat.OligoVectoriser, error) {
	idx, err := resolveCanonicalIndex(k, opt)
	if err != nil {
		return nil, err
	}
	return &seqfeat.OligoVectoriser{K: k, Index: idx, Normalise: normalise}, nil
}

// isStdin reports whether file names stdin.
func isStdin(file string) bool {
	return file == "-"
}

// isStdout reports whether file names stdout.
func isStdout(file string) bool {
	return file == "-"
}

// getFileListFromArgsAndFile resolves a command's input file list: the
// infile-list flag, if given, wins over positional args; with neither, it
// falls back to stdin ("-") when allowStdin is set. Mirrors the pattern
// used throughout the reference toolkit's subcommands.
func getFileListFromArgsAndFile(cmd *cobra.Command, args []string, checkFile bool, flag string, allowStdin bool) []string {
	files := []string{}

	if flag != "" {
		listFile := getFlagString(cmd, flag)
		if listFile != "" {
			fh, err := os.Open(listFile)
			if err != nil {
				checkError(fmt.Errorf("open infile list %s: %w", listFile, err))
			}
			defer fh.Close()

			scanner := bufio.NewScanner(fh)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				files = append(files, line)
			}
			checkError(scanner.Err())
		}
	}

	if len(files) == 0 {
		files = append(files, args...)
	}

	if len(files) == 0 {
		if allowStdin {
			return []string{"-"}
		}
		checkError(fmt.Errorf("no input file given"))
	}

	if checkFile {
		for _, f := range files {
			if isStdin(f) {
				continue
			}
			if _, err := os.Stat(f); err != nil {
				checkError(fmt.Errorf("input file not found: %s", f))
			}
		}
	}

	return files
}

// ensureOutDir creates dir if missing and refuses to run against a
// non-empty existing directory unless force is set, the same DirExists +
// IsEmpty check the reference toolkit's merge/split subcommands use.
func ensureOutDir(dir string, force bool) error {
	existed, err := pathutil.DirExists(dir)
	if err != nil {
		return err
	}
	if !existed {
		return os.MkdirAll(dir, 0755)
	}
	empty, err := pathutil.IsEmpty(dir)
	if err != nil {
		return err
	}
	if !empty && !force {
		return fmt.Errorf("dir not empty: %s, choose another one or use --force to overwrite", dir)
	}
	return nil
}

