// Command zopfli compresses files with very slow but very good deflate
// compression. Output is written next to each input file, with .gz,
// .zlib or .deflate appended to the name.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/andybalholm/zopfli"
)

var (
	iterations = flag.Int("i", 15, "number of compression iterations (more is slower but better)")
	useZlib    = flag.Bool("zlib", false, "write zlib output instead of gzip")
	useDeflate = flag.Bool("deflate", false, "write raw deflate output instead of gzip")
	toStdout   = flag.Bool("c", false, "write to standard output")
	verbose    = flag.Bool("v", false, "report progress on standard error")
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: zopfli [options] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	options := zopfli.DefaultOptions()
	options.NumIterations = *iterations
	if *verbose {
		options.Verbose = true
		options.Diagnostic = os.Stderr
	}

	format := zopfli.FormatGzip
	suffix := ".gz"
	switch {
	case *useZlib:
		format = zopfli.FormatZlib
		suffix = ".zlib"
	case *useDeflate:
		format = zopfli.FormatDeflate
		suffix = ".deflate"
	}

	status := 0
	for _, name := range flag.Args() {
		if err := compressFile(&options, format, name, suffix); err != nil {
			fmt.Fprintf(os.Stderr, "zopfli: %v\n", err)
			status = 1
		}
	}
	os.Exit(status)
}

func compressFile(options *zopfli.Options, format zopfli.Format, name, suffix string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	var out io.Writer = os.Stdout
	if !*toStdout {
		of, err := os.Create(name + suffix)
		if err != nil {
			return err
		}
		defer of.Close()
		out = of
	}

	return zopfli.CompressSeekable(options, format, f, out)
}
