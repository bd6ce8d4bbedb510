// Package zopfli implements a deflate-compatible compressor that trades
// a great deal of CPU time for a few percent better compression than
// standard deflate encoders. Its output can be decompressed by any
// inflate implementation.
//
// Compression works on whole buffers: the input is parsed greedily, then
// reparsed several times with entropy-derived symbol costs, converging
// on a shorter parse each iteration. Block boundaries are chosen by
// recursive bisection over the parsed stream.
package zopfli

import (
	"fmt"
	"io"
)

// Format selects the container written around the deflate stream.
type Format int

const (
	FormatGzip Format = iota
	FormatZlib
	FormatDeflate
)

// BlockType selects a deflate block type. Most callers want
// BlockDynamic, which also considers the cheaper types per block.
type BlockType int

const (
	BlockUncompressed BlockType = iota
	BlockFixed
	BlockDynamic
)

// Options control how much effort is spent on compression.
type Options struct {
	// Verbose enables progress reporting to Diagnostic.
	Verbose bool
	// VerboseMore also reports every squeeze iteration.
	VerboseMore bool
	// NumIterations is the number of squeeze repetitions per block.
	// More iterations compress better but take longer. 0 skips the
	// squeeze and uses the greedy parse.
	NumIterations int
	// BlockSplitting enables choosing block boundaries by bisection.
	BlockSplitting bool
	// BlockSplittingMax caps the number of blocks per master block.
	// 0 means no limit.
	BlockSplittingMax int
	// Diagnostic receives verbose output. nil discards it.
	Diagnostic io.Writer
}

// DefaultOptions returns the recommended settings: 15 squeeze iterations
// and block splitting with at most 15 blocks per master block.
func DefaultOptions() Options {
	return Options{
		NumIterations:     15,
		BlockSplitting:    true,
		BlockSplittingMax: 15,
	}
}

func (o *Options) diagnostic() io.Writer {
	if o.Diagnostic == nil {
		return io.Discard
	}
	return o.Diagnostic
}

func (o *Options) check() error {
	if o.NumIterations < 0 {
		return fmt.Errorf("zopfli: invalid iteration count %d", o.NumIterations)
	}
	return nil
}

// Compress reads all of r and writes it compressed in the given format
// to w. size is a hint for sizing the input buffer; pass 0 if unknown.
// A nil options uses DefaultOptions.
//
// If reading fails partway, the bytes read so far are still compressed
// to a complete stream before the read error is returned; the container
// trailer is omitted in that case.
func Compress(options *Options, format Format, r io.Reader, size int64, w io.Writer) error {
	opts := DefaultOptions()
	if options != nil {
		opts = *options
	}
	if err := opts.check(); err != nil {
		return err
	}

	in, readErr := readAll(r, size)
	switch format {
	case FormatGzip:
		return writeGzip(&opts, in, readErr, w)
	case FormatZlib:
		return writeZlib(&opts, in, readErr, w)
	case FormatDeflate:
		if err := Deflate(&opts, BlockDynamic, in, w); err != nil {
			return err
		}
		return readErr
	default:
		return fmt.Errorf("zopfli: invalid format %d", format)
	}
}

// CompressSeekable is like Compress but derives the input size by
// seeking, so the input buffer can be allocated in one piece.
func CompressSeekable(options *Options, format Format, rs io.ReadSeeker, w io.Writer) error {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	return Compress(options, format, rs, end-pos, w)
}

// Deflate compresses in to w as a complete raw deflate stream. btype
// forces a block type; pass BlockDynamic to let each block use
// whichever type is smallest.
func Deflate(options *Options, btype BlockType, in []byte, w io.Writer) error {
	if err := options.check(); err != nil {
		return err
	}
	bw := newBitWriter(w)
	deflate(options, btype, true, in, bw)
	bw.flush()
	return bw.err
}

// readAll is io.ReadAll with a capacity hint.
func readAll(r io.Reader, size int64) ([]byte, error) {
	if size < 0 {
		size = 0
	}
	buf := make([]byte, 0, size+1)
	for {
		if len(buf) == cap(buf) {
			buf = append(buf, 0)[:len(buf)]
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			return buf, err
		}
	}
}
