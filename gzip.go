package zopfli

import (
	"hash/crc32"
	"io"
)

// writeGzip wraps the deflate stream in an RFC 1952 container: a fixed
// ten-byte header, then the CRC-32 and length of the uncompressed data,
// both little endian. If readErr is not nil, the deflate stream is
// still completed but the trailer is omitted and readErr returned.
func writeGzip(options *Options, in []byte, readErr error, w io.Writer) error {
	header := [10]byte{
		0x1f, 0x8b, // magic
		8,          // deflate
		0,          // no flags
		0, 0, 0, 0, // no modification time
		2, // slowest compression was used
		3, // unix
	}
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	bw := newBitWriter(w)
	deflate(options, BlockDynamic, true, in, bw)
	bw.flush()
	if bw.err != nil {
		return bw.err
	}
	if readErr != nil {
		return readErr
	}

	crc := crc32.ChecksumIEEE(in)
	size := uint32(len(in))
	trailer := [8]byte{
		byte(crc), byte(crc >> 8), byte(crc >> 16), byte(crc >> 24),
		byte(size), byte(size >> 8), byte(size >> 16), byte(size >> 24),
	}
	_, err := w.Write(trailer[:])
	return err
}
