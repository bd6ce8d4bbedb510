package zopfli

import (
	"hash/adler32"
	"io"
)

// writeZlib wraps the deflate stream in an RFC 1950 container: a
// two-byte header declaring a 32 KiB window and maximum compression,
// then the Adler-32 of the uncompressed data, big endian. If readErr is
// not nil, the deflate stream is still completed but the trailer is
// omitted and readErr returned.
func writeZlib(options *Options, in []byte, readErr error, w io.Writer) error {
	const (
		cmf = 0x78 // deflate with a 32 KiB window
		flg = 0xda // maximum compression, (cmf*256+flg)%31 == 0
	)
	if _, err := w.Write([]byte{cmf, flg}); err != nil {
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

	sum := adler32.Checksum(in)
	trailer := [4]byte{
		byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum),
	}
	_, err := w.Write(trailer[:])
	return err
}
