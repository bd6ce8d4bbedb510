package zopfli

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"hash/adler32"
	"io"
	"math/rand"
	"testing"

	kpflate "github.com/klauspost/compress/flate"
)

// textData builds n bytes of English-like, highly compressible input.
func textData(n int) []byte {
	sentence := []byte("It seems probable to me that God in the beginning " +
		"formed matter in solid, massy, hard, impenetrable, movable " +
		"particles, of such sizes and figures, and with such other " +
		"properties, and in such proportion to space, as most conduced " +
		"to the end for which he formed them. ")
	data := make([]byte, 0, n)
	for len(data) < n {
		data = append(data, sentence...)
	}
	return data[:n]
}

func compress(t *testing.T, options *Options, format Format, data []byte) []byte {
	t.Helper()
	b := new(bytes.Buffer)
	if err := Compress(options, format, bytes.NewReader(data), int64(len(data)), b); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func roundTrip(t *testing.T, format Format, data []byte) []byte {
	t.Helper()
	compressed := compress(t, nil, format, data)

	var sr io.Reader
	var err error
	switch format {
	case FormatGzip:
		sr, err = gzip.NewReader(bytes.NewReader(compressed))
	case FormatZlib:
		sr, err = zlib.NewReader(bytes.NewReader(compressed))
	case FormatDeflate:
		sr = flate.NewReader(bytes.NewReader(compressed))
	}
	if err != nil {
		t.Fatal(err)
	}
	decompressed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("decompressed output doesn't match")
	}
	return compressed
}

func TestRoundTrip(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("a"),
		[]byte("Hello, World!\n"),
		bytes.Repeat([]byte{0}, 4096),
		bytes.Repeat([]byte("abcde"), 1000),
		textData(100000),
	}
	rng := rand.New(rand.NewSource(42))
	random := make([]byte, 65536)
	rng.Read(random)
	inputs = append(inputs, random)

	for _, format := range []Format{FormatDeflate, FormatZlib, FormatGzip} {
		for _, data := range inputs {
			roundTrip(t, format, data)
		}
	}
}

// The raw deflate output must also satisfy an independent inflater.
func TestRoundTripKlauspost(t *testing.T) {
	data := textData(50000)
	compressed := compress(t, nil, FormatDeflate, data)
	sr := kpflate.NewReader(bytes.NewReader(compressed))
	decompressed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("decompressed output doesn't match")
	}
}

func TestEmptyGzip(t *testing.T) {
	compressed := compress(t, nil, FormatGzip, nil)
	want := []byte{
		0x1f, 0x8b, 8, 0, 0, 0, 0, 0, 2, 3, // header
		0x03, 0x00, // fixed empty block
		0, 0, 0, 0, // CRC-32 of nothing
		0, 0, 0, 0, // ISIZE
	}
	if !bytes.Equal(compressed, want) {
		t.Fatalf("got % x, want % x", compressed, want)
	}
}

func TestGzipTrailer(t *testing.T) {
	compressed := roundTrip(t, FormatGzip, []byte("A"))
	trailer := compressed[len(compressed)-8:]
	crc := uint32(trailer[0]) | uint32(trailer[1])<<8 |
		uint32(trailer[2])<<16 | uint32(trailer[3])<<24
	if crc != 0xd3d99e8b {
		t.Errorf("CRC-32 = %#08x, want 0xd3d99e8b", crc)
	}
	size := uint32(trailer[4]) | uint32(trailer[5])<<8 |
		uint32(trailer[6])<<16 | uint32(trailer[7])<<24
	if size != 1 {
		t.Errorf("ISIZE = %d, want 1", size)
	}
}

func TestZlibHeaderAndTrailer(t *testing.T) {
	data := []byte("Hello, World!\n")
	compressed := roundTrip(t, FormatZlib, data)

	if compressed[0] != 0x78 {
		t.Errorf("CMF = %#02x, want 0x78", compressed[0])
	}
	if (uint32(compressed[0])*256+uint32(compressed[1]))%31 != 0 {
		t.Errorf("header check bits invalid: % x", compressed[:2])
	}

	trailer := compressed[len(compressed)-4:]
	sum := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 |
		uint32(trailer[2])<<8 | uint32(trailer[3])
	if want := adler32.Checksum(data); sum != want {
		t.Errorf("Adler-32 = %#08x, want %#08x", sum, want)
	}
}

func TestZerosCompressTightly(t *testing.T) {
	compressed := roundTrip(t, FormatGzip, make([]byte, 1024))
	payload := len(compressed) - 10 - 8
	if payload >= 30 {
		t.Errorf("1024 zeros compressed to %d bytes of deflate data, want < 30", payload)
	}
}

func TestMoreIterationsNeverHurt(t *testing.T) {
	data := textData(50000)

	few := DefaultOptions()
	few.NumIterations = 1
	many := DefaultOptions()
	many.NumIterations = 15

	sizeFew := len(compress(t, &few, FormatDeflate, data))
	sizeMany := len(compress(t, &many, FormatDeflate, data))
	if sizeMany > sizeFew {
		t.Errorf("15 iterations gave %d bytes, 1 iteration gave %d", sizeMany, sizeFew)
	}
}

// On incompressible data the output must stay close to a good reference
// encoder, which will mostly emit stored blocks just like we do.
func TestRandomDataOverhead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 1 MiB compression in short mode")
	}
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 1<<20)
	rng.Read(data)

	options := DefaultOptions()
	options.NumIterations = 1
	compressed := compress(t, &options, FormatDeflate, data)

	b := new(bytes.Buffer)
	fw, err := kpflate.NewWriter(b, kpflate.BestCompression)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	fw.Close()

	if limit := b.Len() * 102 / 100; len(compressed) > limit {
		t.Errorf("compressed to %d bytes, reference encoder %d", len(compressed), b.Len())
	}

	sr := flate.NewReader(bytes.NewReader(compressed))
	decompressed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("decompressed output doesn't match")
	}
}

func TestCompressSeekable(t *testing.T) {
	data := textData(10000)
	b := new(bytes.Buffer)
	if err := CompressSeekable(nil, FormatGzip, bytes.NewReader(data), b); err != nil {
		t.Fatal(err)
	}
	sr, err := gzip.NewReader(b)
	if err != nil {
		t.Fatal(err)
	}
	decompressed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("decompressed output doesn't match")
	}
}

func TestInvalidIterations(t *testing.T) {
	options := DefaultOptions()
	options.NumIterations = -1
	err := Compress(&options, FormatGzip, bytes.NewReader(nil), 0, io.Discard)
	if err == nil {
		t.Fatal("expected an error for a negative iteration count")
	}
}

// 0 iterations must still produce a valid stream from the greedy parse.
func TestZeroIterations(t *testing.T) {
	data := textData(5000)
	options := DefaultOptions()
	options.NumIterations = 0
	b := new(bytes.Buffer)
	if err := Compress(&options, FormatDeflate, bytes.NewReader(data), int64(len(data)), b); err != nil {
		t.Fatal(err)
	}
	sr := flate.NewReader(b)
	decompressed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("decompressed output doesn't match")
	}
}

// errReader fails after yielding its data.
type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReadErrorAfterCompleteStream(t *testing.T) {
	readErr := io.ErrUnexpectedEOF
	data := []byte("partial input")
	b := new(bytes.Buffer)
	err := Compress(nil, FormatGzip, &errReader{data: data, err: readErr}, 0, b)
	if err != readErr {
		t.Fatalf("got error %v, want %v", err, readErr)
	}

	// The deflate stream before the missing trailer must still be
	// complete and contain everything that was read.
	compressed := b.Bytes()
	if len(compressed) < 10 {
		t.Fatal("no gzip header written")
	}
	sr := flate.NewReader(bytes.NewReader(compressed[10:]))
	decompressed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("decompressed output doesn't match")
	}
}
