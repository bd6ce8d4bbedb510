package zopfli

import (
	"bytes"
	"compress/flate"
	"io"
	"testing"
)

func TestBitWriter(t *testing.T) {
	b := new(bytes.Buffer)
	w := newBitWriter(b)
	w.writeBits(1, 1)
	w.writeBits(2, 2) // bits 0, 1
	w.writeBits(0x1f, 5)
	w.flush()
	if w.err != nil {
		t.Fatal(w.err)
	}
	// LSB first: 1, then 01, then 11111.
	if got := b.Bytes(); len(got) != 1 || got[0] != 0xfd {
		t.Fatalf("got % x, want fd", got)
	}
}

func TestBitWriterAlign(t *testing.T) {
	b := new(bytes.Buffer)
	w := newBitWriter(b)
	w.writeBits(1, 1)
	w.alignToByte()
	w.writeBytes([]byte{0xab, 0xcd})
	w.flush()
	if w.err != nil {
		t.Fatal(w.err)
	}
	want := []byte{0x01, 0xab, 0xcd}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("got % x, want % x", b.Bytes(), want)
	}
}

type failWriter struct{ after int }

func (w *failWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, io.ErrClosedPipe
	}
	w.after -= len(p)
	return len(p), nil
}

func TestBitWriterStickyError(t *testing.T) {
	w := newBitWriter(&failWriter{})
	w.writeBytes(make([]byte, 10))
	if w.err == nil {
		t.Fatal("expected an error")
	}
	first := w.err
	w.writeBits(1, 1)
	w.writeBytes(make([]byte, 10))
	w.flush()
	if w.err != first {
		t.Fatalf("error was overwritten: %v", w.err)
	}
}

func TestStoredBlock(t *testing.T) {
	data := []byte("stored data")
	b := new(bytes.Buffer)
	w := newBitWriter(b)
	addNonCompressedBlock(true, data, 0, len(data), w)
	w.flush()
	if w.err != nil {
		t.Fatal(w.err)
	}

	out := b.Bytes()
	// BFINAL=1, BTYPE=00, padding, then LEN and NLEN.
	if out[0] != 0x01 {
		t.Errorf("header byte = %#02x, want 0x01", out[0])
	}
	n := len(data)
	if out[1] != byte(n) || out[2] != byte(n>>8) {
		t.Errorf("LEN = % x, want %04x", out[1:3], n)
	}
	if out[3] != ^out[1] || out[4] != ^out[2] {
		t.Errorf("NLEN is not the complement of LEN: % x", out[1:5])
	}
	if !bytes.Equal(out[5:], data) {
		t.Error("stored bytes don't match")
	}

	sr := flate.NewReader(bytes.NewReader(out))
	decompressed, err := io.ReadAll(sr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("decompressed output doesn't match")
	}
}

func TestFixedTree(t *testing.T) {
	llLengths := make([]uint32, numLL)
	dLengths := make([]uint32, numD)
	fixedTree(llLengths, dLengths)
	if llLengths[0] != 8 || llLengths[143] != 8 || llLengths[144] != 9 ||
		llLengths[255] != 9 || llLengths[256] != 7 || llLengths[279] != 7 ||
		llLengths[280] != 8 || llLengths[287] != 8 {
		t.Error("fixed literal/length tree is wrong")
	}
	for i, l := range dLengths {
		if l != 5 {
			t.Errorf("distance %d: length %d, want 5", i, l)
		}
	}
}

func TestPatchDistanceCodes(t *testing.T) {
	d := make([]uint32, numD)
	patchDistanceCodes(d)
	if d[0] != 1 || d[1] != 1 {
		t.Errorf("no distances: got %v %v, want 1 1", d[0], d[1])
	}

	d = make([]uint32, numD)
	d[5] = 3
	patchDistanceCodes(d)
	if d[0] != 1 {
		t.Error("single distance: expected d[0] to be patched")
	}

	d = make([]uint32, numD)
	d[0] = 2
	patchDistanceCodes(d)
	if d[1] != 1 {
		t.Error("single distance at 0: expected d[1] to be patched")
	}

	d = make([]uint32, numD)
	d[3] = 4
	d[9] = 4
	before := append([]uint32(nil), d...)
	patchDistanceCodes(d)
	for i := range d {
		if d[i] != before[i] {
			t.Error("two distances: lengths must not change")
		}
	}
}

// The size estimator must agree exactly with the bits the writer
// produces, or the block type choices would be wrong.
func TestCalculateBlockSizeExact(t *testing.T) {
	data := textData(30000)
	store := greedyParse(t, data)
	options := DefaultOptions()

	for _, btype := range []BlockType{BlockUncompressed, BlockFixed, BlockDynamic} {
		estimated := calculateBlockSize(store, 0, store.size(), btype)

		b := new(bytes.Buffer)
		w := newBitWriter(b)
		addLZ77Block(&options, btype, true, store, 0, store.size(), w)
		actual := w.bitsWritten()
		if btype == BlockUncompressed {
			// The stored header is padded to a byte boundary; the
			// estimate charges the full padded size.
			actual = (actual + 7) &^ 7
		}
		if float64(actual) != estimated {
			t.Errorf("btype %d: estimated %.0f bits, wrote %d", btype, estimated, actual)
		}

		w.flush()
		if w.err != nil {
			t.Fatal(w.err)
		}
		sr := flate.NewReader(b)
		decompressed, err := io.ReadAll(sr)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(decompressed, data) {
			t.Fatalf("btype %d: decompressed output doesn't match", btype)
		}
	}
}

func TestEncodeTreeSizeMatches(t *testing.T) {
	data := textData(20000)
	store := greedyParse(t, data)
	llLengths := make([]uint32, numLL)
	dLengths := make([]uint32, numD)
	dynamicLengths(store, 0, store.size(), llLengths, dLengths)

	for i := 0; i < 8; i++ {
		use16, use17, use18 := i&1 != 0, i&2 != 0, i&4 != 0
		size := encodeTree(llLengths, dLengths, use16, use17, use18, nil)

		b := new(bytes.Buffer)
		w := newBitWriter(b)
		written := encodeTree(llLengths, dLengths, use16, use17, use18, w)
		if written != size {
			t.Errorf("combination %d: size-only %d, with output %d", i, size, written)
		}
		if got := w.bitsWritten(); got != size {
			t.Errorf("combination %d: estimated %d bits, wrote %d", i, size, got)
		}
	}
}

func TestHuffmanCodeLengthsValid(t *testing.T) {
	data := textData(20000)
	store := greedyParse(t, data)
	llLengths := make([]uint32, numLL)
	dLengths := make([]uint32, numD)
	dynamicLengths(store, 0, store.size(), llLengths, dLengths)

	kraft := 0
	for _, l := range llLengths {
		if l > 15 {
			t.Fatalf("literal/length code length %d exceeds 15", l)
		}
		if l != 0 {
			kraft += 1 << (15 - l)
		}
	}
	if kraft != 1<<15 {
		t.Errorf("literal/length code incomplete: kraft %d/%d", kraft, 1<<15)
	}
	for _, l := range dLengths {
		if l > 15 {
			t.Fatalf("distance code length %d exceeds 15", l)
		}
	}
}

func TestDeflateForcedBlockTypes(t *testing.T) {
	data := textData(5000)
	for _, btype := range []BlockType{BlockUncompressed, BlockFixed, BlockDynamic} {
		options := DefaultOptions()
		b := new(bytes.Buffer)
		if err := Deflate(&options, btype, data, b); err != nil {
			t.Fatal(err)
		}
		sr := flate.NewReader(b)
		decompressed, err := io.ReadAll(sr)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(decompressed, data) {
			t.Fatalf("btype %d: decompressed output doesn't match", btype)
		}
	}
}

func TestLengthsToSymbols(t *testing.T) {
	// The example from RFC 1951 section 3.2.2.
	lengths := []uint32{3, 3, 3, 3, 3, 2, 4, 4}
	symbols := make([]uint32, len(lengths))
	lengthsToSymbols(lengths, 4, symbols)
	want := []uint32{2, 3, 4, 5, 6, 0, 14, 15}
	for i := range want {
		if symbols[i] != want[i] {
			t.Fatalf("got %v, want %v", symbols, want)
		}
	}
}

func TestReverseBits(t *testing.T) {
	if got := reverseBits(0b110, 3); got != 0b011 {
		t.Errorf("got %b, want 011", got)
	}
	if got := reverseBits(1, 5); got != 16 {
		t.Errorf("got %d, want 16", got)
	}
}
