package bcimg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// flatFile assembles a BCFLAT file around an already entropy-coded
// payload of three channel planes.
func flatFile(width, height uint64, planes []byte) []byte {
	var b bytes.Buffer

	b.WriteString("BCFL\xc3\x84T\n")
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0x0d, 0x03})
	binary.Write(&b, binary.BigEndian, width)
	binary.Write(&b, binary.BigEndian, height)
	b.WriteString("DATA")
	b.Write(planes)

	return b.Bytes()
}

// TestDecodeFlat decodes a 2x1 image whose three planes each hold one
// raw byte and one coded difference (0, +1 and -1).
func TestDecodeFlat(t *testing.T) {
	planes := []byte{10, 0x80, 20, 0xa0, 30, 0xb0}

	img, err := DecodeImage(bytes.NewReader(flatFile(2, 1, planes)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	want := []byte{10, 20, 30, 10, 21, 29}
	if !bytes.Equal(img.Pix, want) {
		t.Fatalf("Pixels mismatch: got %v, want %v", img.Pix, want)
	}
}

// TestDecodeFlatMultiRow checks that rows restart cleanly: each row of
// each plane is a raw byte plus one zero difference.
func TestDecodeFlatMultiRow(t *testing.T) {
	planes := []byte{1, 0x80, 2, 0x80, 3, 0x80, 4, 0x80, 5, 0x80, 6, 0x80}

	img, err := DecodeImage(bytes.NewReader(flatFile(2, 2, planes)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	want := []byte{
		1, 3, 5, 1, 3, 5,
		2, 4, 6, 2, 4, 6,
	}

	if !bytes.Equal(img.Pix, want) {
		t.Fatalf("Pixels mismatch: got %v, want %v", img.Pix, want)
	}
}

// TestDecodeFlatCodedRow decodes a 10-pixel row mixing repeat codes,
// difference runs and single differences, identical in every channel.
func TestDecodeFlatCodedRow(t *testing.T) {
	// 0010 (repeat 3), 011001 (+2 three times), 1011 (-1),
	// 110001 (+3), 100 (0), one pad bit.
	row := []byte{100, 0x26, 0x6f, 0x18}

	var planes []byte
	for i := 0; i < 3; i++ {
		planes = append(planes, row...)
	}

	img, err := DecodeImage(bytes.NewReader(flatFile(10, 1, planes)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	samples := []byte{100, 100, 100, 100, 102, 104, 106, 105, 108, 108}
	for x, s := range samples {
		for channel := 0; channel < 3; channel++ {
			if got := img.Pix[3*x+channel]; got != s {
				t.Errorf("Pixel %d channel %d = %d, want %d", x, channel, got, s)
			}
		}
	}
}

// TestDecodeFlatExcessPixels rejects a codeword that would run past the
// end of the row.
func TestDecodeFlatExcessPixels(t *testing.T) {
	// First byte, then a three-sample run where only two pixels remain.
	planes := []byte{10, 0x60}

	_, err := Decode(bytes.NewReader(flatFile(3, 1, planes)))
	if !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("Expected ErrInvalidSample, got %v", err)
	}
}

func TestDecodeFlatShortInput(t *testing.T) {
	tests := []struct {
		name   string
		planes []byte
	}{
		{"no data", nil},
		{"first byte only", []byte{10}},
		{"incomplete codeword", []byte{10, 0xed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(flatFile(3, 1, tt.planes)))
			if !errors.Is(err, ErrShortRead) {
				t.Errorf("Decode = %v, want ErrShortRead", err)
			}
		})
	}
}

func TestDecodeFlatHeaderErrors(t *testing.T) {
	mangle := func(f func(b []byte)) []byte {
		b := flatFile(2, 1, []byte{10, 0x80, 20, 0xa0, 30, 0xb0})
		f(b)

		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "reserved flag set",
			data: mangle(func(b []byte) { b[8] = 1 }),
			want: ErrInvalidHeader,
		},
		{
			name: "bad dictionary size",
			data: mangle(func(b []byte) { b[14] = 12 }),
			want: ErrInvalidHeader,
		},
		{
			name: "bad channel count",
			data: mangle(func(b []byte) { b[15] = 4 }),
			want: ErrInvalidHeader,
		},
		{
			name: "zero width",
			data: flatFile(0, 1, nil),
			want: ErrSizeRange,
		},
		{
			name: "beyond default limit",
			data: flatFile(DefaultSizeLimit+1, 1, nil),
			want: ErrSizeRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("Decode = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestDecodeFlatSizeLimit checks that the option tightens the dimension
// ceiling without touching the decoder.
func TestDecodeFlatSizeLimit(t *testing.T) {
	data := flatFile(2, 1, []byte{10, 0x80, 20, 0xa0, 30, 0xb0})

	if _, err := DecodeImage(bytes.NewReader(data), &Options{SizeLimit: 2}); err != nil {
		t.Fatalf("DecodeImage with permissive limit failed: %v", err)
	}

	_, err := DecodeImage(bytes.NewReader(data), &Options{SizeLimit: 1})
	if !errors.Is(err, ErrSizeRange) {
		t.Fatalf("Expected ErrSizeRange, got %v", err)
	}
}

func BenchmarkDecodeFlat(b *testing.B) {
	// Each row compresses 63 repeated samples into exactly 12 bytes:
	// 31 two-sample repeats and one zero difference.
	row := make([]byte, 13)
	row[12] = 0x04

	var planes []byte
	for channel := 0; channel < 3; channel++ {
		for y := 0; y < 64; y++ {
			row[0] = byte(channel*64 + y)
			planes = append(planes, row...)
		}
	}
	data := flatFile(64, 64, planes)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Decode(bytes.NewReader(data)); err != nil {
			b.Fatalf("Decode failed: %v", err)
		}
	}
}
