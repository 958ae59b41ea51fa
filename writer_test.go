package bcimg

import (
	"bytes"
	"testing"
)

func TestEncodePPM(t *testing.T) {
	payload := []byte{10, 20, 30, 40, 50, 60}

	img, err := DecodeImage(bytes.NewReader(rawFile(2, 1, payload)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	var b bytes.Buffer
	if err := EncodePPM(&b, img); err != nil {
		t.Fatalf("EncodePPM failed: %v", err)
	}

	want := append([]byte("P6\n2 1\n255\n"), payload...)
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("Output mismatch:\ngot  %q\nwant %q", b.Bytes(), want)
	}
}

func TestEncodePPMLarger(t *testing.T) {
	pix := make([]byte, 3*4*3)
	for i := range pix {
		pix[i] = byte(i * 7)
	}

	img, err := DecodeImage(bytes.NewReader(rawFile(4, 3, pix)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	var b bytes.Buffer
	if err := EncodePPM(&b, img); err != nil {
		t.Fatalf("EncodePPM failed: %v", err)
	}

	if got := b.Len(); got != len("P6\n4 3\n255\n")+len(pix) {
		t.Errorf("Output length = %d, want %d", got, len("P6\n4 3\n255\n")+len(pix))
	}

	if !bytes.HasPrefix(b.Bytes(), []byte("P6\n4 3\n255\n")) {
		t.Errorf("Header = %q, want P6 4x3 header", b.Bytes()[:11])
	}
}
