package bcimg

import (
	"fmt"
	"io"
)

// EncodePPM writes m to w in the binary PPM (P6) format. The PPM body is
// byte-identical to the in-memory pixel layout, so only the short text
// header is added; 255 is the PPM "maxval", matching 8 bits per sample.
func EncodePPM(w io.Writer, m *Image) error {
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", m.Width, m.Height); err != nil {
		return err
	}

	_, err := w.Write(m.Pix)

	return err
}
