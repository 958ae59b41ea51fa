package bcimg

import (
	"fmt"
	"image"
	"image/color"
	"time"
)

// defaultLogFormat renders the standard per-image log line. Files may
// override it for themselves with a FRMT metadata tag; the override never
// outlives the image it came from.
const defaultLogFormat = "Displaying image of width %d and height %d from %s"

// Image is a decoded Badly Coded image. Pix holds exactly 3*Width*Height
// bytes of interleaved 8-bit R, G, B samples, rows top to bottom, pixels
// left to right, no padding between rows. A returned Image is fully
// decoded and owned by the caller; the decoder keeps no reference to it.
type Image struct {
	// Pix holds the pixel samples in R, G, B order.
	Pix []byte
	// Width and Height are the image dimensions in pixels.
	Width, Height int
	// CreateTime is the creation timestamp from the TIME metadata tag.
	// The zero value means the file carried none.
	CreateTime time.Time

	logFormat string
}

// newImage allocates the pixel buffer for validated dimensions. Size
// validation, including the 3*w*h overflow check, happens in the format
// headers before this point.
func newImage(width, height int) *Image {
	return &Image{
		Pix:       make([]byte, 3*width*height),
		Width:     width,
		Height:    height,
		logFormat: defaultLogFormat,
	}
}

// ColorModel returns the RGBA color model; samples are fully opaque.
func (m *Image) ColorModel() color.Model { return color.RGBAModel }

// Bounds returns the image dimensions.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (m *Image) PixOffset(x, y int) int {
	return 3 * (y*m.Width + x)
}

// At returns the pixel at (x, y).
func (m *Image) At(x, y int) color.Color {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return color.RGBA{}
	}

	i := m.PixOffset(x, y)

	return color.RGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: 0xff}
}

// Opaque reports whether the image is fully opaque. It always is.
func (m *Image) Opaque() bool { return true }

// LogMessage renders the human-readable line describing this image, using
// the file's FRMT template when one was present and the built-in template
// otherwise. An unknown creation time reads as "recently".
func (m *Image) LogMessage() string {
	timeStr := "recently"
	if !m.CreateTime.IsZero() {
		timeStr = m.CreateTime.Format("Mon, 02 Jan 2006 15:04:05 -0700")
	}

	format := m.logFormat
	if format == "" {
		format = defaultLogFormat
	}

	return fmt.Sprintf(format, m.Width, m.Height, timeStr)
}
