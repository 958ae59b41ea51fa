// Package bcimg implements a decoder for the Badly Coded family of binary
// image containers: BCRAW (uncompressed), BCPROG (three-pass progressive
// rows over a 6x6x6 palette) and BCFLAT (entropy-coded row differences).
// All three expand into the same in-memory representation, an [Image]
// holding 8-bit interleaved RGB with no row padding.
package bcimg

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Standard error kinds. Decode failures wrap one of these, adding detail
// about the specific field or sample that was rejected.
var (
	ErrUnknownFormat = errors.New("unrecognized format")
	ErrShortRead     = errors.New("short read")
	ErrInvalidHeader = errors.New("invalid header")
	ErrSizeRange     = errors.New("size out of range")
	ErrUnknownTag    = errors.New("unrecognized tag")
	ErrTagTooLarge   = errors.New("tag too large")
	ErrInvalidSample = errors.New("invalid sample")
)

// DefaultSizeLimit caps BCFLAT dimensions so that 3*width*height stays
// well inside the signed 32-bit range: floor(sqrt(2^31 / 3)).
const DefaultSizeLimit = 26754

// Each format is identified by a unique 8 bytes at the start of the file.
const (
	bcrawMagic  = "\x00BCR\xc3\x84W\n"
	bcprogMagic = "BCPR\xc3\x96G\n"
	bcflatMagic = "BCFL\xc3\x84T\n"
)

// Options specifies decoding parameters.
type Options struct {
	// SizeLimit is the maximum width and height accepted for BCFLAT
	// images. Zero means DefaultSizeLimit. The ceiling is policy rather
	// than a property of the format, so callers with a known memory
	// budget may raise or lower it per decode.
	SizeLimit int
}

func (o *Options) sizeLimit() int {
	if o == nil || o.SizeLimit <= 0 {
		return DefaultSizeLimit
	}

	return o.SizeLimit
}

// DecodeImage reads a BCRAW, BCPROG or BCFLAT image from r and returns it
// together with its metadata. The format is selected by the 8-byte magic
// prefix; no bytes past the magic are read when it matches none of the
// known formats.
func DecodeImage(r io.Reader, opts ...*Options) (*Image, error) {
	var o *Options
	if len(opts) > 0 {
		o = opts[0]
	}

	rd := &reader{r: r}

	magic, err := rd.magic()
	if err != nil {
		return nil, err
	}

	switch magic {
	case bcrawMagic:
		return decodeRaw(rd)
	case bcprogMagic:
		return decodeProg(rd)
	case bcflatMagic:
		return decodeFlat(rd, o.sizeLimit())
	default:
		return nil, ErrUnknownFormat
	}
}

// Decode reads a BCRAW, BCPROG or BCFLAT image from r and returns it as an
// [image.Image]. It accepts an optional Options struct.
func Decode(r io.Reader, opts ...*Options) (image.Image, error) {
	return DecodeImage(r, opts...)
}

// DecodeConfig returns the color model and dimensions of an image without
// decoding the metadata section or pixel data. Header validation is the
// same as for a full decode, with the BCFLAT size ceiling at its default.
func DecodeConfig(r io.Reader) (image.Config, error) {
	rd := &reader{r: r}

	magic, err := rd.magic()
	if err != nil {
		return image.Config{}, err
	}

	var width, height int
	switch magic {
	case bcrawMagic:
		width, height, err = decodeRawHeader(rd)
	case bcprogMagic:
		width, height, err = decodeProgHeader(rd)
	case bcflatMagic:
		width, height, err = decodeFlatHeader(rd, DefaultSizeLimit)
	default:
		return image.Config{}, ErrUnknownFormat
	}

	if err != nil {
		return image.Config{}, err
	}

	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      width,
		Height:     height,
	}, nil
}

// formatErr attaches the specific problem to one of the sentinel kinds.
func formatErr(kind error, detail string) error {
	return fmt.Errorf("%s: %w", detail, kind)
}

// init registers the three formats with the standard library's image
// package, so image.Decode recognizes Badly Coded files by their magic.
func init() {
	decodeWrapper := func(r io.Reader) (image.Image, error) {
		return Decode(r)
	}

	image.RegisterFormat("bcraw", bcrawMagic, decodeWrapper, DecodeConfig)
	image.RegisterFormat("bcprog", bcprogMagic, decodeWrapper, DecodeConfig)
	image.RegisterFormat("bcflat", bcflatMagic, decodeWrapper, DecodeConfig)
}
