package bcimg

import "math"

// BCRAW stores pixels exactly as the in-memory representation does, so its
// decoder is a bounds-checked copy. It serves as the reference layout the
// other formats must match after their transforms.

// readFlags reads and validates the 8 flag bytes every format starts with.
// reserved counts the leading bytes that must be zero.
func readFlags(rd *reader, reserved int) ([8]byte, error) {
	var flags [8]byte
	if err := rd.readFull(flags[:], "flags"); err != nil {
		return flags, err
	}

	for i := 0; i < reserved; i++ {
		if flags[i] != 0 {
			return flags, formatErr(ErrInvalidHeader, "reserved flags should be 0")
		}
	}

	return flags, nil
}

// readDims reads the big-endian width and height that follow the flags.
func readDims(rd *reader) (width, height uint64, err error) {
	width, err = rd.readU64("u64")
	if err != nil {
		return 0, 0, err
	}

	height, err = rd.readU64("u64")
	if err != nil {
		return 0, 0, err
	}

	return width, height, nil
}

// decodeRawHeader validates the BCRAW fixed header. The format has no
// dimension ceiling of its own, so the only size constraint is that the
// pixel buffer length 3*width*height is computable without overflow.
func decodeRawHeader(rd *reader) (int, int, error) {
	flags, err := readFlags(rd, 7)
	if err != nil {
		return 0, 0, err
	}

	// 8 selects 8-bit-deep RGB, the only supported depth.
	if flags[7] != 8 {
		return 0, 0, formatErr(ErrInvalidHeader, "unsupported depth")
	}

	width, height, err := readDims(rd)
	if err != nil {
		return 0, 0, err
	}

	if width == 0 || height == 0 {
		return 0, 0, formatErr(ErrSizeRange, "size must be positive")
	}

	const limit = math.MaxInt / 3
	if width > limit || height > limit/width {
		return 0, 0, formatErr(ErrSizeRange, "size too large")
	}

	return int(width), int(height), nil
}

// decodeRaw reads a BCRAW image. Only the magic number has been consumed
// when it is called.
func decodeRaw(rd *reader) (*Image, error) {
	width, height, err := decodeRawHeader(rd)
	if err != nil {
		return nil, err
	}

	img := newImage(width, height)

	if err := decodeTags(rd, img); err != nil {
		return nil, err
	}

	// Row-major RGB with no padding, identical to the wire layout.
	for row := 0; row < height; row++ {
		line := img.Pix[3*row*width : 3*(row+1)*width]
		if err := rd.readFull(line, "raw data"); err != nil {
			return nil, err
		}
	}

	return img, nil
}
