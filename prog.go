package bcimg

// BCPROG stores one packed palette byte per pixel, with rows interleaved
// across three progressive passes so a partial read yields a coarse
// preview. Decoding therefore has two strict phases: place every row at
// its sequential position, then expand the packed bytes to 24-bit color.

const (
	progMaxWidth  = 800
	progMaxHeight = 600
)

// decodeProgHeader validates the BCPROG fixed header and dimensions.
func decodeProgHeader(rd *reader) (int, int, error) {
	flags, err := readFlags(rd, 6)
	if err != nil {
		return 0, 0, err
	}

	// 1 selects the three-pass row-progressive scheme.
	if flags[6] != 0x01 {
		return 0, 0, formatErr(ErrInvalidHeader, "unsupported passes number")
	}

	// 0xd8 selects the 216-color 6x6x6 cube palette.
	if flags[7] != 0xd8 {
		return 0, 0, formatErr(ErrInvalidHeader, "unsupported color depth")
	}

	width, height, err := readDims(rd)
	if err != nil {
		return 0, 0, err
	}

	// The progressive row scheme needs at least two rows.
	if height < 2 || width < 1 {
		return 0, 0, formatErr(ErrSizeRange, "size too small")
	}

	// Size limited to SVGA-era 800x600.
	if height > progMaxHeight || width > progMaxWidth {
		return 0, 0, formatErr(ErrSizeRange, "size too large")
	}

	return int(width), int(height), nil
}

// decodeProg reads a BCPROG image. Only the magic number has been consumed
// when it is called.
func decodeProg(rd *reader) (*Image, error) {
	width, height, err := decodeProgHeader(rd)
	if err != nil {
		return nil, err
	}

	img := newImage(width, height)

	if err := decodeTags(rd, img); err != nil {
		return nil, err
	}

	// Phase 1: undo the progressive row order. Each on-disk row is width
	// packed bytes, landing at the head of its sequential row's 3-byte-wide
	// slot in the output buffer. A pass that covers no rows (pass 2 when
	// height is 2 or 3) reads nothing.
	readRow := func(row int) error {
		line := img.Pix[3*row*width : 3*row*width+width]

		return rd.readFull(line, "row")
	}

	// Pass 1: multiples of 4.
	for row := 0; row < height; row += 4 {
		if err := readRow(row); err != nil {
			return nil, err
		}
	}

	// Pass 2: odd multiples of 2.
	for row := 2; row < height; row += 4 {
		if err := readRow(row); err != nil {
			return nil, err
		}
	}

	// Pass 3: odd rows.
	for row := 1; row < height; row += 2 {
		if err := readRow(row); err != nil {
			return nil, err
		}
	}

	// Phase 2: expand the packed palette bytes to 24-bit color. Expansion
	// grows each pixel from 1 byte to 3, so columns run backward: the
	// write for column c lands at offset 3c, at or above the read offset
	// c, keeping not-yet-expanded bytes intact.
	for row := 0; row < height; row++ {
		line := img.Pix[3*row*width : 3*(row+1)*width]

		for col := width - 1; col >= 0; col-- {
			packed := line[col]
			if packed >= 216 {
				return nil, formatErr(ErrInvalidSample, "invalid packed byte")
			}

			// A value in [0,215] is a base-6 number whose digits are the
			// blue, green and red levels, extracted in that order. Levels
			// 0-5 scale by 51 to 8-bit samples.
			b := packed % 6
			packed /= 6
			g := packed % 6
			packed /= 6
			r := packed

			line[3*col] = 51 * r
			line[3*col+1] = 51 * g
			line[3*col+2] = 51 * b
		}
	}

	return img, nil
}
