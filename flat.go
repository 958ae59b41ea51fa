package bcimg

// BCFLAT stores a color image as three consecutive grayscale planes, one
// per channel, each plane holding height rows of width samples. The first
// sample of every row is a raw byte; the rest are entropy-coded
// differences (see bitstream.go). Compressed rows have unpredictable
// length, so all input passes through a small staging buffer and the
// decoder state is carried across refills within a row.

// flatBufSize is the staging buffer size, a compromise between read
// frequency and the cost of shuffling unconsumed bytes down the buffer.
const flatBufSize = 100

// decodeFlatHeader validates the BCFLAT fixed header and dimensions
// against the given size ceiling.
func decodeFlatHeader(rd *reader, sizeLimit int) (int, int, error) {
	flags, err := readFlags(rd, 6)
	if err != nil {
		return 0, 0, err
	}

	// 13 selects the 13-bit codeword dictionary.
	if flags[6] != 0x0d {
		return 0, 0, formatErr(ErrInvalidHeader, "unsupported dictionary size")
	}

	// 3 channels, for RGB.
	if flags[7] != 0x03 {
		return 0, 0, formatErr(ErrInvalidHeader, "unsupported number of channels")
	}

	width, height, err := readDims(rd)
	if err != nil {
		return 0, 0, err
	}

	if width < 1 || height < 1 {
		return 0, 0, formatErr(ErrSizeRange, "size must be positive")
	}

	if width > uint64(sizeLimit) || height > uint64(sizeLimit) {
		return 0, 0, formatErr(ErrSizeRange, "size too large")
	}

	return int(width), int(height), nil
}

// decodeFlat reads a BCFLAT image. Only the magic number has been consumed
// when it is called.
func decodeFlat(rd *reader, sizeLimit int) (*Image, error) {
	width, height, err := decodeFlatHeader(rd, sizeLimit)
	if err != nil {
		return nil, err
	}

	img := newImage(width, height)

	if err := decodeTags(rd, img); err != nil {
		return nil, err
	}

	buf := make([]byte, flatBufSize)
	bufLen := 0
	atEOF := false

	// Decoded samples land here before being scattered into the
	// interleaved buffer. A run can overshoot its budget by up to
	// maxExpand-1 samples on malformed input, hence the slack.
	scratch := make([]byte, width+maxExpand)

	for channel := 0; channel < 3; channel++ {
		for y := 0; y < height; y++ {
			row := img.Pix[3*y*width : 3*(y+1)*width]

			// The row's first sample is stored directly. It may already
			// be sitting at the front of the staging buffer from the
			// previous row's reads.
			var first byte
			if bufLen > 0 {
				first = buf[0]
				copy(buf, buf[1:bufLen])
				bufLen--
			} else {
				first, err = rd.readByte("first byte")
				if err != nil {
					return nil, err
				}
			}

			row[channel] = first
			x := 1
			st := flatState{last: first}

			for x < width {
				if bufLen < flatBufSize && !atEOF {
					var n int
					n, atEOF, err = rd.fill(buf[bufLen:])
					if err != nil {
						return nil, err
					}

					bufLen += n
				}

				if bufLen == 0 {
					return nil, formatErr(ErrShortRead, "too little data")
				}

				// The budget stops decoding at the end of the row; a
				// codeword that crosses it anyway is a format error, not
				// something to truncate.
				max := width - x
				consumed, produced := st.run(buf[:bufLen], scratch, max)

				if produced > max {
					return nil, formatErr(ErrInvalidSample, "excess pixels at end of row")
				}

				if produced == 0 && consumed == 0 && atEOF {
					return nil, formatErr(ErrShortRead, "too little data")
				}

				// Samples of one channel sit every 3rd byte of the row.
				for i := 0; i < produced; i++ {
					row[3*x+channel] = scratch[i]
					x++
				}

				copy(buf, buf[consumed:bufLen])
				bufLen -= consumed
			}
		}
	}

	return img, nil
}
