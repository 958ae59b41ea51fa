package bcimg

import (
	"encoding/binary"
	"errors"
	"io"
)

// reader wraps the input source with the fallible reads every format
// needs: fixed-size fields either arrive in full or fail as a short read,
// never partially.
type reader struct {
	r   io.Reader
	tmp [8]byte
}

// readFull fills p completely. On any shortfall it reports ErrShortRead
// naming the field being read; partial contents are never exposed.
func (rd *reader) readFull(p []byte, what string) error {
	if _, err := io.ReadFull(rd.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return formatErr(ErrShortRead, "short read of "+what)
		}

		return err
	}

	return nil
}

// readU64 decodes 8 bytes as a big-endian unsigned 64-bit integer.
func (rd *reader) readU64(what string) (uint64, error) {
	if err := rd.readFull(rd.tmp[:8], what); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(rd.tmp[:8]), nil
}

func (rd *reader) readByte(what string) (byte, error) {
	if err := rd.readFull(rd.tmp[:1], what); err != nil {
		return 0, err
	}

	return rd.tmp[0], nil
}

// magic reads the 8-byte format prefix.
func (rd *reader) magic() (string, error) {
	if err := rd.readFull(rd.tmp[:8], "magic number"); err != nil {
		return "", err
	}

	return string(rd.tmp[:8]), nil
}

// fill reads as much of p as the source can currently supply. Used only by
// the BCFLAT staging buffer, where compressed rows have unpredictable
// length: running out of input is for the entropy decoder to judge, so EOF
// is reported rather than treated as an error.
func (rd *reader) fill(p []byte) (n int, eof bool, err error) {
	n, err = io.ReadFull(rd.r, p)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return n, true, nil
		}

		return n, false, err
	}

	return n, false, nil
}
