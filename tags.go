package bcimg

import (
	"bytes"
	"errors"
	"io"
	"time"
)

// The tagged-data section sits between a format's fixed header and its
// pixel payload. Each record is a 4-byte type identifier followed by an
// 8-byte big-endian size counting the bytes after the size field. The
// identifier "DATA" ends the section and carries no size; the pixel data
// follows it directly.

// maxTagSize rejects ridiculously large declared sizes for any tag before
// type-specific checks apply.
const maxTagSize = 1 << 40

// decodeTags consumes the tagged-data section, storing recognized records
// into img. The section has no count of its own; it runs until the DATA
// sentinel, and anything unrecognized or truncated is a hard failure.
func decodeTags(rd *reader, img *Image) error {
	var ident [4]byte

	for {
		if err := rd.readFull(ident[:], "tag"); err != nil {
			return err
		}

		if string(ident[:]) == "DATA" {
			return nil
		}

		size, err := rd.readU64("u64")
		if err != nil {
			return err
		}

		if size > maxTagSize {
			return formatErr(ErrTagTooLarge, "tag too large")
		}

		switch string(ident[:]) {
		case "TIME":
			if size != 8 {
				return formatErr(ErrInvalidHeader, "wrong size for TIME")
			}

			stamp, err := rd.readU64("u64")
			if err != nil {
				return err
			}

			img.CreateTime = time.Unix(int64(stamp), 0)
		case "FRMT":
			// The template string is not terminated in the file. Read it
			// incrementally so a lying size fails on the short read
			// before the full declared length is ever allocated.
			var buf bytes.Buffer
			if _, err := io.CopyN(&buf, rd.r, int64(size)); err != nil {
				if errors.Is(err, io.EOF) {
					return formatErr(ErrShortRead, "short read of format")
				}

				return err
			}

			img.logFormat = buf.String()
		default:
			return formatErr(ErrUnknownTag, "unrecognized tag")
		}
	}
}
