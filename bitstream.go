package bcimg

// BCFLAT entropy coding: every sample after the first in a row is a signed
// difference from its predecessor, encoded with a prefix code. Codewords
// run 3 to 13 bits and emit 1 to 8 samples, so decoding works through a
// shift register whose next bits sit at the most significant end and whose
// leftover bits survive buffer refills within a row.

const (
	// maxCodeLen is the longest codeword in the grammar.
	maxCodeLen = 13
	// maxExpand is the most samples a single codeword can emit, and
	// therefore the most a run can overshoot its budget transiently.
	maxExpand = 8
)

// flatState is the decoder state for one row: the shift register, how many
// of its bits are valid, and the previously decoded sample that the next
// difference applies to. It is created fresh at the start of each row.
type flatState struct {
	reg     uint32
	regBits int
	last    byte
}

// Codeword kinds.
const (
	opRepeat  = iota // emit count copies of the previous sample
	opRepeatN        // emit base+payload copies of the previous sample
	opDelta          // emit count samples, each base+payload from its predecessor
	opFixed          // emit one sample with difference base; payload reserved
)

// flatOp describes one codeword: its prefix bits, the payload width that
// follows, and what the pair decodes to.
type flatOp struct {
	code  uint16 // prefix bits, right-aligned
	n     uint8  // prefix length in bits
	extra uint8  // payload bits following the prefix
	kind  uint8
	count uint8 // samples emitted by opRepeat and opDelta
	base  int8  // difference base, or repeat-count base for opRepeatN
}

// flatOps is the full codeword grammar. No entry's prefix is a prefix of
// another and together they cover every bit pattern, so matching the
// register's top bits against the table always succeeds unambiguously.
var flatOps = []flatOp{
	{code: 0b000, n: 3, kind: opRepeat, count: 2},
	{code: 0b0010, n: 4, kind: opRepeat, count: 3},
	{code: 0b00110, n: 5, kind: opRepeat, count: 4},
	{code: 0b00111, n: 5, extra: 2, kind: opRepeatN, base: 5},
	{code: 0b0100, n: 4, extra: 2, kind: opDelta, count: 2, base: 1},
	{code: 0b0101, n: 4, extra: 2, kind: opDelta, count: 2, base: -4},
	{code: 0b0110, n: 4, extra: 2, kind: opDelta, count: 3, base: 1},
	{code: 0b0111, n: 4, extra: 2, kind: opDelta, count: 3, base: -4},
	{code: 0b100, n: 3, kind: opDelta, count: 1, base: 0},
	{code: 0b1010, n: 4, kind: opDelta, count: 1, base: 1},
	{code: 0b1011, n: 4, kind: opDelta, count: 1, base: -1},
	{code: 0b11000, n: 5, extra: 1, kind: opDelta, count: 1, base: 2},
	{code: 0b11001, n: 5, extra: 1, kind: opDelta, count: 1, base: -3},
	{code: 0b11010, n: 5, extra: 2, kind: opDelta, count: 1, base: 4},
	{code: 0b11011, n: 5, extra: 2, kind: opDelta, count: 1, base: -7},
	{code: 0b1110000, n: 7, extra: 3, kind: opDelta, count: 1, base: 8},
	{code: 0b1110001, n: 7, extra: 3, kind: opDelta, count: 1, base: -15},
	{code: 0b1110010, n: 7, extra: 4, kind: opDelta, count: 1, base: 16},
	{code: 0b1110011, n: 7, extra: 4, kind: opDelta, count: 1, base: -31},
	{code: 0b1110100, n: 7, extra: 5, kind: opDelta, count: 1, base: 32},
	{code: 0b1110101, n: 7, extra: 5, kind: opDelta, count: 1, base: -63},
	{code: 0b1110110, n: 7, extra: 6, kind: opDelta, count: 1, base: 64},
	{code: 0b1110111, n: 7, extra: 6, kind: opDelta, count: 1, base: -127},
	// 1111000 is difference -128; the remaining 1111xxx patterns are
	// reserved and decode the same for now.
	{code: 0b1111, n: 4, extra: 3, kind: opFixed, base: -128},
}

// run decodes samples from comp into out until either max samples have
// been produced or the genuine input bits are exhausted. out must have
// room for max+maxExpand-1 samples: the final codeword may overshoot the
// budget transiently, and the caller decides whether that is a format
// error rather than having it silently truncated here.
//
// The register is refilled with up to 16 synthetic zero bits past the end
// of comp so a codeword near the buffer boundary can be probed, but a
// codeword is never accepted unless the genuine bits cover its full
// length; when they don't, the run stops so the caller can supply more
// input. On return, whole bytes that were pulled into the register but not
// consumed by any matched codeword have been given back: consumed counts
// only bytes whose bits were actually used, so a following read resumes at
// the correct position.
func (st *flatState) run(comp []byte, out []byte, max int) (consumed, produced int) {
	pos := 0

	// Bits in the register that came from padding rather than comp. They
	// are always the most recently shifted in, lowest bits of the valid
	// window, and are stripped back off before returning.
	padBits := 0

	for produced < max {
		for st.regBits < maxCodeLen && (pos < len(comp) || padBits < 16) {
			var b byte
			if pos < len(comp) {
				b = comp[pos]
				pos++
			} else {
				padBits += 8
			}

			st.reg |= uint32(b) << (24 - st.regBits)
			st.regBits += 8
		}

		if st.regBits < maxCodeLen {
			break
		}

		window := uint16(st.reg >> (32 - maxCodeLen))

		var op *flatOp
		for i := range flatOps {
			if window>>(maxCodeLen-int(flatOps[i].n)) == flatOps[i].code {
				op = &flatOps[i]
				break
			}
		}

		codeLen := int(op.n) + int(op.extra)
		if codeLen > st.regBits-padBits {
			// The match would rest on padding bits it cannot cover with
			// genuine input; stop short of accepting it.
			break
		}

		payload := int(window>>(maxCodeLen-codeLen)) & (1<<op.extra - 1)

		switch op.kind {
		case opRepeat, opRepeatN:
			count := int(op.count)
			if op.kind == opRepeatN {
				count = int(op.base) + payload
			}

			for i := 0; i < count; i++ {
				out[produced+i] = st.last
			}

			produced += count
		case opDelta:
			diff := byte(int(op.base) + payload)

			for i := 0; i < int(op.count); i++ {
				st.last += diff
				out[produced+i] = st.last
			}

			produced += int(op.count)
		default: // opFixed
			st.last += byte(op.base)
			out[produced] = st.last
			produced++
		}

		st.reg <<= codeLen
		st.regBits -= codeLen
	}

	// Give whole unconsumed bytes back: clear them from the bottom of the
	// valid window and rewind the input position, padding bytes first.
	// Any remaining partial byte's bits stay in the register for the next
	// run of the same row.
	for st.regBits >= 8 {
		st.reg &^= 0xff << (32 - st.regBits)
		st.regBits -= 8

		if padBits >= 8 {
			padBits -= 8
		} else {
			pos--
		}
	}

	return pos, produced
}
