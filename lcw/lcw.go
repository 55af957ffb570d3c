// Package lcw implements the LCW byte-stream codec, the LZSS variant
// used to shrink asset payloads stored in MIX archives.
//
// A compressed stream is a sequence of commands terminated by a 0x00
// command byte:
//
//	0x00        end of stream
//	0x01-0x7F   back-reference: count = ((cmd>>4)&0x07)+3 (3-10),
//	            offset = ((cmd&0x0F)<<8)|next (1-4095)
//	0x80-0xBF   short literal: count = (cmd&0x3F)+1 (1-64)
//	0xC0-0xFF   long literal: count = (((cmd&0x3F)<<8)|next)+1
//
// Back-references copy byte by byte, so an offset smaller than the count
// repeats already-written output (run-length patterns).
package lcw

import "errors"

// Sentinel errors.
var (
	// ErrInvalidData is returned when a back-reference has a zero offset
	// or reaches before the start of the output produced so far.
	ErrInvalidData = errors.New("lcw: invalid data")

	// ErrShortBuffer is returned when the destination buffer cannot hold
	// the output.
	ErrShortBuffer = errors.New("lcw: buffer too small")
)

const (
	maxOffset   = 4095
	minMatch    = 3
	maxMatch    = 10
	maxShortRun = 63
)

// Decompress decodes src into dst and returns the number of bytes
// written. Decoding stops at the first 0x00 command or when src is
// exhausted.
func Decompress(dst, src []byte) (int, error) {
	srcPos := 0
	dstPos := 0

	for srcPos < len(src) {
		cmd := src[srcPos]
		srcPos++

		switch {
		case cmd == 0:
			return dstPos, nil

		case cmd&0x80 != 0:
			var count int
			if cmd&0x40 != 0 {
				// Long literal: 14-bit count.
				if srcPos >= len(src) {
					return dstPos, ErrInvalidData
				}
				count = (int(cmd&0x3F)<<8 | int(src[srcPos])) + 1
				srcPos++
			} else {
				count = int(cmd&0x3F) + 1
			}
			n := min(count, len(src)-srcPos)
			if dstPos+n > len(dst) {
				return dstPos, ErrShortBuffer
			}
			copy(dst[dstPos:], src[srcPos:srcPos+n])
			dstPos += n
			srcPos += n

		default:
			count := (int(cmd>>4) & 0x07) + 3
			if srcPos >= len(src) {
				return dstPos, ErrInvalidData
			}
			offset := int(cmd&0x0F)<<8 | int(src[srcPos])
			srcPos++

			if offset == 0 || offset > dstPos {
				return dstPos, ErrInvalidData
			}
			if dstPos+count > len(dst) {
				return dstPos, ErrShortBuffer
			}
			// Byte at a time: the source window may overlap the bytes
			// being written.
			ref := dstPos - offset
			for i := range count {
				dst[dstPos] = dst[ref+i]
				dstPos++
			}
		}
	}
	return dstPos, nil
}

// Decode decompresses src into a new buffer. sizeHint is the expected
// decompressed size; the buffer grows if the hint is low.
func Decode(src []byte, sizeHint int) ([]byte, error) {
	if sizeHint < 16 {
		sizeHint = 16
	}
	for {
		dst := make([]byte, sizeHint)
		n, err := Decompress(dst, src)
		if err == nil {
			return dst[:n], nil
		}
		if !errors.Is(err, ErrShortBuffer) {
			return nil, err
		}
		sizeHint *= 2
	}
}

// Compress encodes src into dst and returns the compressed length.
// The encoder is greedy and not required to be optimal; its output
// always round-trips through Decompress. Size dst with
// MaxCompressedSize to guarantee it fits.
func Compress(dst, src []byte) (int, error) {
	srcPos := 0
	dstPos := 0

	for srcPos < len(src) {
		if length, offset, ok := usableMatch(src, srcPos); ok {
			if dstPos+2 > len(dst) {
				return 0, ErrShortBuffer
			}
			dst[dstPos] = backrefCmd(length, offset)
			dst[dstPos+1] = byte(offset)
			dstPos += 2
			srcPos += length
			continue
		}

		// No usable match here. Accumulate a literal run up to the next
		// position with one, including positions whose only match was
		// rejected for the 0x00 collision.
		run := 1
		for srcPos+run < len(src) && run < maxShortRun {
			if _, _, ok := usableMatch(src, srcPos+run); ok {
				break
			}
			run++
		}

		if dstPos+1+run > len(dst) {
			return 0, ErrShortBuffer
		}
		dst[dstPos] = 0x80 | byte(run-1)
		dstPos++
		copy(dst[dstPos:], src[srcPos:srcPos+run])
		dstPos += run
		srcPos += run
	}

	if dstPos >= len(dst) {
		return 0, ErrShortBuffer
	}
	dst[dstPos] = 0
	dstPos++
	return dstPos, nil
}

// MaxCompressedSize bounds the worst-case compressed size of n input
// bytes: one command byte per literal run of up to maxShortRun bytes,
// the input itself, and the end marker.
func MaxCompressedSize(n int) int {
	return n + n/maxShortRun + 2
}

// backrefCmd builds the first byte of a back-reference token.
func backrefCmd(length, offset int) byte {
	return byte(((length-3)&0x07)<<4 | (offset>>8)&0x0F)
}

// usableMatch finds the longest match of minMatch..maxMatch bytes within
// maxOffset of pos, preferring the smallest offset on ties. A match
// whose command byte would be 0x00 (length 3, offset < 256) would be
// misread as the end marker and is reported as unusable.
func usableMatch(src []byte, pos int) (length, offset int, ok bool) {
	if pos == 0 {
		return 0, 0, false
	}
	limit := min(maxMatch, len(src)-pos)
	if limit < minMatch {
		return 0, 0, false
	}
	start := max(pos-maxOffset, 0)

	best := 0
	bestOff := 0
	for ref := pos - 1; ref >= start; ref-- {
		n := 0
		for n < limit && src[ref+n] == src[pos+n] {
			n++
		}
		// Nearest-first scan with a strict > keeps the smallest offset
		// when lengths tie.
		if n >= minMatch && n > best {
			best = n
			bestOff = pos - ref
			if best == limit {
				break
			}
		}
	}
	if best < minMatch {
		return 0, 0, false
	}
	if backrefCmd(best, bestOff) == 0 {
		return 0, 0, false
	}
	return best, bestOff, true
}
