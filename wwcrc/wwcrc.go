// Package wwcrc implements the Westwood rotate-and-add checksum used as
// the filename lookup key in MIX archives.
//
// Despite the name it is not a true CRC: input is consumed as 4-byte
// little-endian chunks and folded with acc = rol(acc, 1) + chunk, with a
// zero-padded final partial chunk. The output must stay bit-for-bit
// stable for compatibility with existing archives and tooling.
package wwcrc

import (
	"hash"
	"math/bits"
)

// Size of the checksum in bytes.
const Size = 4

// Sum returns the checksum of data. Empty input hashes to 0.
func Sum(data []byte) uint32 {
	var d Digest
	d.Write(data)
	return d.Sum32()
}

// SumName returns the checksum of an ASCII-uppercased filename. This is
// the value used as an archive entry key (reinterpreted as a signed
// 32-bit integer).
func SumName(name string) uint32 {
	var d Digest
	for i := 0; i < len(name); i++ {
		c := name[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		d.writeByte(c)
	}
	return d.Sum32()
}

// Digest is a streaming checksum calculator. Chunk boundaries do not
// affect the result: feeding the same bytes in any split yields the same
// final value as a single Sum call. The zero Digest is ready to use.
type Digest struct {
	crc     uint32
	staging uint32
	n       uint
}

var _ hash.Hash32 = (*Digest)(nil)

// New returns a new streaming Digest.
func New() *Digest {
	return &Digest{}
}

// Write absorbs p into the checksum. It never fails.
func (d *Digest) Write(p []byte) (int, error) {
	for _, c := range p {
		d.writeByte(c)
	}
	return len(p), nil
}

func (d *Digest) writeByte(c byte) {
	d.staging |= uint32(c) << (d.n * 8)
	d.n++
	if d.n == 4 {
		d.crc = bits.RotateLeft32(d.crc, 1) + d.staging
		d.staging = 0
		d.n = 0
	}
}

// Sum32 returns the current checksum, folding in any buffered partial
// chunk without disturbing the streaming state.
func (d *Digest) Sum32() uint32 {
	if d.n > 0 {
		return bits.RotateLeft32(d.crc, 1) + d.staging
	}
	return d.crc
}

// Sum appends the big-endian checksum to b.
func (d *Digest) Sum(b []byte) []byte {
	s := d.Sum32()
	return append(b, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

// Reset restores the initial state.
func (d *Digest) Reset() {
	*d = Digest{}
}

// Size returns the number of bytes Sum appends.
func (d *Digest) Size() int { return Size }

// BlockSize returns the checksum's native chunk size.
func (d *Digest) BlockSize() int { return 4 }
