// Package blowfish implements the Blowfish block cipher used to encrypt
// the index of extended MIX archives.
//
// The cipher operates on 8-byte blocks in place. Blocks are passed as
// *[8]byte so that the block size is enforced by the type system rather
// than checked at run time.
package blowfish

import "encoding/binary"

// BlockSize is the cipher block size in bytes.
const BlockSize = 8

// MaxKeySize is the largest key length the schedule consumes.
const MaxKeySize = 56

// Cipher holds the subkeys and substitution boxes derived from a key.
// A Cipher carries no other state; the same instance may be used for any
// number of Encrypt and Decrypt calls.
type Cipher struct {
	p              [18]uint32
	s0, s1, s2, s3 [256]uint32
}

// NewCipher derives the round subkeys and substitution boxes from key.
// Keys longer than MaxKeySize are truncated; shorter keys are cycled
// through as many times as the schedule requires. An empty key is a
// caller error.
func NewCipher(key []byte) *Cipher {
	if len(key) == 0 {
		panic("blowfish: empty key")
	}
	if len(key) > MaxKeySize {
		key = key[:MaxKeySize]
	}

	c := &Cipher{p: pInit, s0: s0Init, s1: s1Init, s2: s2Init, s3: s3Init}

	j := 0
	for i := range c.p {
		var d uint32
		for range 4 {
			d = d<<8 | uint32(key[j])
			j++
			if j >= len(key) {
				j = 0
			}
		}
		c.p[i] ^= d
	}

	var l, r uint32
	for i := 0; i < len(c.p); i += 2 {
		l, r = c.encryptWords(l, r)
		c.p[i], c.p[i+1] = l, r
	}
	for _, s := range []*[256]uint32{&c.s0, &c.s1, &c.s2, &c.s3} {
		for i := 0; i < 256; i += 2 {
			l, r = c.encryptWords(l, r)
			s[i], s[i+1] = l, r
		}
	}
	return c
}

// Encrypt encrypts one block in place.
func (c *Cipher) Encrypt(block *[8]byte) {
	l := binary.BigEndian.Uint32(block[0:4])
	r := binary.BigEndian.Uint32(block[4:8])
	l, r = c.encryptWords(l, r)
	binary.BigEndian.PutUint32(block[0:4], l)
	binary.BigEndian.PutUint32(block[4:8], r)
}

// Decrypt decrypts one block in place.
func (c *Cipher) Decrypt(block *[8]byte) {
	l := binary.BigEndian.Uint32(block[0:4])
	r := binary.BigEndian.Uint32(block[4:8])
	l, r = c.decryptWords(l, r)
	binary.BigEndian.PutUint32(block[0:4], l)
	binary.BigEndian.PutUint32(block[4:8], r)
}

func (c *Cipher) f(x uint32) uint32 {
	return ((c.s0[x>>24] + c.s1[x>>16&0xFF]) ^ c.s2[x>>8&0xFF]) + c.s3[x&0xFF]
}

// encryptWords runs the 16 Feistel rounds with the final swap undone.
func (c *Cipher) encryptWords(xl, xr uint32) (uint32, uint32) {
	for i := 0; i < 16; i += 2 {
		xl ^= c.p[i]
		xr ^= c.f(xl)
		xr ^= c.p[i+1]
		xl ^= c.f(xr)
	}
	xl ^= c.p[16]
	xr ^= c.p[17]
	return xr, xl
}

func (c *Cipher) decryptWords(xl, xr uint32) (uint32, uint32) {
	for i := 16; i >= 2; i -= 2 {
		xl ^= c.p[i+1]
		xr ^= c.f(xl)
		xr ^= c.p[i]
		xl ^= c.f(xr)
	}
	xl ^= c.p[1]
	xr ^= c.p[0]
	return xr, xl
}
