// Package mixkey recovers the Blowfish key from the 80-byte encrypted
// key block at the front of an encrypted MIX archive.
//
// The block holds two ciphertext blocks encrypted to Westwood's
// public key. Recovery is raw modular exponentiation: there is no
// padding or signature check, so any 80 bytes decrypt to *some* key.
// Malformed input silently yields a wrong key rather than an error,
// matching the original loader. Do not add validation here; doing so
// would reject archives the original accepts.
package mixkey

import "github.com/meigma/mix/internal/bigint"

const (
	// BlockSize is the size of the encrypted key block on disk.
	BlockSize = 80

	// KeySize is the length of the recovered Blowfish key.
	KeySize = 56
)

// PublicKey is a minimal public key: a big-endian modulus and an
// exponent. It decrypts fixed-size blocks via c^e mod n.
type PublicKey struct {
	Modulus  []byte
	Exponent uint32
}

// WestwoodKey is the hard-coded public key every encrypted MIX archive
// is keyed to. The modulus is the base64 decoding of
// "AihRvNoIbTn85FZRYNZRcT+i6KpU+maCsEqr3Q5q+LDB5tH7Tz2qQ38V" with its
// leading two-byte length header (0x02, 0x28) stripped.
var WestwoodKey = PublicKey{
	Modulus: []byte{
		0x51, 0xBC, 0xDA, 0x08, 0x6D, 0x39, 0xFC, 0xE4, 0x56, 0x51,
		0x60, 0xD6, 0x51, 0x71, 0x3F, 0xA2, 0xE8, 0xAA, 0x54, 0xFA,
		0x66, 0x82, 0xB0, 0x4A, 0xAB, 0xDD, 0x0E, 0x6A, 0xF8, 0xB0,
		0xC1, 0xE6, 0xD1, 0xFB, 0x4F, 0x3D, 0xAA, 0x43, 0x7F, 0x15,
	},
	Exponent: 65537,
}

// PlainBlockSize returns the plaintext block size in bytes.
func (k *PublicKey) PlainBlockSize() int {
	return len(k.Modulus) - 1
}

// CryptBlockSize returns the ciphertext block size in bytes.
func (k *PublicKey) CryptBlockSize() int {
	return len(k.Modulus)
}

// DecryptBlock computes ciphertext^e mod n, re-encoded big-endian and
// left-padded to the plaintext block size.
func (k *PublicKey) DecryptBlock(ciphertext []byte) []byte {
	c := bigint.FromBytes(ciphertext)
	n := bigint.FromBytes(k.Modulus)
	e := bigint.FromUint32(k.Exponent)
	return bigint.ModPow(c, e, n).Bytes(k.PlainBlockSize())
}

// Recover decrypts the key block and returns the KeySize-byte Blowfish
// key. The two 40-byte ciphertext blocks decrypt to 39 bytes each; the
// concatenation is truncated to KeySize.
func Recover(block []byte) []byte {
	key := make([]byte, 0, 2*WestwoodKey.PlainBlockSize())
	cbs := WestwoodKey.CryptBlockSize()
	for i := 0; i < 2; i++ {
		start := i * cbs
		if start+cbs > len(block) {
			break
		}
		key = append(key, WestwoodKey.DecryptBlock(block[start:start+cbs])...)
	}
	if len(key) > KeySize {
		key = key[:KeySize]
	}
	return key
}
