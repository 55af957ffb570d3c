// Package bigint provides the minimal arbitrary-precision unsigned
// integer arithmetic needed to decrypt the MIX key block: multiply,
// subtract, compare, shifts, modulo, and modular exponentiation.
//
// Operand sizes here are tens of bytes, so the modulo is a plain
// shift-and-subtract long division rather than anything clever.
package bigint

// Nat is an unsigned integer stored as 32-bit limbs, least significant
// first. Values are kept normalized: no trailing zero limbs, except that
// zero itself is a single zero limb.
type Nat struct {
	limbs []uint32
}

// FromUint32 returns the Nat with the given value.
func FromUint32(v uint32) Nat {
	return Nat{limbs: []uint32{v}}
}

// FromBytes interprets b as a big-endian unsigned integer.
func FromBytes(b []byte) Nat {
	if len(b) == 0 {
		return FromUint32(0)
	}
	limbs := make([]uint32, 0, (len(b)+3)/4)
	for i := len(b); i > 0; i -= 4 {
		start := max(i-4, 0)
		var limb uint32
		for _, c := range b[start:i] {
			limb = limb<<8 | uint32(c)
		}
		limbs = append(limbs, limb)
	}
	return Nat{limbs: limbs}.norm()
}

// Bytes returns the big-endian encoding of x, left-padded with zero
// bytes to at least minLen bytes.
func (x Nat) Bytes(minLen int) []byte {
	buf := make([]byte, 0, len(x.limbs)*4)
	for i := len(x.limbs) - 1; i >= 0; i-- {
		limb := x.limbs[i]
		buf = append(buf, byte(limb>>24), byte(limb>>16), byte(limb>>8), byte(limb))
	}
	i := 0
	for i < len(buf)-1 && buf[i] == 0 {
		i++
	}
	buf = buf[i:]
	if len(buf) < minLen {
		padded := make([]byte, minLen)
		copy(padded[minLen-len(buf):], buf)
		return padded
	}
	return buf
}

// IsZero reports whether x is zero.
func (x Nat) IsZero() bool {
	return len(x.limbs) == 1 && x.limbs[0] == 0
}

func (x Nat) odd() bool {
	return x.limbs[0]&1 == 1
}

// BitLen returns the length of x in bits. BitLen of zero is 0.
func (x Nat) BitLen() int {
	if x.IsZero() {
		return 0
	}
	top := x.limbs[len(x.limbs)-1]
	bits := 0
	for top != 0 {
		top >>= 1
		bits++
	}
	return (len(x.limbs)-1)*32 + bits
}

// Cmp compares x and y, returning -1, 0, or +1.
func (x Nat) Cmp(y Nat) int {
	if len(x.limbs) != len(y.limbs) {
		if len(x.limbs) < len(y.limbs) {
			return -1
		}
		return 1
	}
	for i := len(x.limbs) - 1; i >= 0; i-- {
		if x.limbs[i] != y.limbs[i] {
			if x.limbs[i] < y.limbs[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Sub returns x - y. Defined only for x >= y.
func (x Nat) Sub(y Nat) Nat {
	res := make([]uint32, len(x.limbs))
	copy(res, x.limbs)
	var borrow int64
	for i := range res {
		var b int64
		if i < len(y.limbs) {
			b = int64(y.limbs[i])
		}
		diff := int64(res[i]) - b - borrow
		if diff < 0 {
			diff += 1 << 32
			borrow = 1
		} else {
			borrow = 0
		}
		res[i] = uint32(diff)
	}
	return Nat{limbs: res}.norm()
}

// Mul returns x * y.
func (x Nat) Mul(y Nat) Nat {
	res := make([]uint32, len(x.limbs)+len(y.limbs))
	for i, a := range x.limbs {
		var carry uint64
		for j, b := range y.limbs {
			t := uint64(a)*uint64(b) + uint64(res[i+j]) + carry
			res[i+j] = uint32(t)
			carry = t >> 32
		}
		res[i+len(y.limbs)] = uint32(carry)
	}
	return Nat{limbs: res}.norm()
}

// Mod returns x mod m. Panics if m is zero; the only modulus in this
// subsystem is a hard-coded constant, so a zero modulus means the
// constant itself is corrupt.
func (x Nat) Mod(m Nat) Nat {
	if m.IsZero() {
		panic("bigint: modulus is zero")
	}
	if x.Cmp(m) < 0 {
		return x.clone()
	}

	shift := x.BitLen() - m.BitLen()
	shifted := m.clone()
	for range shift {
		shifted = shifted.shl1()
	}

	r := x.clone()
	for i := 0; i <= shift; i++ {
		if r.Cmp(shifted) >= 0 {
			r = r.Sub(shifted)
		}
		shifted.shr1()
	}
	return r
}

// ModPow returns base^exp mod m by square-and-multiply over the bits of
// exp, least significant first. Panics if m is zero.
func ModPow(base, exp, m Nat) Nat {
	if m.IsZero() {
		panic("bigint: modulus is zero")
	}
	result := FromUint32(1)
	b := base.Mod(m)
	e := exp.clone()
	for !e.IsZero() {
		if e.odd() {
			result = result.Mul(b).Mod(m)
		}
		b = b.Mul(b).Mod(m)
		e.shr1()
	}
	return result
}

func (x Nat) clone() Nat {
	limbs := make([]uint32, len(x.limbs))
	copy(limbs, x.limbs)
	return Nat{limbs: limbs}
}

// shl1 returns x << 1.
func (x Nat) shl1() Nat {
	res := make([]uint32, len(x.limbs)+1)
	var carry uint32
	for i, limb := range x.limbs {
		res[i] = limb<<1 | carry
		carry = limb >> 31
	}
	res[len(x.limbs)] = carry
	return Nat{limbs: res}.norm()
}

// shr1 shifts x right by one bit in place.
func (x *Nat) shr1() {
	var carry uint32
	for i := len(x.limbs) - 1; i >= 0; i-- {
		limb := x.limbs[i]
		x.limbs[i] = limb>>1 | carry<<31
		carry = limb & 1
	}
	*x = x.norm()
}

// norm strips trailing zero limbs, keeping at least one.
func (x Nat) norm() Nat {
	limbs := x.limbs
	for len(limbs) > 1 && limbs[len(limbs)-1] == 0 {
		limbs = limbs[:len(limbs)-1]
	}
	return Nat{limbs: limbs}
}
