package lcw

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressShortLiteral(t *testing.T) {
	t.Parallel()

	// 0x83 = short literal, count (0x83&0x3F)+1 = 4.
	src := []byte{0x83, 'H', 'e', 'l', 'l', 0x00}
	dst := make([]byte, 100)

	n, err := Decompress(dst, src)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("Hell"), dst[:n])
}

func TestDecompressSingleLiteral(t *testing.T) {
	t.Parallel()

	src := []byte{0x80, 'X', 0x00}
	dst := make([]byte, 100)

	n, err := Decompress(dst, src)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte('X'), dst[0])
}

func TestDecompressBackReference(t *testing.T) {
	t.Parallel()

	// Back-ref count = ((0x10>>4)&7)+3 = 4, offset = 0x004.
	src := []byte{0x83, 'A', 'B', 'C', 'D', 0x10, 0x04, 0x00}
	dst := make([]byte, 100)

	n, err := Decompress(dst, src)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte("ABCDABCD"), dst[:n])
}

func TestDecompressOverlappingBackReference(t *testing.T) {
	t.Parallel()

	// One literal 'A' then a count-10 copy at offset 1: the classic RLE
	// pattern where the copy reads bytes it has just written.
	src := []byte{0x80, 'A', 0x70, 0x01, 0x00}
	dst := make([]byte, 100)

	n, err := Decompress(dst, src)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, bytes.Repeat([]byte("A"), 11), dst[:n])
}

func TestDecompressLongLiteral(t *testing.T) {
	t.Parallel()

	// 0xC0 0x40 = long literal, count 0x0040+1 = 65.
	src := []byte{0xC0, 0x40}
	src = append(src, bytes.Repeat([]byte{0x55}, 65)...)
	src = append(src, 0x00)

	dst := make([]byte, 200)
	n, err := Decompress(dst, src)
	require.NoError(t, err)
	assert.Equal(t, 65, n)
	assert.Equal(t, bytes.Repeat([]byte{0x55}, 65), dst[:n])
}

func TestDecompressEmptyStream(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 10)

	n, err := Decompress(dst, []byte{0x00})
	require.NoError(t, err)
	assert.Zero(t, n)

	// No end marker at all: input exhaustion also stops the decoder.
	n, err = Decompress(dst, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDecompressOffsetBeyondOutput(t *testing.T) {
	t.Parallel()

	// Offset 16 with only 1 byte produced so far.
	src := []byte{0x80, 'A', 0x10, 0x10, 0x00}
	dst := make([]byte, 100)

	_, err := Decompress(dst, src)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestDecompressZeroOffset(t *testing.T) {
	t.Parallel()

	src := []byte{0x80, 'A', 0x10, 0x00, 0x00}
	dst := make([]byte, 100)

	_, err := Decompress(dst, src)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestDecompressTruncatedTokens(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 100)

	// Back-reference command with no offset byte.
	_, err := Decompress(dst, []byte{0x10})
	assert.ErrorIs(t, err, ErrInvalidData)

	// Long-literal command with no count byte.
	_, err = Decompress(dst, []byte{0xC0})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestDecompressShortBuffer(t *testing.T) {
	t.Parallel()

	src := []byte{0x83, 'H', 'e', 'l', 'l', 0x00}
	dst := make([]byte, 2)

	_, err := Decompress(dst, src)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestCompressEmpty(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 10)
	n, err := Compress(dst, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0x00), dst[0])
}

func TestCompressShortBuffer(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 3)
	_, err := Compress(dst, []byte("incompressible"))
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	pseudo := make([]byte, 256)
	for i := range pseudo {
		pseudo[i] = byte((i*73 + 41) % 256)
	}

	inputs := map[string][]byte{
		"hello":      []byte("Hello, World!"),
		"runs":       []byte("AAAAAAAABBBBBBBBCCCCCCCC"),
		"zeros":      make([]byte, 1000),
		"same":       bytes.Repeat([]byte{0x42}, 500),
		"pseudo":     pseudo,
		"repeats":    bytes.Repeat([]byte("TESTDATA"), 100),
		"single":     {0x9C},
		"endmarkish": {0x00, 0x00, 0x00, 0x10},
	}

	for name, src := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dst := make([]byte, MaxCompressedSize(len(src)))
			n, err := Compress(dst, src)
			require.NoError(t, err)
			require.LessOrEqual(t, n, MaxCompressedSize(len(src)))
			assert.Equal(t, byte(0x00), dst[n-1])

			out := make([]byte, len(src))
			m, err := Decompress(out, dst[:n])
			require.NoError(t, err)
			require.Equal(t, len(src), m)
			assert.Equal(t, src, out[:m])
		})
	}
}

func TestCompressLiteralRunCap(t *testing.T) {
	t.Parallel()

	// 126 distinct bytes offer no back-references, so the encoder must
	// emit exactly two maximum-length literal runs of 63 bytes each.
	src := make([]byte, 126)
	for i := range src {
		src[i] = byte(i)
	}

	dst := make([]byte, MaxCompressedSize(len(src)))
	n, err := Compress(dst, src)
	require.NoError(t, err)
	require.Equal(t, 129, n)
	assert.Equal(t, byte(0x80|62), dst[0])
	assert.Equal(t, src[:63], dst[1:64])
	assert.Equal(t, byte(0x80|62), dst[64])
	assert.Equal(t, src[63:], dst[65:128])
	assert.Equal(t, byte(0x00), dst[128])
}

func TestCompressShrinksRepetitiveData(t *testing.T) {
	t.Parallel()

	src := make([]byte, 1000)
	dst := make([]byte, MaxCompressedSize(len(src)))
	n, err := Compress(dst, src)
	require.NoError(t, err)
	assert.Less(t, n, len(src)/2)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	src := bytes.Repeat([]byte("PAYLOAD"), 64)
	dst := make([]byte, MaxCompressedSize(len(src)))
	n, err := Compress(dst, src)
	require.NoError(t, err)

	// A low size hint must grow until the output fits.
	out, err := Decode(dst[:n], 1)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	_, err = Decode([]byte{0x80, 'A', 0x10, 0x10, 0x00}, 64)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestMaxCompressedSize(t *testing.T) {
	t.Parallel()

	assert.GreaterOrEqual(t, MaxCompressedSize(0), 1)
	assert.GreaterOrEqual(t, MaxCompressedSize(100), 101)
	assert.GreaterOrEqual(t, MaxCompressedSize(1000), 1001)
}
