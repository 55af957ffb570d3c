package lcw

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/zstd"
)

var (
	sinkBytes []byte
	sinkInt   int
)

type benchPattern string

const (
	benchPatternCompressible benchPattern = "compressible"
	benchPatternRandom       benchPattern = "random"
)

func benchInput(b *testing.B, size int, pattern benchPattern) []byte {
	b.Helper()

	data := make([]byte, size)
	switch pattern {
	case benchPatternRandom:
		rng := rand.New(rand.NewSource(1))
		if _, err := rng.Read(data); err != nil {
			b.Fatal(err)
		}
	default:
		// Repeating 64-byte phrases with a slowly changing lead byte keep
		// plenty of back-reference targets within the 4095-byte window.
		phrase := []byte("the quick brown fox jumps over the lazy dog 0123456789 ABCDEF. ")
		for i := 0; i < size; i += len(phrase) {
			copy(data[i:], phrase)
			data[i] = byte(i >> 10)
		}
	}
	return data
}

func BenchmarkCompress(b *testing.B) {
	cases := []struct {
		size    int
		pattern benchPattern
	}{
		{size: 4 << 10, pattern: benchPatternCompressible},
		{size: 64 << 10, pattern: benchPatternCompressible},
		{size: 64 << 10, pattern: benchPatternRandom},
	}

	for _, bc := range cases {
		name := fmt.Sprintf("size=%dk/%s", bc.size>>10, bc.pattern)
		b.Run(name, func(b *testing.B) {
			src := benchInput(b, bc.size, bc.pattern)
			dst := make([]byte, MaxCompressedSize(len(src)))

			b.SetBytes(int64(len(src)))
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				n, err := Compress(dst, src)
				if err != nil {
					b.Fatal(err)
				}
				sinkInt = n
			}
		})
	}
}

func BenchmarkDecompress(b *testing.B) {
	cases := []struct {
		size    int
		pattern benchPattern
	}{
		{size: 64 << 10, pattern: benchPatternCompressible},
		{size: 64 << 10, pattern: benchPatternRandom},
	}

	for _, bc := range cases {
		name := fmt.Sprintf("size=%dk/%s", bc.size>>10, bc.pattern)
		b.Run(name, func(b *testing.B) {
			src := benchInput(b, bc.size, bc.pattern)
			compressed := make([]byte, MaxCompressedSize(len(src)))
			n, err := Compress(compressed, src)
			if err != nil {
				b.Fatal(err)
			}
			compressed = compressed[:n]
			dst := make([]byte, len(src))

			b.SetBytes(int64(len(src)))
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				m, err := Decompress(dst, compressed)
				if err != nil {
					b.Fatal(err)
				}
				sinkInt = m
			}
		})
	}
}

// BenchmarkCompareZstd pits the codec against zstd on the same inputs as
// a throughput and ratio baseline.
func BenchmarkCompareZstd(b *testing.B) {
	const size = 64 << 10

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		b.Fatal(err)
	}
	defer enc.Close()
	dec, err := zstd.NewReader(nil)
	if err != nil {
		b.Fatal(err)
	}
	defer dec.Close()

	for _, pattern := range []benchPattern{benchPatternCompressible, benchPatternRandom} {
		src := benchInput(b, size, pattern)

		b.Run(fmt.Sprintf("compress/%s/codec=lcw", pattern), func(b *testing.B) {
			dst := make([]byte, MaxCompressedSize(len(src)))
			b.SetBytes(int64(len(src)))
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				n, err := Compress(dst, src)
				if err != nil {
					b.Fatal(err)
				}
				sinkInt = n
			}
		})
		b.Run(fmt.Sprintf("compress/%s/codec=zstd", pattern), func(b *testing.B) {
			b.SetBytes(int64(len(src)))
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				sinkBytes = enc.EncodeAll(src, nil)
			}
		})

		lcwData := make([]byte, MaxCompressedSize(len(src)))
		n, err := Compress(lcwData, src)
		if err != nil {
			b.Fatal(err)
		}
		lcwData = lcwData[:n]
		zstdData := enc.EncodeAll(src, nil)

		b.Run(fmt.Sprintf("decompress/%s/codec=lcw", pattern), func(b *testing.B) {
			dst := make([]byte, len(src))
			b.SetBytes(int64(len(src)))
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				m, err := Decompress(dst, lcwData)
				if err != nil {
					b.Fatal(err)
				}
				sinkInt = m
			}
		})
		b.Run(fmt.Sprintf("decompress/%s/codec=zstd", pattern), func(b *testing.B) {
			b.SetBytes(int64(len(src)))
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				out, err := dec.DecodeAll(zstdData, nil)
				if err != nil {
					b.Fatal(err)
				}
				sinkBytes = out
			}
		})
	}
}

func TestBenchInputsRoundTrip(t *testing.T) {
	t.Parallel()

	for _, size := range []int{4 << 10, 64 << 10} {
		src := make([]byte, size)
		rng := rand.New(rand.NewSource(1))
		rng.Read(src)

		dst := make([]byte, MaxCompressedSize(len(src)))
		n, err := Compress(dst, src)
		if err != nil {
			t.Fatal(err)
		}

		out := make([]byte, len(src))
		m, err := Decompress(out, dst[:n])
		if err != nil {
			t.Fatal(err)
		}
		if m != len(src) || !bytes.Equal(src, out) {
			t.Fatalf("round trip mismatch at size %d", size)
		}
	}
}
