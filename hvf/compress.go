package hvf

import (
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the per-chunk compression algorithm of a chunked
// dataset. The name is recorded in the dataset index.
type Compression string

const (
	// CompressionNone stores chunks raw.
	CompressionNone Compression = "none"
	// CompressionLZ4 is LZ4 block compression (fast).
	CompressionLZ4 Compression = "lz4"
	// CompressionZstd is zstd block compression (better ratio).
	CompressionZstd Compression = "zstd"
)

// Valid reports whether c names a supported algorithm.
func (c Compression) Valid() bool {
	switch c {
	case CompressionNone, CompressionLZ4, CompressionZstd:
		return true
	}
	return false
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compressChunk compresses a chunk. A returned length equal to the
// input length means the chunk is stored raw (incompressible data, or
// CompressionNone).
func compressChunk(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 || n >= len(data) {
			return data, nil
		}
		return dst[:n], nil
	case CompressionZstd:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		dst := enc.EncodeAll(data, nil)
		if len(dst) >= len(data) {
			return data, nil
		}
		return dst, nil
	default:
		return nil, errors.New("hvf: unknown compression " + string(c))
	}
}

// decompressChunk inflates a chunk to ulen bytes. clen == ulen marks a
// raw chunk regardless of algorithm.
func decompressChunk(c Compression, data []byte, ulen int) ([]byte, error) {
	if len(data) == ulen {
		return data, nil
	}
	switch c {
	case CompressionLZ4:
		dst := make([]byte, ulen)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, err
		}
		if n != ulen {
			return nil, errors.New("hvf: decompressed size mismatch")
		}
		return dst, nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		dst, err := dec.DecodeAll(data, make([]byte, 0, ulen))
		if err != nil {
			return nil, err
		}
		if len(dst) != ulen {
			return nil, errors.New("hvf: decompressed size mismatch")
		}
		return dst, nil
	default:
		return nil, errors.New("hvf: compressed chunk in dataset marked " + string(c))
	}
}
