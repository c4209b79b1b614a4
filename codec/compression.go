package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the compression algorithm applied to a payload frame.
type Compression uint8

const (
	// None stores the payload verbatim.
	None Compression = 0
	// LZ4 uses LZ4 block compression (fast, good for hot data).
	LZ4 Compression = 1
	// ZSTD uses ZSTD compression (better ratio, good for cold data).
	ZSTD Compression = 2
)

// String returns the stable name of the compression.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression returns the compression with the given stable name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("codec: unknown compression %q", name)
	}
}

// ErrCorrupt is returned when a frame cannot be decoded.
var ErrCorrupt = errors.New("codec: corrupt frame")

const headerSize = 5

// A frame is only stored compressed if that saves at least 10%.
const minSavingsRatio = 0.9

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

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Encode wraps data in a frame, compressing it with c when that pays off.
// The returned slice never aliases data.
func Encode(data []byte, c Compression) ([]byte, error) {
	var (
		body []byte
		err  error
	)

	switch c {
	case None:
	case LZ4:
		body, err = compressLZ4(data)
	case ZSTD:
		body = compressZSTD(data)
	default:
		return nil, fmt.Errorf("codec: unknown compression %d", uint8(c))
	}
	if err != nil {
		return nil, err
	}

	if len(body) == 0 || float64(len(body)) > float64(len(data))*minSavingsRatio {
		c, body = None, data
	}

	out := make([]byte, headerSize+len(body))
	out[0] = byte(c)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	copy(out[headerSize:], body)
	return out, nil
}

// Decode unwraps a frame produced by Encode.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(frame))
	}

	c := Compression(frame[0])
	rawSize := binary.LittleEndian.Uint32(frame[1:])
	body := frame[headerSize:]

	switch c {
	case None:
		if uint32(len(body)) != rawSize {
			return nil, fmt.Errorf("%w: size mismatch (header %d, body %d)", ErrCorrupt, rawSize, len(body))
		}
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil

	case LZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil

	case ZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		out, err := dec.DecodeAll(body, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(out)) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, uint8(c))
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

func compressZSTD(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil)
}
