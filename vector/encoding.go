package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeEmbedding encodes a vector into a BLOB suitable for storage in SQLite:
// a little-endian sequence of IEEE 754 float32 values without a length
// prefix; the length is derived from the BLOB size on decode.
func EncodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	return AppendEmbedding(make([]byte, 0, len(vec)*4), vec)
}

// AppendEmbedding appends the encoded form of vec to dst.
func AppendEmbedding(dst []byte, vec []float32) []byte {
	for _, v := range vec {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// DecodeEmbedding decodes a BLOB produced by EncodeEmbedding.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector: invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	return ReadEmbedding(b, len(b)/4), nil
}

// ReadEmbedding decodes dim float32 values from the head of b. The caller
// guarantees len(b) >= 4*dim.
func ReadEmbedding(b []byte, dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec
}
