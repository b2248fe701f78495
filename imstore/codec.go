package imstore

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

// EncodeAll and DecodeAll are safe for concurrent use, so one instance each
// is shared by every Store.
func zstdEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder
}

func zstdDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder
}

func encodeMatrix(m *mat.Dense) ([]byte, error) {
	raw, err := m.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("imstore: marshal matrix: %w", err)
	}
	return zstdEncoder().EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func decodeMatrix(data []byte) (*mat.Dense, error) {
	raw, err := zstdDecoder().DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("imstore: decompress matrix: %w", err)
	}
	m := &mat.Dense{}
	if err := m.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("imstore: unmarshal matrix: %w", err)
	}
	return m, nil
}
