package sqlstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/viant/voctree/model"
	"github.com/viant/voctree/vector"
)

const idLen = len(uuid.UUID{})

// encodeFeatures stores: dim(uint32), n(uint32), then for each feature:
// docID(16 bytes), vec(float32[dim]).
func encodeFeatures(features []model.Feature) ([]byte, error) {
	if len(features) == 0 {
		return nil, nil
	}
	dim := len(features[0].Vec)
	out := make([]byte, 0, 8+len(features)*(idLen+4*dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(features)))
	for i, f := range features {
		if len(f.Vec) != dim {
			return nil, fmt.Errorf("sqlstore: feature %d has dim %d, want %d", i, len(f.Vec), dim)
		}
		out = append(out, f.DocID[:]...)
		out = vector.AppendEmbedding(out, f.Vec)
	}
	return out, nil
}

func decodeFeatures(data []byte) ([]model.Feature, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 8 {
		return nil, errors.New("sqlstore: invalid features blob")
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	n := int(binary.LittleEndian.Uint32(data[4:8]))
	stride := idLen + 4*dim
	if len(data)-8 != n*stride {
		return nil, fmt.Errorf("sqlstore: truncated features blob: %d bytes for %d features of dim %d", len(data), n, dim)
	}
	out := make([]model.Feature, n)
	off := 8
	for i := range out {
		copy(out[i].DocID[:], data[off:off+idLen])
		off += idLen
		out[i].Vec = vector.ReadEmbedding(data[off:], dim)
		off += 4 * dim
	}
	return out, nil
}
