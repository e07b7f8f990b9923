package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeEmbedding encodes vec as little-endian IEEE 754 float32 values with
// no length prefix; a 1536-dim embedding occupies 6144 bytes.
func EncodeEmbedding(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b, nil
}

// DecodeEmbedding decodes a BLOB produced by EncodeEmbedding.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector: invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// DecodeEmbeddingDim decodes b and checks it holds exactly dimensions values.
func DecodeEmbeddingDim(b []byte, dimensions int) ([]float32, error) {
	if len(b) != dimensions*4 {
		return nil, fmt.Errorf("vector: embedding blob has %d bytes, want %d", len(b), dimensions*4)
	}
	return DecodeEmbedding(b)
}
