package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

const float32Size = 4

// encodeEmbedding returns the column value for an embedding: NULL when absent,
// otherwise a little-endian float32 blob
func encodeEmbedding(vector []float32) any {
	if len(vector) == 0 {
		return nil
	}
	return SerializeVector(vector)
}

// decodeEmbedding reads an embedding column. Rows written by other tools may hold a
// JSON array instead of a blob; both are accepted. Anything else is an error.
func decodeEmbedding(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	if text := bytes.TrimSpace(raw); len(text) > 0 && text[0] == '[' {
		var vector []float32
		if err := json.Unmarshal(text, &vector); err != nil {
			return nil, fmt.Errorf("invalid embedding json: %w", err)
		}
		if len(vector) == 0 {
			return nil, nil
		}
		return vector, nil
	}

	if len(raw)%float32Size != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(raw))
	}
	vector := make([]float32, 0, len(raw)/float32Size)
	for off := 0; off < len(raw); off += float32Size {
		vector = append(vector, math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
	}
	return vector, nil
}

// SerializeVector packs vector into the blob layout stored in the embedding column
func SerializeVector(vector []float32) []byte {
	blob := make([]byte, 0, len(vector)*float32Size)
	for _, v := range vector {
		blob = binary.LittleEndian.AppendUint32(blob, math.Float32bits(v))
	}
	return blob
}

// DecodeEmbedding decodes a stored embedding column
func DecodeEmbedding(raw []byte) ([]float32, error) {
	return decodeEmbedding(raw)
}

// CosineSimilarity returns the cosine similarity of a and b clamped to [-1, 1].
// Vectors of different length, and zero vectors, score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, sumA, sumB float64
	for i, av := range a {
		x, y := float64(av), float64(b[i])
		dot += x * y
		sumA += x * x
		sumB += y * y
	}
	if sumA == 0 || sumB == 0 {
		return 0
	}

	return max(-1, min(1, dot/math.Sqrt(sumA*sumB)))
}
