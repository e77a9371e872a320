// Package vector provides the vector math and serialization utilities
// used by the SemRank ranking service.
package vector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Errors returned by the similarity primitive. Callers rank a candidate
// that produced ErrZeroMagnitude as unrankable rather than failing the
// whole ranking call.
var (
	ErrDimensionMismatch = errors.New("vectors must have the same dimension")
	ErrZeroMagnitude     = errors.New("one or both vectors have zero magnitude")
)

// Float32SliceToBytes converts a slice of float32 to a byte slice.
func Float32SliceToBytes(floats []float32) ([]byte, error) {
	buf := new(bytes.Buffer)

	// First write the length of the slice
	err := binary.Write(buf, binary.LittleEndian, int32(len(floats)))
	if err != nil {
		return nil, fmt.Errorf("failed to write vector length: %w", err)
	}

	// Then write the float32 values
	err = binary.Write(buf, binary.LittleEndian, floats)
	if err != nil {
		return nil, fmt.Errorf("failed to write vector values: %w", err)
	}

	return buf.Bytes(), nil
}

// BytesToFloat32Slice converts a byte slice to a slice of float32.
func BytesToFloat32Slice(data []byte) ([]float32, error) {
	buf := bytes.NewReader(data)

	// First read the length of the slice
	var length int32
	err := binary.Read(buf, binary.LittleEndian, &length)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector length: %w", err)
	}

	// Then read the float32 values
	floats := make([]float32, length)
	err = binary.Read(buf, binary.LittleEndian, floats)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector values: %w", err)
	}

	return floats, nil
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// The result is a value between -1 and 1, where 1 means the vectors are
// identical, 0 means they are orthogonal, and -1 means they are opposite.
// Vectors of different dimensionality are rejected with
// ErrDimensionMismatch rather than being truncated to the shorter length.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// A zero vector has no direction, so similarity is undefined
	if normA == 0 || normB == 0 {
		return 0, ErrZeroMagnitude
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// MeanVector computes the element-wise arithmetic mean of the given
// vectors. All inputs must share the same dimensionality. The mean of a
// single vector is the vector itself.
func MeanVector(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, errors.New("cannot compute the mean of zero vectors")
	}

	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), dims)
		}
	}

	mean := make([]float32, dims)
	for _, v := range vectors {
		for i, val := range v {
			mean[i] += val
		}
	}

	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}

	return mean, nil
}
