// Package vector implements the cosine distance math shared by the
// in-memory store and every similarity threshold in the system. All
// comparisons, duplicate detection and ranking alike, go through the
// same formula: similarity = 1 - distance, distance in [0, 2].
package vector

import "math"

// CosineDistance returns the cosine distance between a and b, in [0, 2].
// Identical direction → 0, orthogonal → 1, opposite → 2. Vectors of
// different lengths or zero magnitude yield the orthogonal distance 1,
// matching how a SQL `<=>` operator treats degenerate input.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// Similarity converts a cosine distance into a similarity score.
// This is the only conversion used for threshold comparisons.
func Similarity(distance float64) float64 {
	return 1 - distance
}
