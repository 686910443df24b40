// Package vector provides the embedding arithmetic shared by clustering and search.
package vector

import (
	"math"
	"sort"
)

// CosineSimilarity returns dot(a,b) / (|a||b|), in [-1, 1].
// It returns 0 when the lengths differ, either vector is empty, or either has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CosineDistance returns 1 - CosineSimilarity(a, b).
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}

// EuclideanDistance returns the L2 distance between a and b.
// Both vectors must have the same length.
func EuclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Mean returns the coordinate-wise mean of vectors, or nil when there are none.
// All vectors must have the same length.
func Mean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			out[i] += x
		}
	}
	n := float64(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out
}

// Stored is an embedding paired with the ID of the thing it describes.
type Stored struct {
	id        string
	embedding []float64
}

// NewStored creates a Stored, copying the embedding.
func NewStored(id string, embedding []float64) Stored {
	v := make([]float64, len(embedding))
	copy(v, embedding)
	return Stored{id: id, embedding: v}
}

// ID returns the owner identifier.
func (s Stored) ID() string { return s.id }

// Embedding returns a copy of the embedding.
func (s Stored) Embedding() []float64 {
	out := make([]float64, len(s.embedding))
	copy(out, s.embedding)
	return out
}

// Match is a stored vector's similarity to a query.
type Match struct {
	id         string
	similarity float64
}

// NewMatch creates a Match.
func NewMatch(id string, similarity float64) Match {
	return Match{id: id, similarity: similarity}
}

// ID returns the matched identifier.
func (m Match) ID() string { return m.id }

// Similarity returns the cosine similarity to the query.
func (m Match) Similarity() float64 { return m.similarity }

// TopKSimilar ranks stored vectors by cosine similarity to query, keeps those
// at or above threshold, and returns at most k, highest first. Equal scores
// keep their input order.
func TopKSimilar(query []float64, stored []Stored, k int, threshold float64) []Match {
	if len(stored) == 0 || k <= 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(stored))
	for _, s := range stored {
		sim := CosineSimilarity(query, s.embedding)
		if sim >= threshold {
			matches = append(matches, NewMatch(s.id, sim))
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}
