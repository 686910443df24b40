// Package cluster groups embeddings with k-means and describes the resulting
// clusters for display.
package cluster

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/techvault/skoop/domain/vector"
)

// DefaultMaxIterations caps k-means when no option overrides it.
const DefaultMaxIterations = 100

// Errors returned by KMeans for inputs it cannot partition.
var (
	ErrInvalidK          = errors.New("k must be between 1 and the number of vectors")
	ErrDimensionMismatch = errors.New("vectors must share a non-zero dimension")
	ErrInvalidIterations = errors.New("max iterations must be positive")
	ErrUnknownMetric     = errors.New("unknown distance metric")
)

// Metric measures the distance between two vectors of equal length.
type Metric int

// Metric values.
const (
	Cosine Metric = iota
	Euclidean
)

// Distance returns the distance between a and b under m.
func (m Metric) Distance(a, b []float64) float64 {
	if m == Euclidean {
		return vector.EuclideanDistance(a, b)
	}
	return vector.CosineDistance(a, b)
}

// String returns the metric name.
func (m Metric) String() string {
	if m == Euclidean {
		return "euclidean"
	}
	return "cosine"
}

// ParseMetric converts "cosine" or "euclidean" to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cosine":
		return Cosine, nil
	case "euclidean", "l2":
		return Euclidean, nil
	default:
		return Cosine, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Option configures a KMeans run.
type Option func(*options)

type options struct {
	maxIterations int
	metric        Metric
}

// WithMaxIterations caps the number of assignment passes.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// WithMetric selects the distance metric.
func WithMetric(m Metric) Option {
	return func(o *options) { o.metric = m }
}

// Result is the outcome of a KMeans run.
type Result struct {
	assignments []int
	clusters    [][]int
	centroids   [][]float64
	iterations  int
	converged   bool
}

// Clusters returns k buckets of input indices. Together they partition
// [0, N); each bucket is ascending and may be empty.
func (r Result) Clusters() [][]int {
	out := make([][]int, len(r.clusters))
	for i, c := range r.clusters {
		out[i] = slices.Clone(c)
	}
	return out
}

// Assignments returns the cluster index of every input vector.
func (r Result) Assignments() []int { return slices.Clone(r.assignments) }

// Centroids returns the final centroid of every cluster: the mean of its
// members in Assignments, or its previous position when it has none. This
// holds when the iteration cap ends the run too.
func (r Result) Centroids() [][]float64 {
	out := make([][]float64, len(r.centroids))
	for i, c := range r.centroids {
		out[i] = slices.Clone(c)
	}
	return out
}

// Iterations returns the number of assignment passes performed.
func (r Result) Iterations() int { return r.iterations }

// Converged reports whether the run stopped because the partition stopped changing.
func (r Result) Converged() bool { return r.converged }

// K returns the number of clusters.
func (r Result) K() int { return len(r.clusters) }

// KMeans partitions vectors into k clusters.
//
// The first k vectors seed the centroids, so identical input in identical
// order always yields the same partition. Each pass assigns every vector to
// its nearest centroid, with ties going to the lower cluster index. The run
// stops when a pass reproduces the previous partition or after the iteration
// cap; otherwise each centroid moves to the mean of its members. A cluster
// that loses all members keeps its previous centroid.
//
// An empty input returns an empty Result regardless of k.
func KMeans(vectors [][]float64, k int, opts ...Option) (Result, error) {
	o := options{maxIterations: DefaultMaxIterations, metric: Cosine}
	for _, opt := range opts {
		opt(&o)
	}

	n := len(vectors)
	if n == 0 {
		return Result{}, nil
	}
	if k < 1 || k > n {
		return Result{}, fmt.Errorf("%w: k=%d, n=%d", ErrInvalidK, k, n)
	}
	if o.maxIterations < 1 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidIterations, o.maxIterations)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return Result{}, fmt.Errorf("%w: vector 0 is empty", ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return Result{}, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}

	centroids := make([][]float64, k)
	for i := range centroids {
		centroids[i] = slices.Clone(vectors[i])
	}

	var previous []int
	res := Result{}
	for iter := 1; iter <= o.maxIterations; iter++ {
		current := assign(vectors, centroids, o.metric)
		res.iterations = iter
		if previous != nil && slices.Equal(current, previous) {
			res.converged = true
			break
		}
		previous = current
		centroids = update(vectors, centroids, current)
	}

	res.assignments = previous
	res.clusters = buckets(previous, k)
	res.centroids = centroids
	return res, nil
}

func assign(vectors, centroids [][]float64, metric Metric) []int {
	out := make([]int, len(vectors))
	for i, v := range vectors {
		best := 0
		bestDist := metric.Distance(v, centroids[0])
		for j := 1; j < len(centroids); j++ {
			if d := metric.Distance(v, centroids[j]); d < bestDist {
				best, bestDist = j, d
			}
		}
		out[i] = best
	}
	return out
}

func update(vectors, centroids [][]float64, assignments []int) [][]float64 {
	members := make([][][]float64, len(centroids))
	for i, c := range assignments {
		members[c] = append(members[c], vectors[i])
	}
	next := make([][]float64, len(centroids))
	for c := range centroids {
		if len(members[c]) == 0 {
			next[c] = centroids[c]
			continue
		}
		next[c] = vector.Mean(members[c])
	}
	return next
}

func buckets(assignments []int, k int) [][]int {
	out := make([][]int, k)
	for c := range out {
		out[c] = []int{}
	}
	for i, c := range assignments {
		out[c] = append(out[c], i)
	}
	return out
}
