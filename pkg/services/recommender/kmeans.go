package recommender

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const maxIterations = 300

var ErrDegenerateFeatures = errors.New("all feature vectors are identical")

// Cluster partitions points into k groups with Lloyd's algorithm and returns the group index
// of every point.
//
// Seeding is deterministic: the first centroid is points[0]; every following centroid is the
// point farthest (squared euclidean distance) from its nearest already chosen centroid, with
// ties resolved to the lowest index. Identical input therefore always yields identical groups.
// With fewer distinct points than k the surplus groups stay empty.
func Cluster(points [][]float64, k int) ([]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("invalid group count %d", k)
	}
	if k > 1 && distinctCount(points, 2) < 2 {
		return nil, ErrDegenerateFeatures
	}
	for i, p := range points {
		for _, v := range p {
			if !isFinite(v) {
				return nil, fmt.Errorf("point %d has non-finite coordinate %v", i, v)
			}
		}
	}

	centroids := seedCentroids(points, k)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			nearest, _ := nearestCentroid(p, centroids)
			if labels[i] != nearest {
				labels[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}
		updateCentroids(points, labels, centroids)
	}

	return labels, nil
}

func seedCentroids(points [][]float64, k int) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[0]))

	for len(centroids) < k {
		best, bestDist := 0, -1.0
		for i, p := range points {
			_, d := nearestCentroid(p, centroids)
			if d > bestDist {
				best, bestDist = i, d
			}
		}
		centroids = append(centroids, clone(points[best]))
	}
	return centroids
}

// nearestCentroid returns the index of the closest centroid and the squared distance to it.
func nearestCentroid(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		d := floats.Distance(p, centroid, 2)
		d *= d
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

// updateCentroids moves every centroid to the mean of its members. Groups that lost all
// members keep their previous position.
func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	dims := len(points[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		centroids[c] = sums[c]
	}
}

// distinctCount counts distinct points, stopping once limit is reached.
func distinctCount(points [][]float64, limit int) int {
	var distinct [][]float64
	for _, p := range points {
		dup := false
		for _, q := range distinct {
			if floats.Equal(p, q) {
				dup = true
				break
			}
		}
		if !dup {
			distinct = append(distinct, p)
			if len(distinct) >= limit {
				break
			}
		}
	}
	return len(distinct)
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
