// Package index provides vector indexes over fixed-dimension embeddings.
//
// The default implementation is Flat: an exhaustive exact squared-L2 index.
// Search cost is O(rows * dim) per query, which is the right trade for
// small-to-medium corpora where deterministic exactness matters more than
// throughput. Corpora in the millions of vectors should use the Qdrant
// backend instead.
package index

import (
	"context"
	"fmt"
	"sort"
)

// Hit is a single search result: a row in the index and its squared
// Euclidean distance to the query vector.
type Hit struct {
	Row      int
	Distance float32
}

// Searcher is the query-side contract shared by the flat and Qdrant indexes.
// Row i of a Searcher corresponds to position i in the chunk list built
// alongside it; that pairing is the retrieval correctness invariant.
type Searcher interface {
	Search(ctx context.Context, query []float32, topK int) ([]Hit, error)
	Dimension() int
	Len() int
}

// Flat is an exhaustive exact-L2 vector index. It is immutable after Build
// and safe for concurrent readers.
type Flat struct {
	dim     int
	vectors [][]float32
}

// Build constructs a Flat index holding all rows of the given matrix.
// The dimension of the first row becomes fixed for the index's lifetime;
// rows with a different length fail with ErrDimensionMismatch.
func Build(vectors [][]float32) (*Flat, error) {
	f := &Flat{}
	if len(vectors) == 0 {
		return f, nil
	}
	f.dim = len(vectors[0])
	if f.dim == 0 {
		return nil, fmt.Errorf("%w: row 0 is empty", ErrDimensionMismatch)
	}
	f.vectors = make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != f.dim {
			return nil, fmt.Errorf("%w: row %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), f.dim)
		}
		row := make([]float32, f.dim)
		copy(row, v)
		f.vectors[i] = row
	}
	return f, nil
}

// Dimension returns the fixed vector dimension, or 0 for an empty index.
func (f *Flat) Dimension() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Search returns the topK rows nearest to query by squared Euclidean
// distance, ascending, ties broken by lowest row index. topK larger than
// the row count is clamped; an empty index returns no hits.
func (f *Flat) Search(_ context.Context, query []float32, topK int) ([]Hit, error) {
	if len(f.vectors) == 0 || topK <= 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(query), f.dim)
	}
	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Row: i, Distance: sqL2(query, v)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Row < hits[j].Row
	})
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func sqL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
