package index

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

const upsertBatchSize = 100

// Qdrant serves the Searcher contract from a Qdrant collection instead of
// process memory. Points are keyed by row number so results map positionally
// onto the chunk list, same as Flat. Distances come back from the server's
// Euclid metric; ordering matches the flat index, the magnitude is the
// server's (non-squared) form.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dim        int
	count      int
}

// NewQdrant connects to a Qdrant instance and verifies it is reachable,
// retrying with exponential backoff before giving up.
func NewQdrant(host string, port int, collection string) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	q := &Qdrant{client: client, collection: collection}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(func() error {
		_, err := client.HealthCheck(context.Background())
		return err
	}, b); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}
	return q, nil
}

// Open binds to an existing collection, reading its point count and vector
// size so searches can be validated locally. Missing collection leaves the
// index empty (Len 0).
func (q *Qdrant) Open(ctx context.Context) error {
	names, err := q.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	exists := false
	for _, name := range names {
		if name == q.collection {
			exists = true
			break
		}
	}
	if !exists {
		q.dim, q.count = 0, 0
		return nil
	}
	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}
	q.count = int(info.GetPointsCount())
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		q.dim = int(params.GetSize())
	}
	return nil
}

// Rebuild replaces the collection wholesale with the given vector matrix:
// row i becomes point i. There is no incremental update path.
func (q *Qdrant) Rebuild(ctx context.Context, vectors [][]float32) error {
	dim := 0
	for i, v := range vectors {
		if i == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return fmt.Errorf("%w: row %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}
	if dim == 0 && len(vectors) > 0 {
		return fmt.Errorf("%w: row 0 is empty", ErrDimensionMismatch)
	}

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
	}
	if len(vectors) == 0 {
		q.dim, q.count = 0, 0
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(vectors))
		points := make([]*qdrant.PointStruct, 0, end-start)
		for row := start; row < end; row++ {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(row)),
				Vectors: qdrant.NewVectors(vectors[row]...),
			})
		}
		if err := q.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert rows %d-%d: %w", start, end, err)
		}
	}
	q.dim = dim
	q.count = len(vectors)
	return nil
}

func (q *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search returns the topK nearest rows by Euclidean distance, ascending.
func (q *Qdrant) Search(ctx context.Context, query []float32, topK int) ([]Hit, error) {
	if q.count == 0 || topK <= 0 {
		return nil, nil
	}
	if q.dim != 0 && len(query) != q.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(query), q.dim)
	}
	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(topK)),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{Row: int(r.GetId().GetNum()), Distance: r.GetScore()})
	}
	return hits, nil
}

// Dimension returns the collection's vector size, or 0 when empty.
func (q *Qdrant) Dimension() int { return q.dim }

// Len returns the number of indexed rows.
func (q *Qdrant) Len() int { return q.count }

// Close releases the client connection.
func (q *Qdrant) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}
