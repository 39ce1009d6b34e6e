// Package embedding turns chunk and query text into fixed-dimension vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the embedding model used unless configured otherwise.
	DefaultModel = "text-embedding-3-small"

	// DefaultBatchSize balances requests-per-minute against tokens-per-minute
	// rate limits; the API allows larger batches but smaller ones reduce TPM
	// pressure.
	DefaultBatchSize = 500
)

// ErrDimensionDrift is returned when the model starts producing vectors of a
// different length than it did on the first call. That indicates a model or
// version skew and must not be silently accepted: the vectors would no
// longer be comparable to the index.
var ErrDimensionDrift = errors.New("embedding dimension changed between calls")

// Embedder encodes batches of text into vectors. The vector dimension is
// discovered from the first successful call and enforced on every call
// after that. Safe for concurrent use.
type Embedder struct {
	client    *Client
	model     string
	batchSize int

	mu  sync.Mutex
	dim int // 0 until first successful call
}

// NewEmbedder creates an Embedder for the given model. Zero values select
// DefaultModel and DefaultBatchSize.
func NewEmbedder(client *Client, model string, batchSize int) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{client: client, model: model, batchSize: batchSize}
}

// Dimension returns the discovered vector dimension, or 0 before the first
// successful Encode.
func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim
}

// Encode embeds texts in order, batching requests and retrying rate-limit
// errors with exponential backoff. The returned matrix has one row per
// input text, all of the same length.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch, err := e.encodeBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *Embedder) encodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) != len(texts) {
			return backoff.Permanent(
				fmt.Errorf("embedding API returned %d vectors for %d texts", len(resp.Data), len(texts)))
		}
		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return vectors, e.checkDimension(vectors)
}

// checkDimension pins the dimension on first use and rejects any later
// deviation.
func (e *Embedder) checkDimension(vectors [][]float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range vectors {
		if e.dim == 0 {
			e.dim = len(v)
			continue
		}
		if len(v) != e.dim {
			return fmt.Errorf("%w: got %d, expected %d", ErrDimensionDrift, len(v), e.dim)
		}
	}
	return nil
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 narrows the API's float64 vectors for storage.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
