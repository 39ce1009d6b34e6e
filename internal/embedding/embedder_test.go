package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDimension_PinsOnFirstUse(t *testing.T) {
	e := &Embedder{}
	require.NoError(t, e.checkDimension([][]float32{make([]float32, 384), make([]float32, 384)}))
	assert.Equal(t, 384, e.Dimension())

	require.NoError(t, e.checkDimension([][]float32{make([]float32, 384)}))

	err := e.checkDimension([][]float32{make([]float32, 256)})
	assert.ErrorIs(t, err, ErrDimensionDrift)
}

func TestToFloat32(t *testing.T) {
	got := toFloat32([]float64{0.5, -1.25, 2})
	assert.Equal(t, []float32{0.5, -1.25, 2}, got)
}

func TestNewEmbedder_Defaults(t *testing.T) {
	e := NewEmbedder(nil, "", 0)
	assert.Equal(t, DefaultModel, e.model)
	assert.Equal(t, DefaultBatchSize, e.batchSize)
	assert.Equal(t, 0, e.Dimension())
}
