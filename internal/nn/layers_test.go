package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/highlight/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Embedding Tests

func TestEmbeddingLookup(t *testing.T) {
	emb, err := NewEmbedding(5, 3, 2)
	require.NoError(t, err)

	params := NewEmbeddingParams(5, 2)
	copy(params.Weight.Data(), []float32{
		0, 0,
		1, 1,
		2, 4,
		3, 9,
		4, 16,
	})
	emb.Bind(params)

	out := emb.Forward(indices(t, 5, []uint32{2, 0, 4}, []uint32{1, 1, 3}))
	require.Equal(t, tensor.Shape{2, 3, 2}, out.Shape())
	assert.Equal(t, []float32{2, 4, 0, 0, 4, 16, 1, 1, 1, 1, 3, 9}, out.Data())
}

func TestEmbeddingContract(t *testing.T) {
	emb, err := NewEmbedding(5, 2, 2)
	require.NoError(t, err)

	requireContract(t, func() { emb.Forward(indices(t, 5, []uint32{0, 1})) })

	emb.Bind(NewEmbeddingParams(5, 2))
	requireContract(t, func() { emb.Forward(indices(t, 5, []uint32{0, 5})) })
	requireContract(t, func() { emb.Forward(indices(t, 6, []uint32{0, 1})) })
	requireContract(t, func() { emb.Forward(indices(t, 5, []uint32{0, 1, 2})) })
	requireContract(t, func() { emb.Bind(NewEmbeddingParams(4, 2)) })
}

func TestEmbeddingOutputShape(t *testing.T) {
	emb, err := NewEmbedding(5, 3, 2)
	require.NoError(t, err)

	_, err = emb.OutputShape(tensor.Shape{1, 4})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewEmbedding(0, 3, 2)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// Linear Tests

func TestLinearForward(t *testing.T) {
	lin, err := NewLinear(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, lin.InFeatures())
	assert.Equal(t, 2, lin.OutFeatures())

	params := NewLinearParams(3, 2)
	copy(params.Weight.Data(), []float32{1, 2, 3, 4, 5, 6})
	copy(params.Bias.Data(), []float32{0.5, -1})
	lin.Bind(params)

	out := lin.Forward(mustTensor(t, []float32{1, 1, 1, 1, 0, -1}, tensor.Shape{2, 3}))
	assert.Equal(t, []float32{6.5, 14, -1.5, -3}, out.Data())

	out = lin.Forward(mustTensor(t, []float32{1, 1, 1, 1, 0, -1}, tensor.Shape{1, 2, 3}))
	assert.Equal(t, tensor.Shape{1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{6.5, 14, -1.5, -3}, out.Data())
}

func TestLinearOutputShape(t *testing.T) {
	lin, err := NewLinear(3, 2)
	require.NoError(t, err)

	for _, bad := range []tensor.Shape{{4}, {2, 4}, {1, 2, 4}, {1, 1, 1, 3}} {
		_, err := lin.OutputShape(bad)
		assert.ErrorIs(t, err, ErrShapeMismatch, "shape %v", bad)
	}
	requireContract(t, func() { lin.Forward(tensor.Zeros(tensor.Shape{1, 3})) })
}

// LayerNorm Tests

func TestLayerNormForward(t *testing.T) {
	ln, err := NewLayerNorm(4, 1e-5)
	require.NoError(t, err)

	params := NewLayerNormParams(4)
	ln.Bind(params)

	out := ln.Forward(mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 4}))
	rstd := 1 / math.Sqrt(1.25+1e-5)
	want := []float32{float32(-1.5 * rstd), float32(-0.5 * rstd), float32(0.5 * rstd), float32(1.5 * rstd)}
	assertClose(t, want, out.Data(), 1e-5)

	copy(params.Gamma.Data(), []float32{2, 2, 2, 2})
	copy(params.Beta.Data(), []float32{1, 1, 1, 1})
	out = ln.Forward(mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 4}))
	for i := range want {
		want[i] = 2*want[i] + 1
	}
	assertClose(t, want, out.Data(), 1e-5)
}

func TestLayerNormRows(t *testing.T) {
	ln, err := NewLayerNorm(8, 1e-5)
	require.NoError(t, err)
	ln.Bind(NewLayerNormParams(8))

	out := ln.Forward(randomTensor(tensor.Shape{2, 3, 8}, 1))
	assertNormalizedRows(t, out, 8)
}

func TestLayerNormInvalid(t *testing.T) {
	_, err := NewLayerNorm(4, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	ln, err := NewLayerNorm(4, 1e-5)
	require.NoError(t, err)
	_, err = ln.OutputShape(tensor.Shape{2, 5})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	requireContract(t, func() { ln.Forward(tensor.Zeros(tensor.Shape{1, 4})) })
}

func assertNormalizedRows(t *testing.T, x *tensor.Tensor, dim int) {
	t.Helper()
	data := x.Data()
	for r := 0; r < len(data)/dim; r++ {
		row := data[r*dim : (r+1)*dim]
		var mean, variance float64
		for _, v := range row {
			mean += float64(v)
		}
		mean /= float64(dim)
		for _, v := range row {
			variance += (float64(v) - mean) * (float64(v) - mean)
		}
		variance /= float64(dim)
		assert.InDelta(t, 0, mean, 1e-4, "row %d mean", r)
		assert.InDelta(t, 1, variance, 1e-3, "row %d variance", r)
	}
}

// Residual Tests

func TestResidualForward(t *testing.T) {
	lin, err := NewLinear(2, 2)
	require.NoError(t, err)
	params := NewLinearParams(2, 2)
	copy(params.Weight.Data(), []float32{2, 0, 0, 2})
	lin.Bind(params)

	res := NewResidual(lin)
	assert.Same(t, lin, res.Inner())

	out := res.Forward(mustTensor(t, []float32{1, -3}, tensor.Shape{1, 2}))
	assert.Equal(t, []float32{3, -9}, out.Data())
}

func TestResidualRejectsShapeChange(t *testing.T) {
	lin, err := NewLinear(4, 3)
	require.NoError(t, err)

	_, err = NewResidual(lin).OutputShape(tensor.Shape{1, 4})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

// FeedForward and Activation Tests

func TestFeedForward(t *testing.T) {
	ffn, err := NewFeedForward(4, 8)
	require.NoError(t, err)

	shape, err := ffn.OutputShape(tensor.Shape{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 4}, shape)

	params := NewFeedForwardParams(4, 8)
	ffn.Bind(params)
	for _, v := range ffn.Forward(randomTensor(tensor.Shape{2, 3, 4}, 2)).Data() {
		assert.Equal(t, float32(0), v)
	}

	params.Init(rand.New(rand.NewSource(3)))
	x := randomTensor(tensor.Shape{1, 2, 4}, 4)
	h := ffn.Up.Forward(x)
	want := ffn.Down.Forward(NewSiLU().Forward(h))
	assert.Equal(t, want.Data(), ffn.Forward(x).Data())

	requireContract(t, func() { ffn.Bind(nil) })
}

func TestActivations(t *testing.T) {
	x := mustTensor(t, []float32{-2, 0, 3}, tensor.Shape{1, 3})

	assert.Equal(t, []float32{0, 0, 3}, NewReLU().Forward(x).Data())

	silu := NewSiLU().Forward(x).Data()
	assert.InDelta(t, -2/(1+math.Exp(2)), silu[0], 1e-6)
	assert.InDelta(t, 0, silu[1], 1e-6)
	assert.InDelta(t, 3/(1+math.Exp(-3)), silu[2], 1e-6)

	// Input is not modified.
	assert.Equal(t, []float32{-2, 0, 3}, x.Data())
}
