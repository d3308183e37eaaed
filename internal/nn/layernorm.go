package nn

import (
	"math"

	"github.com/born-ml/highlight/internal/tensor"
)

// LayerNormParams holds the learnable scale and shift, both [d_model].
type LayerNormParams struct {
	Gamma *tensor.Tensor
	Beta  *tensor.Tensor
}

// NewLayerNormParams returns gamma = 1, beta = 0.
func NewLayerNormParams(dim int) *LayerNormParams {
	return &LayerNormParams{
		Gamma: tensor.Full(tensor.Shape{dim}, 1),
		Beta:  tensor.Zeros(tensor.Shape{dim}),
	}
}

// Init resets gamma to ones and beta to zeros.
func (p *LayerNormParams) Init() {
	Fill(p.Gamma, 1)
	Fill(p.Beta, 0)
}

// Parameters returns [gamma, beta].
func (p *LayerNormParams) Parameters() []*Parameter {
	return []*Parameter{NewParameter("gamma", p.Gamma), NewParameter("beta", p.Beta)}
}

// LayerNorm applies Layer Normalization over the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
type LayerNorm struct {
	Dim     int
	Epsilon float32
	params  *LayerNormParams
}

// NewLayerNorm creates an unbound LayerNorm layer.
func NewLayerNorm(dim int, epsilon float32) (*LayerNorm, error) {
	if dim <= 0 {
		return nil, configErrorf("LayerNorm", "dim must be > 0, got %d", dim)
	}
	if epsilon <= 0 {
		return nil, configErrorf("LayerNorm", "epsilon must be > 0, got %g", epsilon)
	}
	return &LayerNorm{Dim: dim, Epsilon: epsilon}, nil
}

// Bind references gamma and beta. Panics if their shapes are wrong.
func (l *LayerNorm) Bind(params *LayerNormParams) {
	bindable("LayerNorm.Bind", params)
	expectParam("LayerNorm.Bind", "gamma", params.Gamma, tensor.Shape{l.Dim})
	expectParam("LayerNorm.Bind", "beta", params.Beta, tensor.Shape{l.Dim})
	l.params = params
}

// OutputShape is the identity for inputs whose last dimension is Dim.
func (l *LayerNorm) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) < 2 || input[len(input)-1] != l.Dim {
		return nil, shapeErrorf("LayerNorm", "expected [..., %d], got %v", l.Dim, input)
	}
	return input, nil
}

// Forward normalises every last-axis row.
func (l *LayerNorm) Forward(input *tensor.Tensor) *tensor.Tensor {
	p := bound("LayerNorm.Forward", l.params)
	if _, err := l.OutputShape(input.Shape()); err != nil {
		tensor.Failf("LayerNorm.Forward", "%v", err)
	}

	gamma, beta := p.Gamma.Data(), p.Beta.Data()
	eps := float64(l.Epsilon)
	out := tensor.Zeros(input.Shape())
	out.Assign(tensor.Rowwise(input.View(), func(r tensor.Row) {
		n := float64(r.Len())
		var mean float64
		for i := 0; i < r.Len(); i++ {
			mean += float64(r.At(i))
		}
		mean /= n
		var variance float64
		for i := 0; i < r.Len(); i++ {
			d := float64(r.At(i)) - mean
			variance += d * d
		}
		variance /= n
		rstd := 1 / math.Sqrt(variance+eps)
		for i := 0; i < r.Len(); i++ {
			norm := (float64(r.At(i)) - mean) * rstd
			r.Set(i, float32(norm)*gamma[i]+beta[i])
		}
	}))
	return out
}
