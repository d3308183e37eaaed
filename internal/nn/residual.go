package nn

import (
	"github.com/born-ml/highlight/internal/tensor"
)

// Residual wraps a shape-preserving layer as y = x + inner(x).
type Residual struct {
	inner TensorLayer
}

// NewResidual wraps inner with a skip connection.
func NewResidual(inner TensorLayer) *Residual {
	return &Residual{inner: inner}
}

// Inner returns the wrapped layer.
func (r *Residual) Inner() TensorLayer {
	return r.inner
}

// OutputShape requires inner to preserve the input shape.
func (r *Residual) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	out, err := r.inner.OutputShape(input)
	if err != nil {
		return nil, err
	}
	if !out.Equal(input) {
		return nil, shapeErrorf("Residual", "inner layer maps %v to %v", input, out)
	}
	return input, nil
}

// Forward computes x + inner(x).
func (r *Residual) Forward(input *tensor.Tensor) *tensor.Tensor {
	out := r.inner.Forward(input)
	out.Assign(tensor.Add(input.View(), out.View()))
	return out
}
