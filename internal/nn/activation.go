package nn

import (
	"math"

	"github.com/born-ml/highlight/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation layer: f(x) = max(0, x).
type ReLU struct{}

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU element-wise.
func (r *ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	out := tensor.Zeros(input.Shape())
	out.Assign(tensor.Apply(input.View(), func(x float32) float32 {
		return max(x, 0)
	}))
	return out
}

// OutputShape is the identity.
func (r *ReLU) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	return input, nil
}

// SiLU is the Sigmoid Linear Unit (swish) activation: f(x) = x * sigmoid(x).
type SiLU struct{}

// NewSiLU creates a new SiLU activation layer.
func NewSiLU() *SiLU {
	return &SiLU{}
}

// Forward applies SiLU element-wise.
func (s *SiLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	out := tensor.Zeros(input.Shape())
	out.Assign(tensor.Apply(input.View(), func(x float32) float32 {
		return x / (1 + float32(math.Exp(float64(-x))))
	}))
	return out
}

// OutputShape is the identity.
func (s *SiLU) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	return input, nil
}
