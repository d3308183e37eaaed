package nn

import (
	"math/rand"

	"github.com/born-ml/highlight/internal/tensor"
)

// LinearParams holds a dense layer's weights.
type LinearParams struct {
	Weight *tensor.Tensor // [out_features, in_features]
	Bias   *tensor.Tensor // [out_features]
}

// NewLinearParams allocates zero weights and bias.
func NewLinearParams(inFeatures, outFeatures int) *LinearParams {
	return &LinearParams{
		Weight: tensor.Zeros(tensor.Shape{outFeatures, inFeatures}),
		Bias:   tensor.Zeros(tensor.Shape{outFeatures}),
	}
}

// Init applies Xavier initialization to the weight and zeroes the bias.
func (p *LinearParams) Init(rng *rand.Rand) {
	shape := p.Weight.Shape()
	Xavier(p.Weight, shape[1], shape[0], rng)
	Fill(p.Bias, 0)
}

// Parameters returns [weight, bias].
func (p *LinearParams) Parameters() []*Parameter {
	return []*Parameter{NewParameter("weight", p.Weight), NewParameter("bias", p.Bias)}
}

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b over the last dimension, so
// it accepts [batch, in_features] as well as [batch, seq, in_features].
//
// The transposed weight is a stride swap, not a copy.
type Linear struct {
	inFeatures  int
	outFeatures int
	params      *LinearParams
}

// NewLinear creates an unbound Linear layer.
func NewLinear(inFeatures, outFeatures int) (*Linear, error) {
	if inFeatures <= 0 || outFeatures <= 0 {
		return nil, configErrorf("Linear", "in=%d out=%d must be > 0", inFeatures, outFeatures)
	}
	return &Linear{inFeatures: inFeatures, outFeatures: outFeatures}, nil
}

// Bind references the layer weights. Panics if their shapes are wrong.
func (l *Linear) Bind(params *LinearParams) {
	bindable("Linear.Bind", params)
	expectParam("Linear.Bind", "weight", params.Weight, tensor.Shape{l.outFeatures, l.inFeatures})
	expectParam("Linear.Bind", "bias", params.Bias, tensor.Shape{l.outFeatures})
	l.params = params
}

// OutputShape replaces the last dimension with out_features.
func (l *Linear) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) != 2 && len(input) != 3 {
		return nil, shapeErrorf("Linear", "expected rank 2 or 3 input, got %v", input)
	}
	if last := input[len(input)-1]; last != l.inFeatures {
		return nil, shapeErrorf("Linear", "expected %d input features, got %d", l.inFeatures, last)
	}
	return input.WithDim(len(input)-1, l.outFeatures), nil
}

// Forward computes x @ W.T + b.
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	p := bound("Linear.Forward", l.params)
	shape, err := l.OutputShape(input.Shape())
	if err != nil {
		tensor.Failf("Linear.Forward", "%v", err)
	}

	bias := p.Bias.Data()
	out := tensor.Zeros(shape)
	out.Assign(tensor.Rowwise(tensor.MatMul(input.View(), p.Weight.View().Transpose()), func(r tensor.Row) {
		for i := 0; i < r.Len(); i++ {
			r.Set(i, r.At(i)+bias[i])
		}
	}))
	return out
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
