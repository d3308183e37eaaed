package nn

import (
	"fmt"

	"github.com/born-ml/highlight/internal/tensor"
)

type stacked[A, B, C tensor.Shaped] struct {
	first Layer[A, B]
	next  Layer[B, C]
}

// Then composes two layers whose types line up: the output type of first
// must be the input type of next, so a heterogeneous chain that does not
// connect does not compile.
//
// Example:
//
//	net := nn.Then[*tensor.IndexTensor, *tensor.Tensor, *tensor.Tensor](embedding, encoder)
func Then[A, B, C tensor.Shaped](first Layer[A, B], next Layer[B, C]) Layer[A, C] {
	return &stacked[A, B, C]{first: first, next: next}
}

func (s *stacked[A, B, C]) Forward(input A) C {
	return s.next.Forward(s.first.Forward(input))
}

func (s *stacked[A, B, C]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	mid, err := s.first.OutputShape(input)
	if err != nil {
		return nil, err
	}
	return s.next.OutputShape(mid)
}

// Pipeline is a layer chain whose shapes were verified at assembly.
//
// The chain is fixed once assembled: no branching, no loops, no backward
// edges. The pipeline holds references to already constructed layers and owns
// no data of its own, so it can be reused for any number of calls.
type Pipeline[In, Out tensor.Shaped] struct {
	layer  Layer[In, Out]
	input  tensor.Shape
	output tensor.Shape
}

// Assemble checks layer against a sample input shape and returns the pipeline.
//
// The batch dimension of input is only a sample; Forward accepts any batch
// size as long as every other dimension matches.
func Assemble[In, Out tensor.Shaped](layer Layer[In, Out], input tensor.Shape) (*Pipeline[In, Out], error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("assemble: %w: %w", ErrShapeMismatch, err)
	}
	output, err := layer.OutputShape(input)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return &Pipeline[In, Out]{layer: layer, input: input.Clone(), output: output}, nil
}

// Forward runs the chain. The input must match the assembled shape on every
// dimension after the batch dimension.
func (p *Pipeline[In, Out]) Forward(input In) Out {
	if !input.Shape().EqualInner(p.input) {
		tensor.Failf("Pipeline.Forward", "input %v does not match assembled input %v", input.Shape(), p.input)
	}
	return p.layer.Forward(input)
}

// OutputShape delegates to the assembled chain.
func (p *Pipeline[In, Out]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	return p.layer.OutputShape(input)
}

// InputShape returns the sample input shape the pipeline was assembled for.
func (p *Pipeline[In, Out]) InputShape() tensor.Shape {
	return p.input
}

// SampleOutputShape returns the output shape derived for the sample input.
func (p *Pipeline[In, Out]) SampleOutputShape() tensor.Shape {
	return p.output
}
