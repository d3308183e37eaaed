package nn

import (
	"fmt"

	"github.com/born-ml/highlight/internal/tensor"
)

// Sequential is a container layer that chains tensor layers together.
//
// Each layer's output becomes the next layer's input. OutputShape folds the
// shape derivation the same way and names the first stage that rejects its
// input, so a mismatched chain is caught when it is assembled.
//
// Example:
//
//	block := nn.NewSequential(
//	    nn.NewResidual(attention),
//	    norm,
//	)
//
//	output := block.Forward(input)
//
// This is equivalent to:
//
//	h := residual.Forward(input)
//	output := norm.Forward(h)
type Sequential struct {
	layers []TensorLayer
}

// NewSequential creates a new Sequential container.
func NewSequential(layers ...TensorLayer) *Sequential {
	return &Sequential{layers: layers}
}

// Forward applies all layers in order.
func (s *Sequential) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := input
	for _, layer := range s.layers {
		output = layer.Forward(output)
	}
	return output
}

// OutputShape folds OutputShape across all layers.
func (s *Sequential) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	shape := input
	for i, layer := range s.layers {
		next, err := layer.OutputShape(shape)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		shape = next
	}
	return shape, nil
}

// Add appends a layer to the sequence.
func (s *Sequential) Add(layer TensorLayer) {
	s.layers = append(s.layers, layer)
}

// Len returns the number of layers in the sequence.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) TensorLayer {
	if index < 0 || index >= len(s.layers) {
		tensor.Failf("Sequential.Layer", "index %d out of bounds for %d layers", index, len(s.layers))
	}
	return s.layers[index]
}
