// Package nn implements the layers and composition machinery of the
// highlighting network.
//
// This package provides:
//   - Layer: the single Forward/OutputShape contract every stage satisfies
//   - Then, Sequential, Pipeline: build-time checked layer chains
//   - MultiHeadAttention: packed K/Q/V self-attention over scratch buffers
//   - Embedding, Linear, LayerNorm, FeedForward, Residual, activations
//   - Encoder: stacked attention blocks
//
// Parameterised layers do not own their weights. The assembling model owns a
// params struct and hands each layer a pointer through Bind; calling Forward
// before Bind is a contract violation.
package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/highlight/internal/tensor"
)

var (
	// ErrShapeMismatch is returned when a layer cannot accept an input shape.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidConfig is returned for impossible layer hyperparameters.
	ErrInvalidConfig = errors.New("invalid layer configuration")
)

// Layer is the contract shared by every stage of a network.
//
// Forward computes the output for one input. OutputShape derives the output
// shape from an input shape and the layer's hyperparameters without touching
// any data; it is what chains use to reject mismatched stages before the
// first inference call. The leading (batch) dimension is free, all other
// dimensions are fixed by the layer.
type Layer[In, Out tensor.Shaped] interface {
	Forward(input In) Out
	OutputShape(input tensor.Shape) (tensor.Shape, error)
}

// TensorLayer is a layer from float tensors to float tensors.
type TensorLayer = Layer[*tensor.Tensor, *tensor.Tensor]

// Binder is implemented by layers that reference externally owned parameters.
type Binder[P any] interface {
	Bind(params *P)
}

func shapeErrorf(layer, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", layer, ErrShapeMismatch, fmt.Sprintf(format, args...))
}

func configErrorf(layer, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", layer, ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// expectTrailing checks that shape is [batch, dims...].
func expectTrailing(layer string, shape tensor.Shape, dims ...int) error {
	if len(shape) != len(dims)+1 {
		return shapeErrorf(layer, "expected rank %d input [batch %v], got %v", len(dims)+1, tensor.Shape(dims), shape)
	}
	if shape[0] <= 0 {
		return shapeErrorf(layer, "batch size must be > 0, got %v", shape)
	}
	for i, d := range dims {
		if shape[i+1] != d {
			return shapeErrorf(layer, "dimension %d is %d, want %d", i+1, shape[i+1], d)
		}
	}
	return nil
}

// bound returns params or fails fast if Bind was never called.
func bound[P any](layer string, params *P) *P {
	if params == nil {
		tensor.Failf(layer, "parameters not bound")
	}
	return params
}

// bindable fails fast on a nil params pointer.
func bindable[P any](layer string, params *P) {
	if params == nil {
		tensor.Failf(layer, "nil parameters")
	}
}

// expectParam fails fast if a bound parameter tensor has the wrong shape.
func expectParam(layer, name string, t *tensor.Tensor, shape tensor.Shape) {
	if t == nil {
		tensor.Failf(layer, "parameter %s is nil", name)
	}
	if !t.Shape().Equal(shape) {
		tensor.Failf(layer, "parameter %s has shape %v, want %v", name, t.Shape(), shape)
	}
}
