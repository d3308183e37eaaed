// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the fixed-shape tensors the
// highlighting network runs on.
//
// The package defines:
//   - Tensor: owned, dense, row-major float32 storage
//   - View, MutView: zero-copy projections (slice, select, transpose)
//   - Expr: deferred computations evaluated straight into a MutView
//   - IndexTensor: token indices standing in for one-hot inputs
//
// Example:
//
//	scores := tensor.Zeros(tensor.Shape{4, 4})
//	scores.Assign(tensor.Softmax(tensor.MatMul(q, k.Transpose())))
package tensor

import (
	"github.com/born-ml/highlight/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Shaped is implemented by every tensor kind a layer can consume.
type Shaped = tensor.Shaped

// Tensor is an owned, dense, row-major float32 tensor.
type Tensor = tensor.Tensor

// View is a read-only projection of tensor storage.
type View = tensor.View

// MutView is an assignable projection of tensor storage.
type MutView = tensor.MutView

// Row is one last-axis row of a view, passed to Rowwise callbacks.
type Row = tensor.Row

// Expr is a deferred computation evaluated by Assign.
type Expr = tensor.Expr

// IndexTensor holds token indices over a fixed shape.
type IndexTensor = tensor.IndexTensor

// ContractError describes a violated precondition.
type ContractError = tensor.ContractError

// ErrContract is wrapped by every contract violation.
var ErrContract = tensor.ErrContract

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	return tensor.Full(shape, value)
}

// FromSlice creates a tensor from a copy of data.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// NewIndexTensor allocates an index tensor for a vocabulary of width entries.
func NewIndexTensor(shape Shape, width int) *IndexTensor {
	return tensor.NewIndexTensor(shape, width)
}

// MatMul multiplies the last two dimensions of a and b.
func MatMul(a, b View) Expr {
	return tensor.MatMul(a, b)
}

// DivScalar divides every element of e by s.
func DivScalar(e Expr, s float32) Expr {
	return tensor.DivScalar(e, s)
}

// Softmax normalises the last axis of e.
func Softmax(e Expr) Expr {
	return tensor.Softmax(e)
}

// Add sums two equally shaped views element-wise.
func Add(a, b View) Expr {
	return tensor.Add(a, b)
}

// Apply maps fn over every element of e.
func Apply(e Expr, fn func(x float32) float32) Expr {
	return tensor.Apply(e, fn)
}

// Rowwise calls fn on every last-axis row of e after evaluation.
func Rowwise(e Expr, fn func(r Row)) Expr {
	return tensor.Rowwise(e, fn)
}

// Catch runs fn and converts a contract violation panic into an error.
func Catch(fn func()) error {
	return tensor.Catch(fn)
}
