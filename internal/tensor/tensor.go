// Package tensor provides fixed-shape float32 tensors, index tensors and the
// zero-copy projections (slice, select, transpose) the layer engine works on.
//
// There are three access modes:
//   - *Tensor owns its storage.
//   - View is a read-only projection of a tensor's storage.
//   - MutView is an assignable projection; MutView.Assign is the only way a
//     projection writes to storage.
//
// Operations such as MatMul, DivScalar and Softmax build an Expr that is
// evaluated directly into the destination of Assign, so no temporaries are
// allocated.
package tensor

import "fmt"

// Tensor is an owned, dense, row-major float32 tensor.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{2, 3})
//	t.Set(1.5, 0, 2)
//	row := t.View().Select(0, 0) // [3]
type Tensor struct {
	data    []float32
	shape   Shape
	strides []int
}

// Zeros creates a tensor filled with zeros.
// Panics with a contract violation if the shape is invalid.
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		Failf("Zeros", "%v", err)
	}
	return &Tensor{
		data:    make([]float32, shape.NumElements()),
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
	}
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float32) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t := Zeros(shape)
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Dim returns the size of dimension d.
func (t *Tensor) Dim(d int) int {
	return t.shape[d]
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the backing storage in row-major order.
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) At(indices ...int) float32 {
	return t.data[flatIndex("At", t.shape, t.strides, 0, indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) Set(value float32, indices ...int) {
	t.data[flatIndex("Set", t.shape, t.strides, 0, indices)] = value
}

// View returns a read-only projection over the whole tensor.
func (t *Tensor) View() View {
	return View{data: t.data, shape: t.shape, strides: t.strides}
}

// Mut returns an assignable projection over the whole tensor.
func (t *Tensor) Mut() MutView {
	return MutView{v: t.View()}
}

// Assign evaluates e into the tensor. Shapes must match.
func (t *Tensor) Assign(e Expr) {
	t.Mut().Assign(e)
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := Zeros(t.shape)
	copy(c.data, t.data)
	return c
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[float32]%v", t.shape)
}

func flatIndex(op string, shape Shape, strides []int, offset int, indices []int) int {
	if len(indices) != len(shape) {
		Failf(op, "expected %d indices, got %d", len(shape), len(indices))
	}
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			Failf(op, "index %d out of bounds for dimension %d (size %d)", idx, i, shape[i])
		}
		offset += idx * strides[i]
	}
	return offset
}
