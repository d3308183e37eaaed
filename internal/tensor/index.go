package tensor

import "fmt"

// IndexTensor holds unsigned token indices over a fixed shape.
//
// It plays the role of a one-hot tensor without expanding it: every element
// is the position of the hot entry in a vocabulary of Width() entries.
type IndexTensor struct {
	data  []uint32
	shape Shape
	width int
}

// NewIndexTensor allocates an index tensor for a vocabulary of width entries.
func NewIndexTensor(shape Shape, width int) *IndexTensor {
	if err := shape.Validate(); err != nil {
		Failf("NewIndexTensor", "%v", err)
	}
	if width <= 0 {
		Failf("NewIndexTensor", "vocabulary width must be > 0, got %d", width)
	}
	return &IndexTensor{
		data:  make([]uint32, shape.NumElements()),
		shape: shape.Clone(),
		width: width,
	}
}

// StackIndices stacks equally shaped index tensors along a new leading
// dimension.
func StackIndices(rows ...*IndexTensor) (*IndexTensor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("stack: no index tensors")
	}
	first := rows[0]
	shape := append(Shape{len(rows)}, first.shape...)
	out := NewIndexTensor(shape, first.width)
	n := len(first.data)
	for i, r := range rows {
		if !r.shape.Equal(first.shape) || r.width != first.width {
			return nil, fmt.Errorf("stack: tensor %d is %v/%d, want %v/%d", i, r.shape, r.width, first.shape, first.width)
		}
		copy(out.data[i*n:], r.data)
	}
	return out, nil
}

// Shape returns the tensor's shape.
func (t *IndexTensor) Shape() Shape {
	return t.shape
}

// Width returns the vocabulary size the indices refer to.
func (t *IndexTensor) Width() int {
	return t.width
}

// Data returns the backing storage in row-major order.
func (t *IndexTensor) Data() []uint32 {
	return t.data
}

// At returns the index at the given position.
func (t *IndexTensor) At(indices ...int) uint32 {
	return t.data[flatIndex("IndexTensor.At", t.shape, t.shape.ComputeStrides(), 0, indices)]
}

// String returns a human-readable representation of the tensor.
func (t *IndexTensor) String() string {
	return fmt.Sprintf("IndexTensor[uint32/%d]%v", t.width, t.shape)
}
