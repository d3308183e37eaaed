package tensor

import "fmt"

// View is a read-only, non-owning projection of tensor storage.
//
// A view is an (offset, shape, strides) descriptor over the storage of the
// tensor it was derived from; it must not outlive that tensor. Slice, Select
// and Transpose never copy.
type View struct {
	data    []float32
	offset  int
	shape   Shape
	strides []int
}

// Shape returns the projected shape.
func (v View) Shape() Shape {
	return v.shape
}

// Dim returns the size of dimension d.
func (v View) Dim(d int) int {
	return v.shape[d]
}

// Rank returns the number of dimensions.
func (v View) Rank() int {
	return len(v.shape)
}

// Strides returns the element strides of each dimension.
func (v View) Strides() []int {
	return v.strides
}

// At returns the element at the given indices.
func (v View) At(indices ...int) float32 {
	return v.data[flatIndex("View.At", v.shape, v.strides, v.offset, indices)]
}

// Slice restricts dimension dim to [start, start+length).
//
// Example:
//
//	kqv := scratch.View()           // [B, S, 3*D]
//	q := kqv.Slice(2, dim, dim)     // [B, S, D]
func (v View) Slice(dim, start, length int) View {
	if dim < 0 || dim >= len(v.shape) {
		Failf("Slice", "dimension %d out of range for shape %v", dim, v.shape)
	}
	if start < 0 || length <= 0 || start+length > v.shape[dim] {
		Failf("Slice", "range [%d, %d) out of bounds for dimension %d of shape %v", start, start+length, dim, v.shape)
	}
	return View{
		data:    v.data,
		offset:  v.offset + start*v.strides[dim],
		shape:   v.shape.WithDim(dim, length),
		strides: v.strides,
	}
}

// Select fixes dimension dim at index and drops it from the shape.
func (v View) Select(dim, index int) View {
	if dim < 0 || dim >= len(v.shape) {
		Failf("Select", "dimension %d out of range for shape %v", dim, v.shape)
	}
	if index < 0 || index >= v.shape[dim] {
		Failf("Select", "index %d out of bounds for dimension %d of shape %v", index, dim, v.shape)
	}
	shape := make(Shape, 0, len(v.shape)-1)
	strides := make([]int, 0, len(v.strides)-1)
	shape = append(shape, v.shape[:dim]...)
	shape = append(shape, v.shape[dim+1:]...)
	strides = append(strides, v.strides[:dim]...)
	strides = append(strides, v.strides[dim+1:]...)
	return View{
		data:    v.data,
		offset:  v.offset + index*v.strides[dim],
		shape:   shape,
		strides: strides,
	}
}

// Transpose swaps the last two dimensions by swapping their strides.
func (v View) Transpose() View {
	n := len(v.shape)
	if n < 2 {
		Failf("Transpose", "need at least 2 dimensions, got shape %v", v.shape)
	}
	shape := v.shape.Clone()
	strides := append([]int(nil), v.strides...)
	shape[n-1], shape[n-2] = shape[n-2], shape[n-1]
	strides[n-1], strides[n-2] = strides[n-2], strides[n-1]
	return View{data: v.data, offset: v.offset, shape: shape, strides: strides}
}

// Values copies the projected elements into a new row-major slice.
func (v View) Values() []float32 {
	out := make([]float32, 0, v.shape.NumElements())
	v.eachRow(func(r Row) {
		for i := 0; i < r.n; i++ {
			out = append(out, r.At(i))
		}
	})
	return out
}

// String returns a human-readable representation of the view.
func (v View) String() string {
	return fmt.Sprintf("View[float32]%v", v.shape)
}

// evalInto makes a View usable as an Expr: assigning it copies.
func (v View) evalInto(dst MutView) {
	dst.v.eachRowPair(v, func(d, s Row) {
		for i := 0; i < d.n; i++ {
			d.Set(i, s.At(i))
		}
	})
}

// MutView is an assignable, non-owning projection of tensor storage.
type MutView struct {
	v View
}

// View returns the read-only projection of the same storage.
func (m MutView) View() View {
	return m.v
}

// Shape returns the projected shape.
func (m MutView) Shape() Shape {
	return m.v.shape
}

// Dim returns the size of dimension d.
func (m MutView) Dim(d int) int {
	return m.v.shape[d]
}

// Slice restricts dimension dim to [start, start+length).
func (m MutView) Slice(dim, start, length int) MutView {
	return MutView{v: m.v.Slice(dim, start, length)}
}

// Select fixes dimension dim at index and drops it from the shape.
func (m MutView) Select(dim, index int) MutView {
	return MutView{v: m.v.Select(dim, index)}
}

// Assign evaluates e directly into the projected storage.
//
// The expression's shape must equal the view's shape. MatMul operands must
// not alias the destination; element-wise operands may.
func (m MutView) Assign(e Expr) {
	if !e.Shape().Equal(m.v.shape) {
		Failf("Assign", "cannot assign %v into %v", e.Shape(), m.v.shape)
	}
	e.evalInto(m)
}

// Row is one last-axis row of a projection: n elements spaced inc apart.
type Row struct {
	data []float32
	n    int
	inc  int
}

// Len returns the number of elements in the row.
func (r Row) Len() int {
	return r.n
}

// At returns element i of the row.
func (r Row) At(i int) float32 {
	return r.data[i*r.inc]
}

// Set stores x at element i of the row.
func (r Row) Set(i int, x float32) {
	r.data[i*r.inc] = x
}

// rowCount returns the number of last-axis rows.
func (v View) rowCount() int {
	if len(v.shape) == 0 {
		return 1
	}
	return v.shape[:len(v.shape)-1].NumElements()
}

// row returns last-axis row k in row-major order.
func (v View) row(k int) Row {
	rank := len(v.shape)
	if rank == 0 {
		return Row{data: v.data[v.offset:], n: 1, inc: 1}
	}
	off := v.offset
	for i := rank - 2; i >= 0; i-- {
		off += (k % v.shape[i]) * v.strides[i]
		k /= v.shape[i]
	}
	return Row{data: v.data[off:], n: v.shape[rank-1], inc: v.strides[rank-1]}
}

// eachRow calls fn for every last-axis row in row-major order.
func (v View) eachRow(fn func(r Row)) {
	for k, n := 0, v.rowCount(); k < n; k++ {
		fn(v.row(k))
	}
}

// eachRowPair walks two equally shaped projections row by row.
func (v View) eachRowPair(other View, fn func(a, b Row)) {
	for k, n := 0, v.rowCount(); k < n; k++ {
		fn(v.row(k), other.row(k))
	}
}
