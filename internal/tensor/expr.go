package tensor

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// Expr is a deferred tensor computation.
//
// An Expr has a shape derived from its operands when it is built, and is only
// evaluated when assigned into a MutView (or a Tensor). Evaluation writes the
// result straight into the destination storage.
//
// Example:
//
//	smax.Assign(tensor.Softmax(tensor.DivScalar(tensor.MatMul(q, k.Transpose()), scale)))
type Expr interface {
	Shape() Shape
	evalInto(dst MutView)
}

type matMulExpr struct {
	a, b  View
	shape Shape
}

// MatMul multiplies the last two dimensions of a and b.
//
// Supported operand ranks:
//   - [M, K] x [K, N] -> [M, N]
//   - [B, M, K] x [K, N] -> [B, M, N] (b shared across the batch)
//   - [B, M, K] x [B, K, N] -> [B, M, N]
//
// Panics with a contract violation on any other combination.
func MatMul(a, b View) Expr {
	var shape Shape
	switch {
	case a.Rank() == 2 && b.Rank() == 2 && a.Dim(1) == b.Dim(0):
		shape = Shape{a.Dim(0), b.Dim(1)}
	case a.Rank() == 3 && b.Rank() == 2 && a.Dim(2) == b.Dim(0):
		shape = Shape{a.Dim(0), a.Dim(1), b.Dim(1)}
	case a.Rank() == 3 && b.Rank() == 3 && a.Dim(0) == b.Dim(0) && a.Dim(2) == b.Dim(1):
		shape = Shape{a.Dim(0), a.Dim(1), b.Dim(2)}
	default:
		Failf("MatMul", "incompatible operands %v x %v", a.Shape(), b.Shape())
	}
	return matMulExpr{a: a, b: b, shape: shape}
}

func (e matMulExpr) Shape() Shape {
	return e.shape
}

func (e matMulExpr) evalInto(dst MutView) {
	if len(e.shape) == 2 {
		gemm(matrixOf(e.a, 0), matrixOf(e.b, 0), matrixOf(dst.v, 0))
		return
	}
	for i := 0; i < e.shape[0]; i++ {
		b := matrixOf(e.b, 0)
		if e.b.Rank() == 3 {
			b = matrixOf(e.b, i)
		}
		gemm(matrixOf(e.a, i), b, matrixOf(dst.v, i))
	}
}

type divScalarExpr struct {
	inner  Expr
	scalar float32
}

// DivScalar divides every element of e by s. The shape is unchanged.
func DivScalar(e Expr, s float32) Expr {
	if s == 0 {
		Failf("DivScalar", "division by zero")
	}
	return divScalarExpr{inner: e, scalar: s}
}

func (e divScalarExpr) Shape() Shape {
	return e.inner.Shape()
}

func (e divScalarExpr) evalInto(dst MutView) {
	e.inner.evalInto(dst)
	alpha := 1 / e.scalar
	dst.v.eachRow(func(r Row) {
		blas32.Scal(alpha, blas32.Vector{N: r.n, Data: r.data, Inc: r.inc})
	})
}

type rowwiseExpr struct {
	inner Expr
	fn    func(r Row)
}

// Rowwise evaluates e and then calls fn on every last-axis row of the result
// in place.
func Rowwise(e Expr, fn func(r Row)) Expr {
	return rowwiseExpr{inner: e, fn: fn}
}

func (e rowwiseExpr) Shape() Shape {
	return e.inner.Shape()
}

func (e rowwiseExpr) evalInto(dst MutView) {
	e.inner.evalInto(dst)
	dst.v.eachRow(e.fn)
}

// Apply evaluates e and maps fn over every element of the result.
func Apply(e Expr, fn func(x float32) float32) Expr {
	return Rowwise(e, func(r Row) {
		for i := 0; i < r.n; i++ {
			r.Set(i, fn(r.At(i)))
		}
	})
}

// Softmax normalises the last axis of e into a probability distribution.
//
// The row maximum is subtracted before exponentiation so large scores do not
// overflow.
func Softmax(e Expr) Expr {
	return Rowwise(e, softmaxRow)
}

func softmaxRow(r Row) {
	maxVal := r.At(0)
	for i := 1; i < r.n; i++ {
		if x := r.At(i); x > maxVal {
			maxVal = x
		}
	}
	var sum float64
	for i := 0; i < r.n; i++ {
		ex := math.Exp(float64(r.At(i) - maxVal))
		r.Set(i, float32(ex))
		sum += ex
	}
	inv := float32(1 / sum)
	for i := 0; i < r.n; i++ {
		r.Set(i, r.At(i)*inv)
	}
}

type addExpr struct {
	a, b View
}

// Add sums two equally shaped projections element-wise. The destination may
// be one of the operands.
func Add(a, b View) Expr {
	if !a.Shape().Equal(b.Shape()) {
		Failf("Add", "shape mismatch %v + %v", a.Shape(), b.Shape())
	}
	return addExpr{a: a, b: b}
}

func (e addExpr) Shape() Shape {
	return e.a.shape
}

func (e addExpr) evalInto(dst MutView) {
	for k, n := 0, dst.v.rowCount(); k < n; k++ {
		d, x, y := dst.v.row(k), e.a.row(k), e.b.row(k)
		for i := 0; i < d.n; i++ {
			d.Set(i, x.At(i)+y.At(i))
		}
	}
}
