package tensor

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// matrix is a 2-D strided window into tensor storage.
type matrix struct {
	data       []float32
	off        int
	rows, cols int
	rs, cs     int // row and column strides
}

// matrixOf returns the matrix formed by the last two dimensions of v at the
// given leading (batch) index. Rank 2 views ignore batch.
func matrixOf(v View, batch int) matrix {
	n := len(v.shape)
	off := v.offset
	if n == 3 {
		off += batch * v.strides[0]
	}
	return matrix{
		data: v.data,
		off:  off,
		rows: v.shape[n-2],
		cols: v.shape[n-1],
		rs:   v.strides[n-2],
		cs:   v.strides[n-1],
	}
}

// general maps m onto a BLAS general matrix. A transposed window is expressed
// as its untransposed storage plus blas.Trans. ok is false when neither
// stride is unit.
func (m matrix) general() (g blas32.General, t blas.Transpose, ok bool) {
	switch {
	case m.cs == 1 && (m.rs >= m.cols || m.rows == 1):
		return blas32.General{Rows: m.rows, Cols: m.cols, Stride: max(m.rs, m.cols), Data: m.data[m.off:]}, blas.NoTrans, true
	case m.rs == 1 && (m.cs >= m.rows || m.cols == 1):
		return blas32.General{Rows: m.cols, Cols: m.rows, Stride: max(m.cs, m.rows), Data: m.data[m.off:]}, blas.Trans, true
	default:
		return blas32.General{}, blas.NoTrans, false
	}
}

// gemm computes c = a x b. Shapes are validated by the caller.
func gemm(a, b, c matrix) {
	ga, ta, okA := a.general()
	gb, tb, okB := b.general()
	gc, tc, okC := c.general()
	if okA && okB && okC && tc == blas.NoTrans {
		blas32.Gemm(ta, tb, 1, ga, gb, 0, gc)
		return
	}
	gemmStrided(a, b, c)
}

// gemmStrided is the reference loop used for layouts BLAS cannot address.
func gemmStrided(a, b, c matrix) {
	for i := 0; i < c.rows; i++ {
		for j := 0; j < c.cols; j++ {
			var sum float32
			for k := 0; k < a.cols; k++ {
				sum += a.data[a.off+i*a.rs+k*a.cs] * b.data[b.off+k*b.rs+j*b.cs]
			}
			c.data[c.off+i*c.rs+j*c.cs] = sum
		}
	}
}
