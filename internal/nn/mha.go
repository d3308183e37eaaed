package nn

import (
	"errors"
	"math"
	"math/rand"

	"github.com/born-ml/highlight/internal/parallel"
	"github.com/born-ml/highlight/internal/tensor"
)

// AttentionParams holds the packed projection matrix [dim, 3*dim].
//
// Column blocks are packed in K, Q, V order:
//
//	[0, dim)       key projection
//	[dim, 2*dim)   query projection
//	[2*dim, 3*dim) value projection
type AttentionParams struct {
	KQV *tensor.Tensor
}

// NewAttentionParams allocates a zero projection matrix.
func NewAttentionParams(dim int) *AttentionParams {
	return &AttentionParams{KQV: tensor.Zeros(tensor.Shape{dim, 3 * dim})}
}

// Init applies Xavier initialization to the projection.
func (p *AttentionParams) Init(rng *rand.Rand) {
	dim := p.KQV.Dim(0)
	Xavier(p.KQV, dim, dim, rng)
}

// Parameters returns the packed projection.
func (p *AttentionParams) Parameters() []*Parameter {
	return []*Parameter{NewParameter("kqv", p.KQV)}
}

// Scratch is caller-owned storage reused by one attention call.
//
// KQV receives the combined projection [batch, seq, 3*dim]. Softmax holds
// attention weights [slots, batch, seq, seq]; with one slot it is overwritten
// by every head, with one slot per head the heads may run concurrently and
// every head's weights survive the call.
//
// A scratch must not be shared by concurrent calls. Either tensor may have a
// larger batch dimension than the input.
type Scratch struct {
	KQV     *tensor.Tensor
	Softmax *tensor.Tensor
}

// NewScratch allocates scratch for inputs of up to batch sequences.
func NewScratch(batch, seqLen, dim, slots int) *Scratch {
	return &Scratch{
		KQV:     tensor.Zeros(tensor.Shape{batch, seqLen, 3 * dim}),
		Softmax: tensor.Zeros(tensor.Shape{slots, batch, seqLen, seqLen}),
	}
}

// MultiHeadAttention implements packed multi-head self-attention.
//
// Algorithm, for input X [batch, seq, dim] and H heads of width d = dim/H:
//
//	KQV = X x W                                   (into scratch)
//	K, Q, V = KQV[..., 0:dim], [dim:2dim], [2dim:3dim]
//	for h in 0..H:
//	    S = softmax((Q_h x K_h^T) / sqrt(d))      (into a softmax slot)
//	    out[..., h*d:(h+1)*d] = S x V_h
//
// Heads write disjoint column ranges of the output, which is the head
// concatenation. There is no output projection.
//
// Example:
//
//	mha, err := nn.NewMultiHeadAttention(200, 32, 4)
//	mha.Bind(params)
//	out := mha.Forward(x) // [batch, 200, 32] -> [batch, 200, 32]
type MultiHeadAttention struct {
	SeqLen   int
	Dim      int
	NumHeads int
	HeadDim  int
	params   *AttentionParams
	heads    parallel.Config
}

// NewMultiHeadAttention creates an unbound attention layer.
//
// Returns an error wrapping ErrInvalidConfig if dim is not divisible by
// numHeads or any size is not positive.
func NewMultiHeadAttention(seqLen, dim, numHeads int) (*MultiHeadAttention, error) {
	if seqLen <= 0 || dim <= 0 || numHeads <= 0 {
		return nil, configErrorf("MultiHeadAttention", "seq=%d dim=%d heads=%d must all be > 0", seqLen, dim, numHeads)
	}
	if dim%numHeads != 0 {
		return nil, configErrorf("MultiHeadAttention", "dim (%d) must be divisible by heads (%d)", dim, numHeads)
	}
	return &MultiHeadAttention{
		SeqLen:   seqLen,
		Dim:      dim,
		NumHeads: numHeads,
		HeadDim:  dim / numHeads,
		heads:    parallel.Sequential(),
	}, nil
}

// WithParallelHeads lets Forward evaluate heads concurrently under cfg.
// Results are identical to sequential evaluation.
func (m *MultiHeadAttention) WithParallelHeads(cfg parallel.Config) *MultiHeadAttention {
	m.heads = cfg
	return m
}

// Bind references the projection matrix. Panics if its shape is wrong.
func (m *MultiHeadAttention) Bind(params *AttentionParams) {
	bindable("MultiHeadAttention.Bind", params)
	expectParam("MultiHeadAttention.Bind", "kqv", params.KQV, tensor.Shape{m.Dim, 3 * m.Dim})
	m.params = params
}

// OutputShape maps [batch, SeqLen, Dim] to itself.
func (m *MultiHeadAttention) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if err := expectTrailing("MultiHeadAttention", input, m.SeqLen, m.Dim); err != nil {
		return nil, err
	}
	return input, nil
}

// HeadColumns returns the feature range [start, start+length) owned by head h.
func (m *MultiHeadAttention) HeadColumns(h int) (start, length int) {
	return h * m.HeadDim, m.HeadDim
}

// NewScratch allocates scratch sized for this layer. It has one softmax slot
// per head when heads run in parallel and a single shared slot otherwise.
func (m *MultiHeadAttention) NewScratch(batch int) *Scratch {
	slots := 1
	if m.heads.Parallel(m.NumHeads) {
		slots = m.NumHeads
	}
	return NewScratch(batch, m.SeqLen, m.Dim, slots)
}

// Forward allocates the output and a scratch and runs Process.
func (m *MultiHeadAttention) Forward(input *tensor.Tensor) *tensor.Tensor {
	return m.ForwardWithScratch(input, m.NewScratch(input.Dim(0)))
}

// ForwardWithScratch runs Process with caller-owned scratch.
func (m *MultiHeadAttention) ForwardWithScratch(input *tensor.Tensor, scratch *Scratch) *tensor.Tensor {
	out := tensor.Zeros(input.Shape())
	m.Process(input.View(), out.Mut(), scratch)
	return out
}

// AttentionWeights runs the layer and returns every head's attention
// weights as [heads, batch, seq, seq].
func (m *MultiHeadAttention) AttentionWeights(input *tensor.Tensor) *tensor.Tensor {
	scratch := NewScratch(input.Dim(0), m.SeqLen, m.Dim, m.NumHeads)
	m.ForwardWithScratch(input, scratch)
	return scratch.Softmax
}

// Project computes the combined projection into kqv and returns the K, Q and
// V projections, each [batch, seq, dim].
func (m *MultiHeadAttention) Project(input tensor.View, kqv tensor.MutView) (k, q, v tensor.View) {
	p := bound("MultiHeadAttention.Project", m.params)
	kqv.Assign(tensor.MatMul(input, p.KQV.View()))
	packed := kqv.View()
	k = packed.Slice(2, 0, m.Dim)
	q = packed.Slice(2, m.Dim, m.Dim)
	v = packed.Slice(2, 2*m.Dim, m.Dim)
	return k, q, v
}

// Process writes attention over input into output using scratch.
//
// Panics with a contract violation if the layer is unbound, input or output
// are not [batch, SeqLen, Dim], or scratch is too small for the batch.
func (m *MultiHeadAttention) Process(input tensor.View, output tensor.MutView, scratch *Scratch) {
	const op = "MultiHeadAttention.Process"
	bound(op, m.params)
	shape := input.Shape()
	if err := expectTrailing("MultiHeadAttention", shape, m.SeqLen, m.Dim); err != nil {
		tensor.Failf(op, "%v", err)
	}
	if !output.Shape().Equal(shape) {
		tensor.Failf(op, "output %v does not match input %v", output.Shape(), shape)
	}
	batch := shape[0]
	m.checkScratch(op, scratch, batch)

	k, q, v := m.Project(input, scratch.KQV.Mut().Slice(0, 0, batch))

	slots := scratch.Softmax.Dim(0)
	cfg := m.heads
	if slots < m.NumHeads {
		cfg = parallel.Sequential()
	}
	scale := float32(math.Sqrt(float64(m.HeadDim)))

	err := parallel.For(m.NumHeads, func(h int) error {
		slot := 0
		if slots >= m.NumHeads {
			slot = h
		}
		start, width := m.HeadColumns(h)
		headK := k.Slice(2, start, width)
		headQ := q.Slice(2, start, width)
		headV := v.Slice(2, start, width)

		smax := scratch.Softmax.Mut().Select(0, slot).Slice(0, 0, batch)
		smax.Assign(tensor.Softmax(tensor.DivScalar(tensor.MatMul(headQ, headK.Transpose()), scale)))
		output.Slice(2, start, width).Assign(tensor.MatMul(smax.View(), headV))
		return nil
	}, cfg)
	if err != nil {
		var pe *parallel.PanicError
		if errors.As(err, &pe) {
			panic(pe.Value)
		}
		panic(err)
	}
}

func (m *MultiHeadAttention) checkScratch(op string, s *Scratch, batch int) {
	if s == nil || s.KQV == nil || s.Softmax == nil {
		tensor.Failf(op, "scratch not provided")
	}
	kqv := s.KQV.Shape()
	if len(kqv) != 3 || kqv[0] < batch || kqv[1] != m.SeqLen || kqv[2] != 3*m.Dim {
		tensor.Failf(op, "kqv scratch %v too small for [%d x %d x %d]", kqv, batch, m.SeqLen, 3*m.Dim)
	}
	smax := s.Softmax.Shape()
	if len(smax) != 4 || smax[1] < batch || smax[2] != m.SeqLen || smax[3] != m.SeqLen {
		tensor.Failf(op, "softmax scratch %v too small for [slots x %d x %d x %d]", smax, batch, m.SeqLen, m.SeqLen)
	}
}
