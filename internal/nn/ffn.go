package nn

import (
	"math/rand"

	"github.com/born-ml/highlight/internal/tensor"
)

// FeedForwardParams holds the expansion and projection weights.
type FeedForwardParams struct {
	Up   LinearParams // [ffn_dim, embed_dim]
	Down LinearParams // [embed_dim, ffn_dim]
}

// NewFeedForwardParams allocates zero weights.
func NewFeedForwardParams(embedDim, ffnDim int) *FeedForwardParams {
	return &FeedForwardParams{
		Up:   *NewLinearParams(embedDim, ffnDim),
		Down: *NewLinearParams(ffnDim, embedDim),
	}
}

// Init applies Xavier initialization to both projections.
func (p *FeedForwardParams) Init(rng *rand.Rand) {
	p.Up.Init(rng)
	p.Down.Init(rng)
}

// Parameters returns up.* and down.* parameters.
func (p *FeedForwardParams) Parameters() []*Parameter {
	params := prefixed("up", p.Up.Parameters())
	return append(params, prefixed("down", p.Down.Parameters())...)
}

// FeedForward implements the position-wise feed-forward sublayer.
//
// Architecture:
//
//	FFN(x) = Down(SiLU(Up(x)))
//
// Where:
//   - Up: [embed_dim -> ffn_dim] (expansion)
//   - SiLU: x * sigmoid(x)
//   - Down: [ffn_dim -> embed_dim] (projection back)
type FeedForward struct {
	Up   *Linear
	Down *Linear
	seq  *Sequential
}

// NewFeedForward creates an unbound feed-forward sublayer.
func NewFeedForward(embedDim, ffnDim int) (*FeedForward, error) {
	up, err := NewLinear(embedDim, ffnDim)
	if err != nil {
		return nil, err
	}
	down, err := NewLinear(ffnDim, embedDim)
	if err != nil {
		return nil, err
	}
	return &FeedForward{
		Up:   up,
		Down: down,
		seq:  NewSequential(up, NewSiLU(), down),
	}, nil
}

// Bind propagates to both projections.
func (f *FeedForward) Bind(params *FeedForwardParams) {
	bindable("FeedForward.Bind", params)
	f.Up.Bind(&params.Up)
	f.Down.Bind(&params.Down)
}

// OutputShape maps [..., embed_dim] to [..., embed_dim].
func (f *FeedForward) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	return f.seq.OutputShape(input)
}

// Forward computes Down(SiLU(Up(x))).
func (f *FeedForward) Forward(input *tensor.Tensor) *tensor.Tensor {
	return f.seq.Forward(input)
}
