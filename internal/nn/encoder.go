package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/highlight/internal/parallel"
	"github.com/born-ml/highlight/internal/tensor"
)

// EncoderConfig defines the shape of an Encoder.
type EncoderConfig struct {
	SeqLen   int             // Fixed sequence length
	EmbedDim int             // d_model
	NumHeads int             // Attention heads; must divide EmbedDim
	FFNDim   int             // Feed-forward hidden size; 0 disables the feed-forward sublayer
	Blocks   int             // Number of stacked encoder blocks
	NormEps  float32         // LayerNorm epsilon
	Heads    parallel.Config // Head scheduling for every attention layer
}

// Validate reports impossible encoder configurations.
func (c EncoderConfig) Validate() error {
	switch {
	case c.SeqLen <= 0 || c.EmbedDim <= 0 || c.NumHeads <= 0:
		return configErrorf("Encoder", "seq=%d dim=%d heads=%d must all be > 0", c.SeqLen, c.EmbedDim, c.NumHeads)
	case c.EmbedDim%c.NumHeads != 0:
		return configErrorf("Encoder", "embed dim (%d) must be divisible by heads (%d)", c.EmbedDim, c.NumHeads)
	case c.FFNDim < 0:
		return configErrorf("Encoder", "ffn dim must be >= 0, got %d", c.FFNDim)
	case c.Blocks <= 0:
		return configErrorf("Encoder", "blocks must be > 0, got %d", c.Blocks)
	case c.NormEps <= 0:
		return configErrorf("Encoder", "norm epsilon must be > 0, got %g", c.NormEps)
	}
	return nil
}

// EncoderBlockParams holds the weights of one encoder block.
type EncoderBlockParams struct {
	Attention     AttentionParams
	AttentionNorm LayerNormParams
	FeedForward   *FeedForwardParams // nil when FFNDim == 0
	OutputNorm    *LayerNormParams   // nil when FFNDim == 0
}

// EncoderParams holds the weights of every block.
type EncoderParams struct {
	Blocks []EncoderBlockParams
}

// NewEncoderParams allocates zero projections and identity norms for cfg.
func NewEncoderParams(cfg EncoderConfig) *EncoderParams {
	p := &EncoderParams{Blocks: make([]EncoderBlockParams, cfg.Blocks)}
	for i := range p.Blocks {
		b := &p.Blocks[i]
		b.Attention = *NewAttentionParams(cfg.EmbedDim)
		b.AttentionNorm = *NewLayerNormParams(cfg.EmbedDim)
		if cfg.FFNDim > 0 {
			b.FeedForward = NewFeedForwardParams(cfg.EmbedDim, cfg.FFNDim)
			b.OutputNorm = NewLayerNormParams(cfg.EmbedDim)
		}
	}
	return p
}

// Init draws random projections and resets the norms.
func (p *EncoderParams) Init(rng *rand.Rand) {
	for i := range p.Blocks {
		b := &p.Blocks[i]
		b.Attention.Init(rng)
		b.AttentionNorm.Init()
		if b.FeedForward != nil {
			b.FeedForward.Init(rng)
			b.OutputNorm.Init()
		}
	}
}

// Parameters returns every block parameter as blocks.<i>.<sublayer>.<name>.
func (p *EncoderParams) Parameters() []*Parameter {
	var params []*Parameter
	for i := range p.Blocks {
		b := &p.Blocks[i]
		prefix := fmt.Sprintf("blocks.%d", i)
		params = append(params, prefixed(prefix+".attention", b.Attention.Parameters())...)
		params = append(params, prefixed(prefix+".attention_norm", b.AttentionNorm.Parameters())...)
		if b.FeedForward != nil {
			params = append(params, prefixed(prefix+".ffn", b.FeedForward.Parameters())...)
			params = append(params, prefixed(prefix+".output_norm", b.OutputNorm.Parameters())...)
		}
	}
	return params
}

// EncoderBlock is one post-norm encoder block:
//
//	x -> MHA -> + -> LayerNorm -> FFN -> + -> LayerNorm -> output
//	 |_________|               |________|
//	 (residual)                (residual)
type EncoderBlock struct {
	Attention     *MultiHeadAttention
	AttentionNorm *LayerNorm
	FeedForward   *FeedForward // nil when FFNDim == 0
	OutputNorm    *LayerNorm   // nil when FFNDim == 0
	seq           *Sequential
}

func newEncoderBlock(cfg EncoderConfig) (*EncoderBlock, error) {
	attention, err := NewMultiHeadAttention(cfg.SeqLen, cfg.EmbedDim, cfg.NumHeads)
	if err != nil {
		return nil, err
	}
	attention.WithParallelHeads(cfg.Heads)
	attnNorm, err := NewLayerNorm(cfg.EmbedDim, cfg.NormEps)
	if err != nil {
		return nil, err
	}
	b := &EncoderBlock{
		Attention:     attention,
		AttentionNorm: attnNorm,
		seq:           NewSequential(NewResidual(attention), attnNorm),
	}
	if cfg.FFNDim == 0 {
		return b, nil
	}

	ffn, err := NewFeedForward(cfg.EmbedDim, cfg.FFNDim)
	if err != nil {
		return nil, err
	}
	outNorm, err := NewLayerNorm(cfg.EmbedDim, cfg.NormEps)
	if err != nil {
		return nil, err
	}
	b.FeedForward = ffn
	b.OutputNorm = outNorm
	b.seq.Add(NewResidual(ffn))
	b.seq.Add(outNorm)
	return b, nil
}

// Bind propagates to every sublayer.
func (b *EncoderBlock) Bind(params *EncoderBlockParams) {
	bindable("EncoderBlock.Bind", params)
	b.Attention.Bind(&params.Attention)
	b.AttentionNorm.Bind(&params.AttentionNorm)
	if b.FeedForward == nil {
		return
	}
	if params.FeedForward == nil || params.OutputNorm == nil {
		tensor.Failf("EncoderBlock.Bind", "feed-forward parameters missing")
	}
	b.FeedForward.Bind(params.FeedForward)
	b.OutputNorm.Bind(params.OutputNorm)
}

// OutputShape maps [batch, seq, dim] to itself.
func (b *EncoderBlock) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	return b.seq.OutputShape(input)
}

// Forward runs the block.
func (b *EncoderBlock) Forward(input *tensor.Tensor) *tensor.Tensor {
	return b.seq.Forward(input)
}

// Encoder stacks Blocks encoder blocks.
//
// Example:
//
//	enc, err := nn.NewEncoder(nn.EncoderConfig{
//	    SeqLen: 200, EmbedDim: 32, NumHeads: 4, FFNDim: 64, Blocks: 2, NormEps: 1e-5,
//	})
//	enc.Bind(nn.NewEncoderParams(cfg))
//	out := enc.Forward(embeddings) // [batch, 200, 32] -> [batch, 200, 32]
type Encoder struct {
	Config EncoderConfig
	blocks []*EncoderBlock
	seq    *Sequential
}

// NewEncoder validates cfg and builds an unbound encoder.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Encoder{Config: cfg, seq: NewSequential()}
	for i := 0; i < cfg.Blocks; i++ {
		b, err := newEncoderBlock(cfg)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		e.blocks = append(e.blocks, b)
		e.seq.Add(b)
	}
	return e, nil
}

// Bind propagates every block's parameters. Panics if the block count
// differs from the configuration.
func (e *Encoder) Bind(params *EncoderParams) {
	bindable("Encoder.Bind", params)
	if len(params.Blocks) != len(e.blocks) {
		tensor.Failf("Encoder.Bind", "got parameters for %d blocks, want %d", len(params.Blocks), len(e.blocks))
	}
	for i, b := range e.blocks {
		b.Bind(&params.Blocks[i])
	}
}

// Block returns encoder block i.
func (e *Encoder) Block(i int) *EncoderBlock {
	return e.blocks[i]
}

// OutputShape maps [batch, SeqLen, EmbedDim] to itself.
func (e *Encoder) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	return e.seq.OutputShape(input)
}

// Forward runs every block in order.
func (e *Encoder) Forward(input *tensor.Tensor) *tensor.Tensor {
	return e.seq.Forward(input)
}
