package nn

import (
	"math/rand"

	"github.com/born-ml/highlight/internal/tensor"
)

// EmbeddingParams holds the lookup table [VocabSize, EmbedDim].
type EmbeddingParams struct {
	Weight *tensor.Tensor
}

// NewEmbeddingParams allocates a zero table.
func NewEmbeddingParams(vocabSize, embedDim int) *EmbeddingParams {
	return &EmbeddingParams{Weight: tensor.Zeros(tensor.Shape{vocabSize, embedDim})}
}

// Init draws the table from N(0, 1).
func (p *EmbeddingParams) Init(rng *rand.Rand) {
	Normal(p.Weight, 1, rng)
}

// Parameters returns the table.
func (p *EmbeddingParams) Parameters() []*Parameter {
	return []*Parameter{NewParameter("weight", p.Weight)}
}

// Embedding is a lookup table that maps token indices to dense vectors.
//
// Architecture:
//   - Weight: [VocabSize, EmbedDim], bound from an EmbeddingParams
//   - Forward: indices [batch, SeqLen] -> embeddings [batch, SeqLen, EmbedDim]
//
// Each output row is a copy of the table row named by the index; there is no
// interpolation.
type Embedding struct {
	VocabSize int
	SeqLen    int
	EmbedDim  int
	params    *EmbeddingParams
}

// NewEmbedding creates an unbound Embedding layer.
func NewEmbedding(vocabSize, seqLen, embedDim int) (*Embedding, error) {
	if vocabSize <= 0 || seqLen <= 0 || embedDim <= 0 {
		return nil, configErrorf("Embedding", "vocab=%d seq=%d dim=%d must all be > 0", vocabSize, seqLen, embedDim)
	}
	return &Embedding{VocabSize: vocabSize, SeqLen: seqLen, EmbedDim: embedDim}, nil
}

// Bind references the lookup table. Panics if its shape is wrong.
func (e *Embedding) Bind(params *EmbeddingParams) {
	bindable("Embedding.Bind", params)
	expectParam("Embedding.Bind", "weight", params.Weight, tensor.Shape{e.VocabSize, e.EmbedDim})
	e.params = params
}

// OutputShape maps [batch, SeqLen] to [batch, SeqLen, EmbedDim].
func (e *Embedding) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if err := expectTrailing("Embedding", input, e.SeqLen); err != nil {
		return nil, err
	}
	return tensor.Shape{input[0], e.SeqLen, e.EmbedDim}, nil
}

// Forward performs the lookup.
//
// Panics if the layer is unbound, the indices were produced for a different
// vocabulary, or an index is out of range.
func (e *Embedding) Forward(indices *tensor.IndexTensor) *tensor.Tensor {
	p := bound("Embedding.Forward", e.params)
	if indices.Width() != e.VocabSize {
		tensor.Failf("Embedding.Forward", "indices are over a vocabulary of %d, want %d", indices.Width(), e.VocabSize)
	}
	shape, err := e.OutputShape(indices.Shape())
	if err != nil {
		tensor.Failf("Embedding.Forward", "%v", err)
	}

	out := tensor.Zeros(shape)
	table := p.Weight.Data()
	dst := out.Data()
	for i, idx := range indices.Data() {
		if int(idx) >= e.VocabSize {
			tensor.Failf("Embedding.Forward", "index %d at position %d out of range [0, %d)", idx, i, e.VocabSize)
		}
		row := int(idx) * e.EmbedDim
		copy(dst[i*e.EmbedDim:(i+1)*e.EmbedDim], table[row:row+e.EmbedDim])
	}
	return out
}
