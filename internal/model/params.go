package model

import (
	"math/rand"

	"github.com/born-ml/highlight/internal/nn"
	"github.com/born-ml/highlight/internal/tokenizer"
)

// Params owns every weight of the network. Layers only reference it.
type Params struct {
	Embedding  nn.EmbeddingParams
	Encoder    *nn.EncoderParams
	Classifier nn.LinearParams
}

// NewParams allocates zero weights and identity layer norms for h.
func NewParams(h Hyperparams) *Params {
	return &Params{
		Embedding:  *nn.NewEmbeddingParams(tokenizer.VocabSize, h.EmbeddingDim),
		Encoder:    nn.NewEncoderParams(encoderConfig(h)),
		Classifier: *nn.NewLinearParams(h.EmbeddingDim, h.Labels()),
	}
}

// InitRandom draws every weight from the layer initializers using seed.
func (p *Params) InitRandom(seed int64) {
	//nolint:gosec // math/rand is appropriate for ML weight initialization
	rng := rand.New(rand.NewSource(seed))
	p.Embedding.Init(rng)
	p.Encoder.Init(rng)
	p.Classifier.Init(rng)
}

// Parameters returns every weight with its qualified name.
func (p *Params) Parameters() []*nn.Parameter {
	var params []*nn.Parameter
	for _, e := range p.Embedding.Parameters() {
		params = append(params, nn.NewParameter("embedding."+e.Name(), e.Tensor()))
	}
	for _, e := range p.Encoder.Parameters() {
		params = append(params, nn.NewParameter("encoder."+e.Name(), e.Tensor()))
	}
	for _, c := range p.Classifier.Parameters() {
		params = append(params, nn.NewParameter("classifier."+c.Name(), c.Tensor()))
	}
	return params
}
