// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/born-ml/highlight/nn"
	"github.com/born-ml/highlight/tensor"
	"github.com/born-ml/highlight/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLayerInterface verifies that concrete types implement Layer.
func TestLayerInterface(t *testing.T) {
	linear, err := nn.NewLinear(4, 4)
	require.NoError(t, err)
	norm, err := nn.NewLayerNorm(4, 1e-5)
	require.NoError(t, err)
	ffn, err := nn.NewFeedForward(4, 8)
	require.NoError(t, err)
	mha, err := nn.NewMultiHeadAttention(3, 4, 2)
	require.NoError(t, err)

	tests := []struct {
		name  string
		layer nn.TensorLayer
	}{
		{name: "Linear", layer: linear},
		{name: "LayerNorm", layer: norm},
		{name: "FeedForward", layer: ffn},
		{name: "MultiHeadAttention", layer: mha},
		{name: "Residual", layer: nn.NewResidual(linear)},
		{name: "Sequential", layer: nn.NewSequential(linear, nn.NewReLU(), nn.NewSiLU())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := tt.layer.OutputShape(tensor.Shape{2, 3, 4})
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{2, 3, 4}, shape)
		})
	}
}

// TestAssembleTokenClassifier builds tokenizer -> embedding -> encoder ->
// classifier through the public API.
func TestAssembleTokenClassifier(t *testing.T) {
	const seqLen, dim = 16, 8
	emb, err := nn.NewEmbedding(tokenizer.VocabSize, seqLen, dim)
	require.NoError(t, err)
	cfg := nn.EncoderConfig{SeqLen: seqLen, EmbedDim: dim, NumHeads: 2, FFNDim: 16, Blocks: 1, NormEps: 1e-5}
	enc, err := nn.NewEncoder(cfg)
	require.NoError(t, err)
	head, err := nn.NewLinear(dim, 3)
	require.NoError(t, err)

	net, err := nn.Assemble(
		nn.Then[*tensor.IndexTensor, *tensor.Tensor, *tensor.Tensor](
			emb,
			nn.Then[*tensor.Tensor, *tensor.Tensor, *tensor.Tensor](enc, head),
		),
		tensor.Shape{1, seqLen},
	)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, seqLen, 3}, net.SampleOutputShape())

	emb.Bind(nn.NewEmbeddingParams(tokenizer.VocabSize, dim))
	enc.Bind(nn.NewEncoderParams(cfg))
	head.Bind(nn.NewLinearParams(dim, 3))

	batch, err := tokenizer.NewByteTokenizer(seqLen).TokenizeBatch([]string{"a = 1", "b"})
	require.NoError(t, err)
	out := net.Forward(batch)
	assert.Equal(t, tensor.Shape{2, seqLen, 3}, out.Shape())
}

func TestAssembleRejectsMismatch(t *testing.T) {
	emb, err := nn.NewEmbedding(tokenizer.VocabSize, 16, 8)
	require.NoError(t, err)
	enc, err := nn.NewEncoder(nn.EncoderConfig{SeqLen: 12, EmbedDim: 8, NumHeads: 2, Blocks: 1, NormEps: 1e-5})
	require.NoError(t, err)

	_, err = nn.Assemble(nn.Then[*tensor.IndexTensor, *tensor.Tensor, *tensor.Tensor](emb, enc), tensor.Shape{1, 16})
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = nn.NewMultiHeadAttention(12, 8, 3)
	assert.ErrorIs(t, err, nn.ErrInvalidConfig)
}

func TestUnboundLayerFailsFast(t *testing.T) {
	mha, err := nn.NewMultiHeadAttention(3, 4, 2)
	require.NoError(t, err)

	err = tensor.Catch(func() { mha.Forward(tensor.Zeros(tensor.Shape{1, 3, 4})) })
	assert.ErrorIs(t, err, tensor.ErrContract)
}
