// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for building shape-checked layer chains
// and multi-head attention encoders.
//
// Example:
//
//	emb, _ := nn.NewEmbedding(259, 200, 32)
//	enc, _ := nn.NewEncoder(nn.EncoderConfig{
//	    SeqLen: 200, EmbedDim: 32, NumHeads: 4, FFNDim: 64, Blocks: 2, NormEps: 1e-5,
//	})
//	net, err := nn.Assemble(
//	    nn.Then[*tensor.IndexTensor, *tensor.Tensor, *tensor.Tensor](emb, enc),
//	    tensor.Shape{1, 200},
//	)
package nn

import (
	"github.com/born-ml/highlight/internal/nn"
	"github.com/born-ml/highlight/internal/parallel"
	"github.com/born-ml/highlight/internal/tensor"
)

// Errors returned when a network cannot be built.
var (
	ErrShapeMismatch = nn.ErrShapeMismatch
	ErrInvalidConfig = nn.ErrInvalidConfig
)

// Layer is the contract shared by every stage of a network.
type Layer[In, Out tensor.Shaped] = nn.Layer[In, Out]

// TensorLayer is a layer from float tensors to float tensors.
type TensorLayer = nn.TensorLayer

// Pipeline is a layer chain whose shapes were verified at assembly.
type Pipeline[In, Out tensor.Shaped] = nn.Pipeline[In, Out]

// Parameter is a named weight tensor.
type Parameter = nn.Parameter

// ParallelConfig controls concurrent head evaluation.
type ParallelConfig = parallel.Config

// Composition

// Then composes two layers whose types line up.
func Then[A, B, C tensor.Shaped](first Layer[A, B], next Layer[B, C]) Layer[A, C] {
	return nn.Then(first, next)
}

// Assemble checks layer against a sample input shape.
func Assemble[In, Out tensor.Shaped](layer Layer[In, Out], input tensor.Shape) (*Pipeline[In, Out], error) {
	return nn.Assemble(layer, input)
}

// Sequential chains tensor layers.
type Sequential = nn.Sequential

// NewSequential creates a new Sequential container.
func NewSequential(layers ...TensorLayer) *Sequential {
	return nn.NewSequential(layers...)
}

// Residual wraps a shape-preserving layer as y = x + inner(x).
type Residual = nn.Residual

// NewResidual wraps inner with a skip connection.
func NewResidual(inner TensorLayer) *Residual {
	return nn.NewResidual(inner)
}

// Attention

// MultiHeadAttention implements packed K/Q/V self-attention.
type MultiHeadAttention = nn.MultiHeadAttention

// AttentionParams holds the packed [dim, 3*dim] projection.
type AttentionParams = nn.AttentionParams

// Scratch is caller-owned storage reused by one attention call.
type Scratch = nn.Scratch

// NewMultiHeadAttention creates an unbound attention layer.
func NewMultiHeadAttention(seqLen, dim, numHeads int) (*MultiHeadAttention, error) {
	return nn.NewMultiHeadAttention(seqLen, dim, numHeads)
}

// NewAttentionParams allocates a zero projection matrix.
func NewAttentionParams(dim int) *AttentionParams {
	return nn.NewAttentionParams(dim)
}

// Encoder

// Encoder stacks post-norm attention blocks.
type Encoder = nn.Encoder

// EncoderConfig defines the shape of an Encoder.
type EncoderConfig = nn.EncoderConfig

// EncoderParams holds the weights of every encoder block.
type EncoderParams = nn.EncoderParams

// NewEncoder validates cfg and builds an unbound encoder.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	return nn.NewEncoder(cfg)
}

// NewEncoderParams allocates weights for cfg.
func NewEncoderParams(cfg EncoderConfig) *EncoderParams {
	return nn.NewEncoderParams(cfg)
}

// Layers

// Embedding maps token indices to dense vectors.
type Embedding = nn.Embedding

// EmbeddingParams holds the lookup table.
type EmbeddingParams = nn.EmbeddingParams

// NewEmbedding creates an unbound Embedding layer.
func NewEmbedding(vocabSize, seqLen, embedDim int) (*Embedding, error) {
	return nn.NewEmbedding(vocabSize, seqLen, embedDim)
}

// NewEmbeddingParams allocates a zero lookup table.
func NewEmbeddingParams(vocabSize, embedDim int) *EmbeddingParams {
	return nn.NewEmbeddingParams(vocabSize, embedDim)
}

// Linear implements a fully connected layer.
type Linear = nn.Linear

// LinearParams holds a dense layer's weights.
type LinearParams = nn.LinearParams

// NewLinear creates an unbound Linear layer.
func NewLinear(inFeatures, outFeatures int) (*Linear, error) {
	return nn.NewLinear(inFeatures, outFeatures)
}

// NewLinearParams allocates zero weights and bias.
func NewLinearParams(inFeatures, outFeatures int) *LinearParams {
	return nn.NewLinearParams(inFeatures, outFeatures)
}

// LayerNorm normalises the last dimension.
type LayerNorm = nn.LayerNorm

// LayerNormParams holds gamma and beta.
type LayerNormParams = nn.LayerNormParams

// NewLayerNorm creates an unbound LayerNorm layer.
func NewLayerNorm(dim int, epsilon float32) (*LayerNorm, error) {
	return nn.NewLayerNorm(dim, epsilon)
}

// NewLayerNormParams returns gamma = 1, beta = 0.
func NewLayerNormParams(dim int) *LayerNormParams {
	return nn.NewLayerNormParams(dim)
}

// FeedForward is Down(SiLU(Up(x))).
type FeedForward = nn.FeedForward

// NewFeedForward creates an unbound feed-forward sublayer.
func NewFeedForward(embedDim, ffnDim int) (*FeedForward, error) {
	return nn.NewFeedForward(embedDim, ffnDim)
}

// Activations

// ReLU is max(0, x).
type ReLU = nn.ReLU

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// SiLU is x * sigmoid(x).
type SiLU = nn.SiLU

// NewSiLU creates a new SiLU activation layer.
func NewSiLU() *SiLU {
	return nn.NewSiLU()
}
