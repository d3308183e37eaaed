// Package model assembles the highlighting network:
//
//	line -> ByteTokenizer -> Embedding -> Encoder -> Linear -> BIO decoder
//
// The assembled chain is shape checked once in New. A Model is safe for
// concurrent use after Bind; every call allocates its own activations and
// attention scratch.
package model

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/highlight/internal/bio"
	"github.com/born-ml/highlight/internal/nn"
	"github.com/born-ml/highlight/internal/parallel"
	"github.com/born-ml/highlight/internal/tensor"
	"github.com/born-ml/highlight/internal/tokenizer"
)

// Decoding policies accepted by WithDecoder.
const (
	DecoderArgmax  = "argmax"
	DecoderViterbi = "viterbi"
)

// Option configures a Model.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	heads    parallel.Config
	decoder  string
	truncate bool
}

// WithLogger sets the logger for assembly and per-call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithParallelHeads evaluates attention heads concurrently under cfg.
func WithParallelHeads(cfg parallel.Config) Option {
	return func(o *options) {
		o.heads = cfg
	}
}

// WithDecoder selects DecoderArgmax or DecoderViterbi (the default).
func WithDecoder(name string) Option {
	return func(o *options) {
		o.decoder = name
	}
}

// WithTruncate cuts lines that are too long instead of rejecting them.
func WithTruncate(truncate bool) Option {
	return func(o *options) {
		o.truncate = truncate
	}
}

// Model is the assembled highlighting network.
type Model struct {
	hp         Hyperparams
	space      *bio.LabelSpace
	tokenizer  *tokenizer.ByteTokenizer
	embedding  *nn.Embedding
	encoder    *nn.Encoder
	classifier *nn.Linear
	network    *nn.Pipeline[*tensor.IndexTensor, *tensor.Tensor]
	decoder    bio.Decoder
	logger     *slog.Logger
}

// New validates h, builds every layer and checks the chain for a single
// line. The model is unbound: call Bind before any inference call.
func New(h Hyperparams, opts ...Option) (*Model, error) {
	o := &options{
		logger:  slog.New(slog.DiscardHandler),
		heads:   parallel.Sequential(),
		decoder: DecoderViterbi,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	space, err := bio.NewLabelSpace(h.TokenTypes...)
	if err != nil {
		return nil, err
	}

	m := &Model{
		hp:        h,
		space:     space,
		tokenizer: &tokenizer.ByteTokenizer{MaxLineLen: h.MaxLineLen, Truncate: o.truncate},
		logger:    o.logger,
	}
	switch o.decoder {
	case DecoderArgmax:
		m.decoder = bio.ArgmaxDecoder{Space: space}
	case DecoderViterbi:
		m.decoder = bio.ViterbiDecoder{Space: space}
	default:
		return nil, fmt.Errorf("model: %w: unknown decoder %q", nn.ErrInvalidConfig, o.decoder)
	}

	if m.embedding, err = nn.NewEmbedding(tokenizer.VocabSize, h.MaxLineLen, h.EmbeddingDim); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cfg := encoderConfig(h)
	cfg.Heads = o.heads
	if m.encoder, err = nn.NewEncoder(cfg); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if m.classifier, err = nn.NewLinear(h.EmbeddingDim, h.Labels()); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	chain := nn.Then[*tensor.IndexTensor, *tensor.Tensor, *tensor.Tensor](
		m.embedding,
		nn.Then[*tensor.Tensor, *tensor.Tensor, *tensor.Tensor](m.encoder, m.classifier),
	)
	if m.network, err = nn.Assemble(chain, tensor.Shape{1, h.MaxLineLen}); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	m.logger.Debug("model assembled",
		"max_line_len", h.MaxLineLen,
		"embedding_dim", h.EmbeddingDim,
		"heads", h.Heads,
		"blocks", h.Blocks,
		"labels", h.Labels(),
		"decoder", o.decoder,
		"parallel_heads", o.heads.Parallel(h.Heads),
	)
	return m, nil
}

func encoderConfig(h Hyperparams) nn.EncoderConfig {
	return nn.EncoderConfig{
		SeqLen:   h.MaxLineLen,
		EmbedDim: h.EmbeddingDim,
		NumHeads: h.Heads,
		FFNDim:   h.FFNDim,
		Blocks:   h.Blocks,
		NormEps:  h.NormEps,
	}
}

// Bind hands every layer a reference to its weights. p must have been built
// by NewParams for the same hyperparameters and must not change while
// inference calls are in flight.
func (m *Model) Bind(p *Params) {
	if p == nil {
		tensor.Failf("Model.Bind", "nil parameters")
	}
	m.embedding.Bind(&p.Embedding)
	m.encoder.Bind(p.Encoder)
	m.classifier.Bind(&p.Classifier)
	m.logger.Debug("parameters bound", "count", nn.CountParameters(p.Parameters()))
}

// Hyperparams returns the model configuration.
func (m *Model) Hyperparams() Hyperparams {
	return m.hp
}

// LabelSpace returns the BIO labels the classifier scores.
func (m *Model) LabelSpace() *bio.LabelSpace {
	return m.space
}

// Tokenizer returns the model's tokenizer.
func (m *Model) Tokenizer() *tokenizer.ByteTokenizer {
	return m.tokenizer
}

// Encoder returns the encoder, e.g. to inspect attention weights.
func (m *Model) Encoder() *nn.Encoder {
	return m.encoder
}

// Logits runs the network on lines and returns [len(lines), MaxLineLen,
// Labels] classifier scores.
//
// Panics with a contract violation if the model is unbound.
func (m *Model) Logits(lines []string) (*tensor.Tensor, error) {
	indices, err := m.tokenizer.TokenizeBatch(lines)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return m.network.Forward(indices), nil
}

// HighlightBatch labels every token position of every line.
func (m *Model) HighlightBatch(lines []string) ([][]bio.Label, error) {
	logits, err := m.Logits(lines)
	if err != nil {
		return nil, err
	}
	out := make([][]bio.Label, len(lines))
	for i := range lines {
		labels, err := m.decoder.Decode(logits.View().Select(0, i))
		if err != nil {
			return nil, fmt.Errorf("model: line %d: %w", i, err)
		}
		out[i] = labels
	}
	m.logger.Debug("highlighted", "lines", len(lines))
	return out, nil
}

// Highlight returns one label per token position of line: MaxLineLen labels,
// position 0 being the begin sentinel and byte i of line position i+1.
func (m *Model) Highlight(line string) ([]bio.Label, error) {
	labels, err := m.HighlightBatch([]string{line})
	if err != nil {
		return nil, err
	}
	return labels[0], nil
}

// Spans highlights line and groups the labels into typed byte ranges.
func (m *Model) Spans(line string) ([]bio.Span, error) {
	labels, err := m.Highlight(line)
	if err != nil {
		return nil, err
	}
	if len(line) > m.tokenizer.MaxBytes() {
		line = line[:m.tokenizer.MaxBytes()]
	}
	return bio.Spans(m.space, labels, line)
}
