package model

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/highlight/internal/bio"
	"github.com/born-ml/highlight/internal/nn"
	"gopkg.in/yaml.v3"
)

// Hyperparams fixes every dimension of the highlighting network.
type Hyperparams struct {
	// MaxLineLen is the token sequence length, sentinels included.
	MaxLineLen int `yaml:"max_line_len"`

	// EmbeddingDim is the width of token embeddings and of the encoder.
	EmbeddingDim int `yaml:"embedding_dim"`

	// Heads is the number of attention heads; it must divide EmbeddingDim.
	Heads int `yaml:"heads"`

	// FFNDim is the encoder feed-forward hidden size. 0 disables the
	// feed-forward sublayer.
	FFNDim int `yaml:"ffn_dim"`

	// Blocks is the number of encoder blocks.
	Blocks int `yaml:"blocks"`

	// NormEps is the LayerNorm epsilon.
	NormEps float32 `yaml:"norm_eps"`

	// TokenTypes names the span types the classifier distinguishes. The
	// classifier emits 1+2*len(TokenTypes) BIO scores per position.
	TokenTypes []string `yaml:"token_types"`
}

// DefaultHyperparams returns the configuration of the demo highlighter.
func DefaultHyperparams() Hyperparams {
	return Hyperparams{
		MaxLineLen:   200,
		EmbeddingDim: 32,
		Heads:        4,
		FFNDim:       64,
		Blocks:       2,
		NormEps:      1e-5,
		TokenTypes:   []string{"keyword", "identifier", "number", "string", "comment", "operator", "punctuation"},
	}
}

// Validate rejects configurations that cannot be assembled.
func (h Hyperparams) Validate() error {
	switch {
	case h.MaxLineLen < 3:
		return fmt.Errorf("hyperparams: %w: max_line_len must be >= 3, got %d", nn.ErrInvalidConfig, h.MaxLineLen)
	case h.EmbeddingDim <= 0:
		return fmt.Errorf("hyperparams: %w: embedding_dim must be > 0, got %d", nn.ErrInvalidConfig, h.EmbeddingDim)
	case h.Heads <= 0 || h.EmbeddingDim%h.Heads != 0:
		return fmt.Errorf("hyperparams: %w: heads (%d) must divide embedding_dim (%d)", nn.ErrInvalidConfig, h.Heads, h.EmbeddingDim)
	case h.FFNDim < 0:
		return fmt.Errorf("hyperparams: %w: ffn_dim must be >= 0, got %d", nn.ErrInvalidConfig, h.FFNDim)
	case h.Blocks <= 0:
		return fmt.Errorf("hyperparams: %w: blocks must be > 0, got %d", nn.ErrInvalidConfig, h.Blocks)
	case h.NormEps <= 0:
		return fmt.Errorf("hyperparams: %w: norm_eps must be > 0, got %g", nn.ErrInvalidConfig, h.NormEps)
	case len(h.TokenTypes) == 0:
		return fmt.Errorf("hyperparams: %w: token_types must not be empty", nn.ErrInvalidConfig)
	}
	if _, err := bio.NewLabelSpace(h.TokenTypes...); err != nil {
		return fmt.Errorf("hyperparams: %w: %w", nn.ErrInvalidConfig, err)
	}
	return nil
}

// Labels returns the classifier width, 1+2*len(TokenTypes).
func (h Hyperparams) Labels() int {
	return 1 + 2*len(h.TokenTypes)
}

// ReadHyperparams decodes YAML from r over DefaultHyperparams and validates
// the result. Unknown keys are rejected.
func ReadHyperparams(r io.Reader) (Hyperparams, error) {
	h := DefaultHyperparams()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return Hyperparams{}, fmt.Errorf("hyperparams: decode: %w", err)
	}
	if err := h.Validate(); err != nil {
		return Hyperparams{}, err
	}
	return h, nil
}

// LoadHyperparams reads a YAML configuration file.
func LoadHyperparams(path string) (Hyperparams, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hyperparams{}, fmt.Errorf("hyperparams: %w", err)
	}
	defer f.Close()

	h, err := ReadHyperparams(f)
	if err != nil {
		return Hyperparams{}, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// WriteYAML encodes h as YAML.
func (h Hyperparams) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("hyperparams: encode: %w", err)
	}
	return enc.Close()
}
