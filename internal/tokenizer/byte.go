package tokenizer

import (
	"errors"
	"fmt"

	"github.com/born-ml/highlight/internal/tensor"
)

// Sentinel token IDs.
const (
	Begin   int32 = 0
	End     int32 = 1
	Unknown int32 = 2
)

const (
	// SpecialTokenCount is the number of sentinel tokens before the byte range.
	SpecialTokenCount = 3

	// VocabSize is the sentinels plus one token per byte value.
	VocabSize = SpecialTokenCount + 256
)

// ErrLineTooLong is returned when a line does not fit between the sentinels.
var ErrLineTooLong = errors.New("line too long")

// ByteTokenizer maps every byte of a line to its own token.
//
// Tokenize produces MaxLineLen indices: Begin, one token per byte, End, and
// Unknown padding up to MaxLineLen. A line therefore holds at most
// MaxLineLen-2 bytes; longer lines are rejected with ErrLineTooLong, or cut to
// fit when Truncate is set.
type ByteTokenizer struct {
	MaxLineLen int
	Truncate   bool
}

var _ Tokenizer = (*ByteTokenizer)(nil)

// NewByteTokenizer creates a tokenizer for lines of up to maxLineLen-2 bytes.
func NewByteTokenizer(maxLineLen int) *ByteTokenizer {
	return &ByteTokenizer{MaxLineLen: maxLineLen}
}

// MaxBytes returns the largest line that fits between the sentinels.
func (b *ByteTokenizer) MaxBytes() int {
	return b.MaxLineLen - 2
}

// Encode converts text to Begin, byte tokens, End.
func (b *ByteTokenizer) Encode(text string) ([]int32, error) {
	line, err := b.fit(text)
	if err != nil {
		return nil, err
	}
	tokens := make([]int32, 0, len(line)+2)
	tokens = append(tokens, Begin)
	for i := 0; i < len(line); i++ {
		tokens = append(tokens, int32(line[i])+SpecialTokenCount)
	}
	return append(tokens, End), nil
}

// Decode converts byte tokens back to text. Sentinels are skipped.
func (b *ByteTokenizer) Decode(tokens []int32) (string, error) {
	buf := make([]byte, 0, len(tokens))
	for i, tok := range tokens {
		switch {
		case tok < 0 || tok >= VocabSize:
			return "", fmt.Errorf("token %d at position %d out of vocabulary [0, %d)", tok, i, VocabSize)
		case tok < SpecialTokenCount:
			continue
		}
		buf = append(buf, byte(tok-SpecialTokenCount))
	}
	return string(buf), nil
}

// Tokenize converts one line into a [MaxLineLen] index tensor.
func (b *ByteTokenizer) Tokenize(line string) (*tensor.IndexTensor, error) {
	if b.MaxLineLen < 3 {
		return nil, fmt.Errorf("tokenize: max line length must be >= 3, got %d", b.MaxLineLen)
	}
	tokens, err := b.Encode(line)
	if err != nil {
		return nil, err
	}
	out := tensor.NewIndexTensor(tensor.Shape{b.MaxLineLen}, VocabSize)
	data := out.Data()
	for i := range data {
		data[i] = uint32(Unknown)
	}
	for i, tok := range tokens {
		data[i] = uint32(tok)
	}
	return out, nil
}

// TokenizeBatch converts lines into a [len(lines), MaxLineLen] index tensor.
func (b *ByteTokenizer) TokenizeBatch(lines []string) (*tensor.IndexTensor, error) {
	rows := make([]*tensor.IndexTensor, len(lines))
	for i, line := range lines {
		row, err := b.Tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		rows[i] = row
	}
	return tensor.StackIndices(rows...)
}

// VocabSize returns the total vocabulary size.
func (b *ByteTokenizer) VocabSize() int {
	return VocabSize
}

// BosToken returns Begin.
func (b *ByteTokenizer) BosToken() int32 {
	return Begin
}

// EosToken returns End.
func (b *ByteTokenizer) EosToken() int32 {
	return End
}

// PadToken returns Unknown, which fills positions after End.
func (b *ByteTokenizer) PadToken() int32 {
	return Unknown
}

// UnkToken returns Unknown.
func (b *ByteTokenizer) UnkToken() int32 {
	return Unknown
}

// IsSpecialToken reports whether token is one of the sentinels.
func (b *ByteTokenizer) IsSpecialToken(token int32) bool {
	return token >= 0 && token < SpecialTokenCount
}

func (b *ByteTokenizer) fit(line string) (string, error) {
	if len(line) <= b.MaxBytes() {
		return line, nil
	}
	if !b.Truncate {
		return "", fmt.Errorf("%w: %d bytes, at most %d fit", ErrLineTooLong, len(line), b.MaxBytes())
	}
	return line[:max(b.MaxBytes(), 0)], nil
}
