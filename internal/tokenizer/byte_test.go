package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteTokenizer_Tokenize(t *testing.T) {
	tok := NewByteTokenizer(8)

	indices, err := tok.Tokenize("ab")
	require.NoError(t, err)
	assert.Equal(t, []int{8}, []int(indices.Shape()))
	assert.Equal(t, VocabSize, indices.Width())
	assert.Equal(t, []uint32{0, 'a' + 3, 'b' + 3, 1, 2, 2, 2, 2}, indices.Data())
}

func TestByteTokenizer_Layout(t *testing.T) {
	tok := NewByteTokenizer(200)
	line := "int a = 2;"

	indices, err := tok.Tokenize(line)
	require.NoError(t, err)

	data := indices.Data()
	require.Len(t, data, 200)
	assert.Equal(t, uint32(Begin), data[0])
	for i := 0; i < len(line); i++ {
		assert.Equal(t, uint32(line[i])+3, data[i+1], "position %d", i+1)
	}
	assert.Equal(t, uint32(End), data[len(line)+1])
	for i := len(line) + 2; i < len(data); i++ {
		assert.Equal(t, uint32(Unknown), data[i], "position %d", i)
	}
}

func TestByteTokenizer_Lengths(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{name: "empty line", length: 0},
		{name: "one byte", length: 1},
		{name: "exactly full", length: 198},
		{name: "one too many", length: 199, wantErr: true},
		{name: "far too long", length: 500, wantErr: true},
	}

	tok := NewByteTokenizer(200)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indices, err := tok.Tokenize(strings.Repeat("x", tt.length))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrLineTooLong)
				assert.Nil(t, indices)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint32(End), indices.At(tt.length+1))
		})
	}
}

func TestByteTokenizer_Truncate(t *testing.T) {
	tok := &ByteTokenizer{MaxLineLen: 6, Truncate: true}

	indices, err := tok.Tokenize("abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 'a' + 3, 'b' + 3, 'c' + 3, 'd' + 3, 1}, indices.Data())

	tokens, err := tok.Encode("abcdefgh")
	require.NoError(t, err)
	text, err := tok.Decode(tokens)
	require.NoError(t, err)
	assert.Equal(t, "abcd", text)
}

func TestByteTokenizer_HighBytes(t *testing.T) {
	tok := NewByteTokenizer(10)

	indices, err := tok.Tokenize("\x00\xff")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), indices.At(1))
	assert.Equal(t, uint32(258), indices.At(2))
}

func TestByteTokenizer_Roundtrip(t *testing.T) {
	tok := NewByteTokenizer(64)

	tests := []struct {
		name string
		text string
	}{
		{name: "code", text: "for (int i = 0; i < n; ++i) {"},
		{name: "unicode", text: "s := \"世界\""},
		{name: "control bytes", text: "\t\x00\x01\x02\r"},
		{name: "empty string", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := tok.Encode(tt.text)
			require.NoError(t, err)
			assert.Len(t, tokens, len(tt.text)+2)
			assert.Equal(t, tok.BosToken(), tokens[0])
			assert.Equal(t, tok.EosToken(), tokens[len(tokens)-1])

			decoded, err := tok.Decode(tokens)
			require.NoError(t, err)
			assert.Equal(t, tt.text, decoded)
		})
	}
}

func TestByteTokenizer_DecodeOutOfRange(t *testing.T) {
	tok := NewByteTokenizer(16)

	_, err := tok.Decode([]int32{0, 259})
	assert.Error(t, err)
	_, err = tok.Decode([]int32{-1})
	assert.Error(t, err)
}

func TestByteTokenizer_SpecialTokens(t *testing.T) {
	var tok Tokenizer = NewByteTokenizer(16)

	assert.Equal(t, 259, tok.VocabSize())
	assert.Equal(t, int32(0), tok.BosToken())
	assert.Equal(t, int32(1), tok.EosToken())
	assert.Equal(t, int32(2), tok.PadToken())
	assert.Equal(t, int32(2), tok.UnkToken())
	for id := int32(0); id < 3; id++ {
		assert.True(t, tok.IsSpecialToken(id), "token %d", id)
	}
	assert.False(t, tok.IsSpecialToken(3))
	assert.False(t, tok.IsSpecialToken(-1))
}

func TestByteTokenizer_TokenizeBatch(t *testing.T) {
	tok := NewByteTokenizer(6)

	batch, err := tok.TokenizeBatch([]string{"a", "bcd"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 6}, []int(batch.Shape()))
	assert.Equal(t, uint32('b'+3), batch.At(1, 1))
	assert.Equal(t, uint32(End), batch.At(0, 2))

	_, err = tok.TokenizeBatch([]string{"a", "toolong"})
	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.Contains(t, err.Error(), "line 1")

	_, err = tok.TokenizeBatch(nil)
	assert.Error(t, err)
}

func TestByteTokenizer_TooShortTensor(t *testing.T) {
	_, err := NewByteTokenizer(2).Tokenize("")
	assert.Error(t, err)
}
