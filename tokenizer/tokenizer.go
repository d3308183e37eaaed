// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer provides the byte-level tokenizer of the highlighter.
//
// Example usage:
//
//	import "github.com/born-ml/highlight/tokenizer"
//
//	tok := tokenizer.NewByteTokenizer(200)
//	indices, err := tok.Tokenize("int a = 2;")
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/born-ml/highlight/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
type Tokenizer = tokenizer.Tokenizer

// ByteTokenizer maps every byte of a line to its own token.
type ByteTokenizer = tokenizer.ByteTokenizer

// Sentinel token IDs.
const (
	Begin   = tokenizer.Begin
	End     = tokenizer.End
	Unknown = tokenizer.Unknown
)

// VocabSize is the sentinels plus one token per byte value.
const VocabSize = tokenizer.VocabSize

// ErrLineTooLong is returned when a line does not fit between the sentinels.
var ErrLineTooLong = tokenizer.ErrLineTooLong

// NewByteTokenizer creates a tokenizer for lines of up to maxLineLen-2 bytes.
func NewByteTokenizer(maxLineLen int) *ByteTokenizer {
	return tokenizer.NewByteTokenizer(maxLineLen)
}
