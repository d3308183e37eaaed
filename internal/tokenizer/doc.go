// Package tokenizer turns source lines into fixed-length token index tensors.
//
// The vocabulary is byte level: three sentinel tokens followed by one token
// per byte value.
//
//	0       Begin   (start of line)
//	1       End     (end of line)
//	2       Unknown (padding)
//	3..258  byte b is token b+3
//
// Example usage:
//
//	tok := tokenizer.NewByteTokenizer(200)
//
//	// Fixed-width index tensor for the embedding layer
//	indices, err := tok.Tokenize("int a = 2;")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Variable-length token IDs
//	tokens, err := tok.Encode("int a = 2;")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := tok.Decode(tokens)
package tokenizer
