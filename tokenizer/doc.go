// Package tokenizer implements a byte-level Byte-Pair-Encoding codec that
// replays a static, precomputed vocabulary. A Codec is built once from
// three already-parsed inputs — a Unicode-aware segmentation pattern, a
// special-token name→id map, and a compact rank-table string — and is then
// safe for concurrent Encode/Decode calls without coordination: every
// table is immutable after New returns.
//
// Encoding splits text around allowed special-token literals, segments the
// remaining plain text with the pattern, and byte-pair merges each piece
// against the rank table. Because the rank table is required to contain a
// single-byte entry for every byte value, encoding is total: any input
// byte can always fall back to its single-byte token.
package tokenizer
