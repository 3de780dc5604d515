package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// All marks every registered special token when it appears in the allowed
// or disallowed slice of Encode or Count.
const All = "all"

// Definition carries the three parsed inputs that define an encoding.
// Parsing the on-disk transport format is the caller's concern.
type Definition struct {
	// Name identifies the encoding. Informational only.
	Name string

	// Pattern is the Unicode-aware segmentation regular expression,
	// compiled once by New.
	Pattern string

	// SpecialTokens maps each reserved literal to its fixed id. Ids must
	// not collide with vocabulary ranks; they need not be contiguous.
	SpecialTokens map[string]int

	// Ranks is the compact rank-table string: whitespace-separated
	// fields where "!" opens a block, the next field is the decimal
	// starting rank, and each following field is a base64 byte sequence
	// assigned consecutive ranks.
	Ranks string
}

// Codec is an immutable byte-level BPE encoder/decoder. All fields are
// read-only after New, so a single Codec serves concurrent callers
// without locking.
type Codec struct {
	vocab      *vocabulary
	special    *specialRegistry
	seg        *segmenter
	strictUTF8 bool
}

// Option configures a Codec during New.
type Option func(*Codec)

// WithStrictUTF8 makes Decode fail with ErrInvalidUTF8 when the
// concatenated token bytes are not valid UTF-8, instead of the default
// best-effort U+FFFD substitution.
func WithStrictUTF8() Option {
	return func(c *Codec) { c.strictUTF8 = true }
}

// New builds a Codec from def. It either returns a fully initialized
// Codec or an ErrLoad error; no partially initialized state is ever
// observable.
func New(def Definition, opts ...Option) (*Codec, error) {
	vocab, err := parseRankTable(def.Ranks)
	if err != nil {
		return nil, err
	}

	special, err := newSpecialRegistry(def.SpecialTokens, vocab)
	if err != nil {
		return nil, err
	}

	seg, err := newSegmenter(def.Pattern, special)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		vocab:   vocab,
		special: special,
		seg:     seg,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Encode converts text into token ids. Special-token literals named in
// allowed are emitted as their reserved ids; a literal in the disallowed
// set anywhere in text fails the whole call with DisallowedSpecialError
// before any token is produced. A nil disallowed defaults to every
// special token not explicitly allowed; pass an empty non-nil slice to
// disallow nothing.
func (c *Codec) Encode(text string, allowed, disallowed []string) ([]int, error) {
	allowedSet, disallowedSet := c.special.resolveSets(allowed, disallowed)

	elems, err := c.seg.split(text, allowedSet, disallowedSet)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(elems))
	for _, el := range elems {
		if el.isSpecial {
			ids = append(ids, el.special)
			continue
		}

		// Whole-piece fast path: most pieces are themselves ranks.
		if rank, ok := c.vocab.ranks[el.piece]; ok {
			ids = append(ids, rank)
			continue
		}

		toks, err := encodePiece([]byte(el.piece), c.vocab.ranks)
		if err != nil {
			return nil, err
		}
		ids = append(ids, toks...)
	}

	return ids, nil
}

// EncodeOrdinary encodes text with no special-token handling at all:
// every registered literal is treated as ordinary text.
func (c *Codec) EncodeOrdinary(text string) ([]int, error) {
	return c.Encode(text, nil, []string{})
}

// Count returns the number of tokens Encode would produce for text.
func (c *Codec) Count(text string, allowed, disallowed []string) (int, error) {
	ids, err := c.Encode(text, allowed, disallowed)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Decode maps token ids back to text. Each id resolves to bytes through
// the vocabulary or the special-token registry; the concatenated buffer
// is decoded as UTF-8 exactly once, since a code point's encoding may
// span adjacent tokens.
func (c *Codec) Decode(ids []int) (string, error) {
	var buf []byte
	for _, id := range ids {
		if b := c.vocab.lookup(id); b != nil {
			buf = append(buf, b...)
			continue
		}
		if b, ok := c.special.bytes[id]; ok {
			buf = append(buf, b...)
			continue
		}
		return "", &UnknownTokenError{ID: id}
	}

	if utf8.Valid(buf) {
		return string(buf), nil
	}
	if c.strictUTF8 {
		return "", ErrInvalidUTF8
	}

	return strings.ToValidUTF8(string(buf), "�"), nil
}

// VocabularySize returns the number of ranks in the vocabulary table,
// excluding special tokens.
func (c *Codec) VocabularySize() int {
	return c.vocab.count
}

// SpecialTokens returns a copy of the registered literal→id map.
func (c *Codec) SpecialTokens() map[string]int {
	out := make(map[string]int, len(c.special.ids))
	for literal, id := range c.special.ids {
		out[literal] = id
	}
	return out
}
