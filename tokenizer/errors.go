package tokenizer

import (
	"errors"
	"fmt"
)

// ErrLoad tags every failure to build a Codec from its definition. Use
// errors.Is(err, ErrLoad) to tell fatal load failures apart from per-call
// errors; no usable Codec exists once New returns an ErrLoad error.
var ErrLoad = errors.New("vocabulary load failed")

// ErrInternalConsistency reports a merged span whose final byte sequence
// has no rank. Unreachable for a vocabulary that passed the load-time
// single-byte coverage check.
var ErrInternalConsistency = errors.New("merged span has no rank in the vocabulary")

// ErrInvalidUTF8 is returned by Decode in strict mode when the
// concatenated token bytes are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("decoded bytes are not valid UTF-8")

// DisallowedSpecialError reports a disallowed special-token literal found
// during the encode validation pass. Encode emits no tokens for the call
// that returns it; the Codec stays usable.
type DisallowedSpecialError struct {
	Literal string
	Offset  int // byte offset of the occurrence within the input text
}

func (e *DisallowedSpecialError) Error() string {
	return fmt.Sprintf("disallowed special token %q at byte offset %d", e.Literal, e.Offset)
}

// SegmentationError reports plain text the segmentation pattern could not
// cover contiguously. It indicates a pattern incompatible with the input,
// not malformed input bytes.
type SegmentationError struct {
	Offset int // byte offset of the first uncovered position
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segmentation pattern left input uncovered at byte offset %d", e.Offset)
}

// UnknownTokenError reports a Decode id that is neither a vocabulary rank
// nor a registered special-token id.
type UnknownTokenError struct {
	ID int
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("unknown token id %d", e.ID)
}

func loadErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLoad, fmt.Sprintf(format, args...))
}
