package tokenizer

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// element is one unit of segmenter output: either a plain piece destined
// for byte-pair merging or a special-token id emitted verbatim.
type element struct {
	piece     string
	special   int
	isSpecial bool
}

// segmenter applies the segmentation pattern to plain text and
// coordinates splitting around special-token occurrences. Both compiled
// patterns are stateless and shared across calls.
type segmenter struct {
	pattern *regexp2.Regexp
	special *specialRegistry
}

func newSegmenter(pattern string, special *specialRegistry) (*segmenter, error) {
	if pattern == "" {
		return nil, loadErrorf("empty segmentation pattern")
	}

	compiled, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, loadErrorf("compile segmentation pattern: %v", err)
	}

	return &segmenter{pattern: compiled, special: special}, nil
}

// split produces the ordered interleaving of plain pieces and special-token
// ids for text. The disallowed validation pass runs to completion before
// any output is produced.
//
// regexp2 match indices count runes, so all scanning happens in rune
// space; byte offsets are computed only for error reporting.
func (s *segmenter) split(text string, allowed, disallowed map[string]struct{}) ([]element, error) {
	runes := []rune(text)

	if err := s.validate(runes, disallowed); err != nil {
		return nil, err
	}

	var elems []element

	segStart := 0 // rune index where the current plain segment began
	pos := 0
	for s.special.matcher != nil && pos < len(runes) {
		m, err := s.special.matcher.FindRunesMatchStartingAt(runes, pos)
		if err != nil {
			return nil, fmt.Errorf("special-token matcher: %w", err)
		}
		if m == nil {
			break
		}

		literal := m.String()
		if _, ok := allowed[literal]; !ok {
			// Neither allowed nor disallowed (validation already passed).
			// Not a boundary: resume one rune past the match start and
			// leave the text as ordinary content.
			pos = m.Index + 1
			continue
		}

		if err := s.appendPieces(&elems, runes, segStart, m.Index); err != nil {
			return nil, err
		}
		elems = append(elems, element{special: s.special.ids[literal], isSpecial: true})

		pos = m.Index + m.Length
		segStart = pos
	}

	if err := s.appendPieces(&elems, runes, segStart, len(runes)); err != nil {
		return nil, err
	}

	return elems, nil
}

// validate scans the whole input once with the special-token matcher and
// fails on the first disallowed literal, before any splitting happens.
func (s *segmenter) validate(runes []rune, disallowed map[string]struct{}) error {
	if s.special.matcher == nil || len(disallowed) == 0 {
		return nil
	}

	m, err := s.special.matcher.FindRunesMatch(runes)
	for m != nil {
		literal := m.String()
		if _, bad := disallowed[literal]; bad {
			return &DisallowedSpecialError{Literal: literal, Offset: byteOffset(runes, m.Index)}
		}
		m, err = s.special.matcher.FindNextMatch(m)
	}
	if err != nil {
		return fmt.Errorf("special-token matcher: %w", err)
	}

	return nil
}

// appendPieces splits the plain segment runes[start:end] with the
// segmentation pattern. Matches must be contiguous and exhaustive over
// the segment; any gap is a SegmentationError.
func (s *segmenter) appendPieces(elems *[]element, runes []rune, start, end int) error {
	seg := runes[start:end]

	pos := 0
	for pos < len(seg) {
		m, err := s.pattern.FindRunesMatchStartingAt(seg, pos)
		if err != nil {
			return fmt.Errorf("segmentation pattern: %w", err)
		}
		if m == nil || m.Index != pos || m.Length == 0 {
			return &SegmentationError{Offset: byteOffset(runes, start+pos)}
		}

		*elems = append(*elems, element{piece: m.String()})
		pos += m.Length
	}

	return nil
}

// byteOffset converts a rune index into the equivalent byte offset.
func byteOffset(runes []rune, i int) int {
	return len(string(runes[:i]))
}
