package tokenizer

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// rankBlockSentinel opens a block in the compact rank-table format. It is
// not part of the standard base64 alphabet, so a sentinel field can never
// be mistaken for an encoded byte sequence.
const rankBlockSentinel = "!"

// vocabulary holds the two immutable tables built from a compact rank
// table: rank → byte sequence and byte sequence → rank. Both are built
// completely during parseRankTable and never mutated afterwards.
type vocabulary struct {
	// tokens[rank] is the byte sequence for rank; nil marks a rank that no
	// block assigned (possible when blocks are non-contiguous).
	tokens [][]byte
	// ranks is the reverse index keyed by the raw bytes as a string.
	ranks map[string]int
	count int
}

// parseRankTable decompresses the compact rank-table encoding.
//
// The input is a sequence of whitespace-separated fields. A "!" field
// opens a block: the next field is a non-negative decimal starting rank,
// and every following field up to the next "!" (or end of input) is a
// standard-base64 byte sequence assigned consecutive ranks from that
// start. Multiple blocks may appear to express non-contiguous rank
// regions.
func parseRankTable(compact string) (*vocabulary, error) {
	fields := strings.Fields(compact)
	if len(fields) == 0 {
		return nil, loadErrorf("empty rank table")
	}

	v := &vocabulary{
		ranks: make(map[string]int, len(fields)),
	}

	i := 0
	for i < len(fields) {
		if fields[i] != rankBlockSentinel {
			return nil, loadErrorf("field %d: expected block sentinel %q, got %q", i, rankBlockSentinel, fields[i])
		}
		if i+1 >= len(fields) {
			return nil, loadErrorf("field %d: block sentinel without starting rank", i)
		}

		rank, err := strconv.Atoi(fields[i+1])
		if err != nil || rank < 0 {
			return nil, loadErrorf("field %d: invalid block starting rank %q", i+1, fields[i+1])
		}

		i += 2
		for i < len(fields) && fields[i] != rankBlockSentinel {
			seq, err := base64.StdEncoding.DecodeString(fields[i])
			if err != nil {
				return nil, loadErrorf("field %d: invalid base64 %q: %v", i, fields[i], err)
			}
			if err := v.assign(rank, seq); err != nil {
				return nil, err
			}
			rank++
			i++
		}
	}

	if err := v.checkByteCoverage(); err != nil {
		return nil, err
	}

	return v, nil
}

// assign records one (rank, byte sequence) pair, rejecting duplicate
// sequences and ranks assigned twice so the table stays a bijection.
func (v *vocabulary) assign(rank int, seq []byte) error {
	if len(seq) == 0 {
		return loadErrorf("rank %d: empty byte sequence", rank)
	}
	if prev, ok := v.ranks[string(seq)]; ok {
		return loadErrorf("rank %d: byte sequence already present at rank %d", rank, prev)
	}

	for rank >= len(v.tokens) {
		v.tokens = append(v.tokens, nil)
	}
	if v.tokens[rank] != nil {
		return loadErrorf("rank %d assigned twice", rank)
	}

	v.tokens[rank] = seq
	v.ranks[string(seq)] = rank
	v.count++

	return nil
}

// checkByteCoverage enforces totality: every byte value 0–255 must be
// present as a single-byte entry so any input byte has a fallback token.
// Exactly-one follows from the duplicate-sequence check in assign.
func (v *vocabulary) checkByteCoverage() error {
	for b := 0; b <= 0xFF; b++ {
		if _, ok := v.ranks[string([]byte{byte(b)})]; !ok {
			return loadErrorf("no single-byte entry for byte 0x%02X", b)
		}
	}
	return nil
}

// lookup returns the byte sequence for rank id, or nil when id is outside
// the table or falls in an unassigned rank hole.
func (v *vocabulary) lookup(id int) []byte {
	if id < 0 || id >= len(v.tokens) {
		return nil
	}
	return v.tokens[id]
}
