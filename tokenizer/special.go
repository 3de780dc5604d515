package tokenizer

import (
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// specialRegistry holds the special-token maps and the compiled matcher
// for their literal occurrences. Immutable after newSpecialRegistry.
type specialRegistry struct {
	ids   map[string]int // literal → id
	bytes map[int][]byte // id → raw bytes of the literal

	// matcher is the alternation of all escaped literals in ascending-id
	// order; nil when no special tokens are registered. Matching is
	// leftmost-first, so overlapping literals resolve to the earliest
	// registered alternative, exactly as a single canonical alternation
	// would.
	matcher *regexp2.Regexp
}

func newSpecialRegistry(tokens map[string]int, vocab *vocabulary) (*specialRegistry, error) {
	r := &specialRegistry{
		ids:   make(map[string]int, len(tokens)),
		bytes: make(map[int][]byte, len(tokens)),
	}

	for literal, id := range tokens {
		if literal == "" {
			return nil, loadErrorf("special token with id %d has an empty literal", id)
		}
		if prev, ok := r.bytes[id]; ok {
			return nil, loadErrorf("special token id %d claimed by both %q and %q", id, prev, literal)
		}
		if vocab.lookup(id) != nil {
			return nil, loadErrorf("special token %q id %d collides with a vocabulary rank", literal, id)
		}

		r.ids[literal] = id
		r.bytes[id] = []byte(literal)
	}

	if len(r.ids) == 0 {
		return r, nil
	}

	// The input map carries no order, so ascending id stands in for
	// registration order when building the alternation.
	literals := make([]string, 0, len(r.ids))
	for literal := range r.ids {
		literals = append(literals, literal)
	}
	sort.Slice(literals, func(i, j int) bool {
		return r.ids[literals[i]] < r.ids[literals[j]]
	})

	escaped := make([]string, len(literals))
	for i, literal := range literals {
		escaped[i] = regexp2.Escape(literal)
	}

	matcher, err := regexp2.Compile(strings.Join(escaped, "|"), regexp2.None)
	if err != nil {
		return nil, loadErrorf("compile special-token matcher: %v", err)
	}
	r.matcher = matcher

	return r, nil
}

// resolveSets expands the allowed/disallowed arguments of Encode against
// the registered name set. All in allowed means every name. A nil
// disallowed (or one containing All) means every name not explicitly
// allowed; a non-nil empty slice means explicitly nothing.
func (r *specialRegistry) resolveSets(allowed, disallowed []string) (map[string]struct{}, map[string]struct{}) {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		if name == All {
			for literal := range r.ids {
				allowedSet[literal] = struct{}{}
			}
			continue
		}
		allowedSet[name] = struct{}{}
	}

	disallowedSet := make(map[string]struct{}, len(disallowed))
	expandAll := disallowed == nil
	for _, name := range disallowed {
		if name == All {
			expandAll = true
			continue
		}
		disallowedSet[name] = struct{}{}
	}
	if expandAll {
		for literal := range r.ids {
			if _, ok := allowedSet[literal]; !ok {
				disallowedSet[literal] = struct{}{}
			}
		}
	}

	return allowedSet, disallowedSet
}
