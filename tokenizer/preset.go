package tokenizer

// Cl100kBase returns the cl100k_base encoding definition for the given
// compact rank table. Pattern and special-token ids match the reference
// encoding; the rank table itself ships separately because of its size.
func Cl100kBase(ranks string) Definition {
	return Definition{
		Name:    "cl100k_base",
		Pattern: `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`,
		SpecialTokens: map[string]int{
			"<|endoftext|>":   100257,
			"<|fim_prefix|>":  100258,
			"<|fim_middle|>":  100259,
			"<|fim_suffix|>":  100260,
			"<|endofprompt|>": 100276,
		},
		Ranks: ranks,
	}
}
