package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print vocabulary statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			codec, err := loadCodec(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "vocabulary: %s\n", cfg.Paths.VocabPath); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "ranks: %d\n", codec.VocabularySize()); err != nil {
				return err
			}

			specials := codec.SpecialTokens()
			if _, err := fmt.Fprintf(out, "special tokens: %d\n", len(specials)); err != nil {
				return err
			}

			literals := make([]string, 0, len(specials))
			for literal := range specials {
				literals = append(literals, literal)
			}
			sort.Slice(literals, func(i, j int) bool {
				return specials[literals[i]] < specials[literals[j]]
			})

			for _, literal := range literals {
				if _, err := fmt.Fprintf(out, "  %6d %s\n", specials[literal], literal); err != nil {
					return err
				}
			}

			return nil
		},
	}

	return cmd
}
