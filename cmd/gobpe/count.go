package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCountCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count tokens without printing them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			codec, err := loadCodec(cfg)
			if err != nil {
				return err
			}

			input, err := readInputText(text, os.Stdin)
			if err != nil {
				return err
			}

			n, err := codec.Count(input, cfg.Encode.AllowedSpecial, cfg.Encode.DisallowedSpecial)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to count (reads stdin when omitted)")

	return cmd
}
