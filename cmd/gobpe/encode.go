package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var text string
	var idsPerLine bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode text to token ids",
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

			ids, err := codec.Encode(input, cfg.Encode.AllowedSpecial, cfg.Encode.DisallowedSpecial)
			if err != nil {
				return err
			}

			return writeIDs(cmd.OutOrStdout(), ids, idsPerLine)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to encode (reads stdin when omitted)")
	cmd.Flags().BoolVar(&idsPerLine, "ids-per-line", false, "Print one token id per line")

	return cmd
}

// readInputText returns the --text flag value, or the whole stdin stream
// when the flag is empty.
func readInputText(flagText string, stdin io.Reader) (string, error) {
	if flagText != "" {
		return flagText, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func writeIDs(w io.Writer, ids []int, perLine bool) error {
	if perLine {
		for _, id := range ids {
			if _, err := fmt.Fprintln(w, id); err != nil {
				return err
			}
		}
		return nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
