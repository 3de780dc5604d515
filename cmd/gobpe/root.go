package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/example/go-bpe/internal/config"
	"github.com/example/go-bpe/internal/server"
	"github.com/example/go-bpe/internal/vocabfile"
	"github.com/example/go-bpe/tokenizer"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
	cfgLoaded bool
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "gobpe",
		Short: "Byte-level BPE tokenizer command line",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			cfgLoaded = true
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newEncodeCmd())
	cmd.AddCommand(newDecodeCmd())
	cmd.AddCommand(newCountCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if !cfgLoaded {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

// loadCodec reads the configured vocabulary file and builds the codec.
func loadCodec(cfg config.Config) (*tokenizer.Codec, error) {
	def, err := vocabfile.Read(cfg.Paths.VocabPath)
	if err != nil {
		return nil, err
	}

	var opts []tokenizer.Option
	if cfg.Encode.StrictUTF8 {
		opts = append(opts, tokenizer.WithStrictUTF8())
	}

	codec, err := tokenizer.New(def, opts...)
	if err != nil {
		return nil, fmt.Errorf("build codec from %q: %w", cfg.Paths.VocabPath, err)
	}
	return codec, nil
}
