package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig  `mapstructure:"paths"`
	Encode   EncodeConfig `mapstructure:"encode"`
	Server   ServerConfig `mapstructure:"server"`
	LogLevel string       `mapstructure:"log_level"`
}

type PathsConfig struct {
	VocabPath string `mapstructure:"vocab_path"`
}

type EncodeConfig struct {
	AllowedSpecial    []string `mapstructure:"allowed_special"`
	DisallowedSpecial []string `mapstructure:"disallowed_special"`
	StrictUTF8        bool     `mapstructure:"strict_utf8"`
}

type ServerConfig struct {
	ListenAddr       string `mapstructure:"listen_addr"`
	MaxTextBytes     int    `mapstructure:"max_text_bytes"`
	RequestTimeoutMS int    `mapstructure:"request_timeout_ms"`
	ShutdownTimeout  int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			VocabPath: "vocab/cl100k_base.json",
		},
		Encode: EncodeConfig{
			AllowedSpecial:    nil,
			DisallowedSpecial: nil,
			StrictUTF8:        false,
		},
		Server: ServerConfig{
			ListenAddr:       ":8080",
			MaxTextBytes:     1 << 20,
			RequestTimeoutMS: 60000,
			ShutdownTimeout:  30,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-vocab-path", defaults.Paths.VocabPath, "Path to vocabulary definition file (JSON, optionally gzip)")
	fs.String("vocab", defaults.Paths.VocabPath, "Path to vocabulary definition file (alias for --paths-vocab-path)")
	fs.StringSlice("encode-allowed-special", defaults.Encode.AllowedSpecial, "Special-token literals allowed in input ('all' for every registered literal)")
	fs.StringSlice("encode-disallowed-special", defaults.Encode.DisallowedSpecial, "Special-token literals that fail the encode call when present")
	fs.Bool("encode-strict-utf8", defaults.Encode.StrictUTF8, "Fail decode on invalid UTF-8 instead of substituting U+FFFD")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("server-request-timeout-ms", defaults.Server.RequestTimeoutMS, "Per-request codec deadline in milliseconds (0 disables)")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("GOBPE")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("gobpe")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.vocab_path", c.Paths.VocabPath)
	v.SetDefault("encode.allowed_special", c.Encode.AllowedSpecial)
	v.SetDefault("encode.disallowed_special", c.Encode.DisallowedSpecial)
	v.SetDefault("encode.strict_utf8", c.Encode.StrictUTF8)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout_ms", c.Server.RequestTimeoutMS)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("paths.vocab_path", "paths-vocab-path")
	v.RegisterAlias("paths.vocab_path", "vocab")
	v.RegisterAlias("encode.allowed_special", "encode-allowed-special")
	v.RegisterAlias("encode.disallowed_special", "encode-disallowed-special")
	v.RegisterAlias("encode.strict_utf8", "encode-strict-utf8")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.max_text_bytes", "server-max-text-bytes")
	v.RegisterAlias("server.request_timeout_ms", "server-request-timeout-ms")
	v.RegisterAlias("server.shutdown_timeout", "server-shutdown-timeout")
	v.RegisterAlias("log_level", "log-level")
}
