package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.VocabPath != "vocab/cl100k_base.json" {
		t.Errorf("VocabPath = %q; want %q", cfg.Paths.VocabPath, "vocab/cl100k_base.json")
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":8080")
	}

	if cfg.Server.MaxTextBytes != 1<<20 {
		t.Errorf("Server.MaxTextBytes = %d; want %d", cfg.Server.MaxTextBytes, 1<<20)
	}

	if cfg.Server.RequestTimeoutMS != 60000 {
		t.Errorf("Server.RequestTimeoutMS = %d; want 60000", cfg.Server.RequestTimeoutMS)
	}

	if cfg.Server.ShutdownTimeout != 30 {
		t.Errorf("Server.ShutdownTimeout = %d; want 30", cfg.Server.ShutdownTimeout)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	if cfg.Encode.StrictUTF8 {
		t.Error("Encode.StrictUTF8 should default to false")
	}
}

// --- Load precedence ---

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Paths.VocabPath != "vocab/cl100k_base.json" {
		t.Errorf("VocabPath = %q; want default", cfg.Paths.VocabPath)
	}
}

func TestLoad_FlagOverridesDefault(t *testing.T) {
	binder := newFlagBinder(DefaultConfig())
	if err := binder.fs.Parse([]string{"--paths-vocab-path", "other/vocab.json"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Paths.VocabPath != "other/vocab.json" {
		t.Errorf("VocabPath = %q; want %q", cfg.Paths.VocabPath, "other/vocab.json")
	}
}

func TestLoad_VocabAliasFlag(t *testing.T) {
	binder := newFlagBinder(DefaultConfig())
	if err := binder.fs.Parse([]string{"--vocab", "alias/vocab.json"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Paths.VocabPath != "alias/vocab.json" {
		t.Errorf("VocabPath = %q; want %q", cfg.Paths.VocabPath, "alias/vocab.json")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gobpe.yaml")

	content := "paths:\n  vocab_path: file/vocab.json\nlog_level: debug\nserver:\n  listen_addr: \":9999\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(LoadOptions{ConfigFile: path, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Paths.VocabPath != "file/vocab.json" {
		t.Errorf("VocabPath = %q; want %q", cfg.Paths.VocabPath, "file/vocab.json")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want debug", cfg.LogLevel)
	}
	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q; want :9999", cfg.Server.ListenAddr)
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: "/nonexistent/gobpe.yaml", Defaults: DefaultConfig()})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("GOBPE_LOG_LEVEL", "warn")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want warn", cfg.LogLevel)
	}
}

func TestLoad_RequestTimeoutFlag(t *testing.T) {
	binder := newFlagBinder(DefaultConfig())
	if err := binder.fs.Parse([]string{"--server-request-timeout-ms", "250"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.RequestTimeoutMS != 250 {
		t.Errorf("RequestTimeoutMS = %d; want 250", cfg.Server.RequestTimeoutMS)
	}
}

func TestLoad_AllowedSpecialSlice(t *testing.T) {
	binder := newFlagBinder(DefaultConfig())
	if err := binder.fs.Parse([]string{"--encode-allowed-special", "<|endoftext|>,<|fim_prefix|>"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Encode.AllowedSpecial) != 2 || cfg.Encode.AllowedSpecial[0] != "<|endoftext|>" {
		t.Errorf("AllowedSpecial = %v", cfg.Encode.AllowedSpecial)
	}
}
