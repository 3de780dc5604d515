package vocabfile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-bpe/tokenizer"
	"github.com/klauspost/compress/gzip"
)

// minimalRanks covers all 256 byte values in one block.
func minimalRanks(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("! 0")
	for i := 0; i <= 0xFF; i++ {
		b.WriteByte(' ')
		b.WriteString(base64.StdEncoding.EncodeToString([]byte{byte(i)}))
	}
	return b.String()
}

func definitionJSON(t *testing.T) []byte {
	t.Helper()

	data, err := json.Marshal(map[string]any{
		"name":            "test_base",
		"pat_str":         `.`,
		"special_tokens":  map[string]int{"<|endoftext|>": 100257},
		"mergeable_ranks": minimalRanks(t),
	})
	if err != nil {
		t.Fatalf("marshal definition: %v", err)
	}
	return data
}

// ---------------------------------------------------------------------------
// Read / Parse
// ---------------------------------------------------------------------------

func TestRead_PlainJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := os.WriteFile(path, definitionJSON(t), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	def, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if def.Name != "test_base" {
		t.Errorf("Name = %q, want %q", def.Name, "test_base")
	}
	if def.SpecialTokens["<|endoftext|>"] != 100257 {
		t.Errorf("special tokens = %v", def.SpecialTokens)
	}

	// The loaded definition must build a working codec.
	if _, err := tokenizer.New(def); err != nil {
		t.Fatalf("New from loaded definition: %v", err)
	}
}

func TestRead_GzipCompressed(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(definitionJSON(t)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.json.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	def, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if def.Name != "test_base" {
		t.Errorf("Name = %q, want %q", def.Name, "test_base")
	}
}

func TestRead_EmptyPath(t *testing.T) {
	_, err := Read("")
	if !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("err = %v, want ErrEmptyPath", err)
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := Read("/nonexistent/vocab.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid JSON", "{not json"},
		{"missing pattern", `{"name":"x","mergeable_ranks":"! 0 YQ=="}`},
		{"missing ranks", `{"name":"x","pat_str":"."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), "test"); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestParse_TruncatedGzip(t *testing.T) {
	if _, err := Parse([]byte{0x1F, 0x8B, 0x00}, "test"); err == nil {
		t.Fatal("expected error for truncated gzip data")
	}
}
