// Package vocabfile reads vocabulary definition files into a
// tokenizer.Definition. The file format is the transport concern the core
// deliberately excludes: a JSON document carrying the segmentation
// pattern, the special-token map, and the compact rank table, optionally
// gzip-compressed on disk.
package vocabfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/example/go-bpe/tokenizer"
	"github.com/klauspost/compress/gzip"
)

// ErrEmptyPath is returned when Read is called with an empty path.
var ErrEmptyPath = errors.New("vocabulary file path must not be empty")

type definitionFile struct {
	Name          string         `json:"name"`
	Pattern       string         `json:"pat_str"`
	SpecialTokens map[string]int `json:"special_tokens"`
	Ranks         string         `json:"mergeable_ranks"`
}

// Read loads a vocabulary definition from path. Files starting with the
// gzip magic bytes are decompressed transparently; decompression happens
// exactly once, at load time.
func Read(path string) (tokenizer.Definition, error) {
	if path == "" {
		return tokenizer.Definition{}, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tokenizer.Definition{}, fmt.Errorf("read vocabulary file %q: %w", path, err)
	}

	return Parse(data, path)
}

// Parse decodes raw definition bytes. name is used in error messages only.
func Parse(data []byte, name string) (tokenizer.Definition, error) {
	if isGzip(data) {
		var err error
		data, err = gunzip(data)
		if err != nil {
			return tokenizer.Definition{}, fmt.Errorf("decompress vocabulary file %q: %w", name, err)
		}
	}

	var f definitionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return tokenizer.Definition{}, fmt.Errorf("parse vocabulary file %q: %w", name, err)
	}

	if f.Pattern == "" {
		return tokenizer.Definition{}, fmt.Errorf("vocabulary file %q: missing pat_str", name)
	}
	if f.Ranks == "" {
		return tokenizer.Definition{}, fmt.Errorf("vocabulary file %q: missing mergeable_ranks", name)
	}

	return tokenizer.Definition{
		Name:          f.Name,
		Pattern:       f.Pattern,
		SpecialTokens: f.SpecialTokens,
		Ranks:         f.Ranks,
	}, nil
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return io.ReadAll(r)
}
