package bank

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDir loads every .yaml, .yml and .xlsx bank file under rootDir.
// Files that fail to parse are skipped with a warning.
func LoadDir(rootDir string) (*Bank, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("loading question bank: %w", err)
	}

	b := &Bank{}
	if !info.IsDir() {
		if err := loadFile(b, rootDir); err != nil {
			return nil, fmt.Errorf("loading question bank: %w", err)
		}
		return b, nil
	}

	err = filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if err := loadFile(b, path); err != nil {
			slog.Warn("skipping invalid bank file", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading question bank: %w", err)
	}

	slog.Info("question bank loaded", "categories", len(b.Categories), "questions", b.QuestionCount())
	return b, nil
}

func loadFile(b *Bank, path string) error {
	var parse func(io.Reader) (*Bank, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parse = ParseYAML
	case ".xlsx":
		parse = ReadXLSX
	default:
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	loaded, err := parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	b.Merge(loaded)
	return nil
}

// ParseYAML decodes a YAML bank document.
func ParseYAML(r io.Reader) (*Bank, error) {
	var b Bank
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return &Bank{}, nil
		}
		return nil, fmt.Errorf("decode yaml bank: %w", err)
	}
	for i, c := range b.Categories {
		if strings.TrimSpace(c.Type) == "" {
			return nil, fmt.Errorf("category %d has no type", i+1)
		}
	}
	return &b, nil
}

// EncodeYAML writes b as a YAML document.
func EncodeYAML(w io.Writer, b *Bank) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode yaml bank: %w", err)
	}
	return enc.Close()
}
