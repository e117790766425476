// Package loader reads raw documents from the filesystem. Text files are
// taken verbatim; PDF files are reduced to their plain text.
package loader

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// FileLoader walks a directory tree and loads every file whose name matches
// the glob pattern. The pattern is matched against the file base name, so
// "**/*.txt" and "*.txt" behave the same.
type FileLoader struct{}

func New() *FileLoader { return &FileLoader{} }

func (l *FileLoader) Load(dir, pattern string) ([]domain.Document, error) {
	base := path.Base(filepath.ToSlash(pattern))
	if base == "" || base == "." {
		base = "*"
	}

	var documents []domain.Document
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := path.Match(base, d.Name())
		if err != nil {
			return fmt.Errorf("%w: bad glob pattern %q: %v", domain.ErrConfiguration, pattern, err)
		}
		if !ok {
			return nil
		}
		content, err := readFile(p)
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		if strings.TrimSpace(content) == "" {
			return nil
		}
		documents = append(documents, domain.Document{
			Content:  content,
			Metadata: domain.Metadata{Source: p},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func readFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDFText(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
