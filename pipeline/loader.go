package pipeline

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/folio"
)

// Ext is the extension of the statement text files.
const Ext = ".txt"

// hintSep separates the broker hint from the rest of a file name, as in
// "ubs--2025-05.txt".
const hintSep = "--"

// Load reads the statements found at path: a single file, or every Ext file
// under a directory, in lexical order of their relative path.
func Load(path string) ([]folio.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		doc, err := ReadFile(path, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		return []folio.RawDocument{doc}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), Ext) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)

	docs := make([]folio.RawDocument, 0, len(files))
	for _, p := range files {
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return nil, fmt.Errorf("could not determine relative path for %q: %w", p, err)
		}
		doc, err := ReadFile(p, filepath.ToSlash(rel))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadFiles reads the given files, in the given order.
func LoadFiles(paths ...string) ([]folio.RawDocument, error) {
	docs := make([]folio.RawDocument, 0, len(paths))
	for _, p := range paths {
		doc, err := ReadFile(p, filepath.ToSlash(p))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ReadFile reads one statement file, identified by source in the report.
func ReadFile(path, source string) (folio.RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return folio.RawDocument{}, fmt.Errorf("could not open statement %q: %w", path, err)
	}
	defer f.Close()
	doc, err := Read(f, source)
	if err != nil {
		return folio.RawDocument{}, fmt.Errorf("could not read statement %q: %w", path, err)
	}
	return doc, nil
}

// Read reads the text of a statement, pages separated by form feeds as
// written by pdftotext. The broker hint is taken from the source name.
func Read(r io.Reader, source string) (folio.RawDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return folio.RawDocument{}, err
	}
	pages := strings.Split(string(data), "\f")
	// pdftotext ends every page, the last one included, with a form feed.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return folio.RawDocument{Source: source, BrokerHint: Hint(source), Pages: pages}, nil
}

// Hint returns the broker hint of a file name, "" when there is none.
func Hint(name string) string {
	base := filepath.Base(filepath.FromSlash(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if h, _, ok := strings.Cut(base, hintSep); ok {
		return h
	}
	return ""
}
