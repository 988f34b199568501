// Package extract implements the document-extraction capability: page-level
// plain text and page-level structured tables from a statement document.
// The differential tester injects this package into the interpreter, so
// synthesized artifacts call extract.Open without declaring imports.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page holds one page's text plus any tables recognized on it. A table is a
// slice of rows, each row a slice of column values.
type Page struct {
	Text   string
	Tables [][][]string
}

// Document is an opened statement document.
type Document struct {
	Path  string
	Pages []Page
}

// Open reads a statement document. PDF files are read page by page via the
// pdf library; anything else is treated as plain text with form-feed page
// breaks. Tables are recognized as contiguous runs of lines that split into
// two or more columns.
func Open(path string) (*Document, error) {
	var texts []string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		texts, err = pdfPageTexts(path)
	} else {
		texts, err = textPageTexts(path)
	}
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path}
	for _, text := range texts {
		doc.Pages = append(doc.Pages, Page{
			Text:   text,
			Tables: detectTables(text),
		})
	}
	return doc, nil
}

// Text concatenates all page text, mirroring the usual "join pages" pattern
// in callers that only want the document excerpt.
func (d *Document) Text() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}

func textPageTexts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	pages := strings.Split(string(data), "\f")
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = strings.TrimRight(p, "\n")
	}
	return texts, nil
}

func pdfPageTexts(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var texts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return texts, nil
}

// columnSplit separates fields on runs of two or more spaces, or tabs.
var columnSplit = regexp.MustCompile(`\s{2,}|\t+`)

// detectTables finds contiguous runs of multi-column lines. A run of at
// least two such lines (header plus one data row) counts as a table.
func detectTables(text string) [][][]string {
	var tables [][][]string
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		fields := columnSplit.Split(trimmed, -1)
		if len(fields) >= 2 {
			current = append(current, fields)
		} else {
			flush()
		}
	}
	flush()
	return tables
}
