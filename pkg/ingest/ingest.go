// Package ingest extracts text from corpus documents and splits it into
// overlapping chunks for retrieval.
package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

var log = internal.GetLogger()

// ExtractText reads a source document and returns its full text. PDF pages
// are concatenated in document order. Plain text and markdown files are read
// whole.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", models.NewDocumentReadError(path, err)
		}
		return string(data), nil
	default:
		return "", models.NewDocumentReadError(
			path,
			fmt.Errorf("unsupported document format %q", filepath.Ext(path)),
		)
	}
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", models.NewDocumentReadError(path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warnf("failed to extract text from page %d of %s: %v", pageNum, path, err)
			continue
		}
		buf.WriteString(text)
	}

	return buf.String(), nil
}
