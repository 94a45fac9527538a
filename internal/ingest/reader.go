package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ghostlib/ghost/pkg/types"
)

// textExtensions are read verbatim as UTF-8.
var textExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".text": true,
	".rst":  true,
}

// ReadDocument loads the plain text of a document. Markdown, text and rst
// files are read as-is; PDFs are flattened to plain text. Any other
// extension returns types.ErrUnsupportedFormat.
func ReadDocument(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case textExtensions[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	case ext == ".pdf":
		return readPDF(path)
	default:
		return "", fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, ext)
	}
}

func readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}
