package ingest

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

const (
	TypePlainText = "text/plain"
	TypePDF       = "application/pdf"
)

// File is one uploaded document.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// MediaType resolves the file type from the declared content type, falling
// back to the file extension.
func (f File) MediaType() string {
	if t, _, err := mime.ParseMediaType(f.ContentType); err == nil && t != "" && t != "application/octet-stream" {
		return t
	}
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".txt":
		return TypePlainText
	case ".pdf":
		return TypePDF
	}
	return f.ContentType
}

// ExtractText returns the text of f. ok is false for unsupported types, which
// callers skip rather than treat as failures.
func ExtractText(f File) (text string, ok bool, err error) {
	switch f.MediaType() {
	case TypePlainText:
		return strings.ToValidUTF8(string(f.Data), "�"), true, nil
	case TypePDF:
		text, err := extractPDF(f.Data)
		if err != nil {
			return "", true, err
		}
		return text, true, nil
	default:
		return "", false, nil
	}
}

func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("could not parse PDF file, it may be corrupted or encrypted: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("could not parse PDF file, it may be corrupted or encrypted: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(b), nil
}
