package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	chunks := ChunkText("abcdefghij", "f.txt", 4)

	assert.Equal(t, []model.Chunk{
		{ID: "f.txt-0", Content: "abcd", SourceFile: "f.txt"},
		{ID: "f.txt-1", Content: "efgh", SourceFile: "f.txt"},
		{ID: "f.txt-2", Content: "ij", SourceFile: "f.txt"},
	}, chunks)
}

func TestChunkText_Empty(t *testing.T) {
	assert.Empty(t, ChunkText("", "empty.txt", 4))
}

func TestChunkText_CountsCharactersNotBytes(t *testing.T) {
	chunks := ChunkText("ééééé", "u.txt", 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, "éé", chunks[0].Content)
	assert.Equal(t, "é", chunks[2].Content)
}

func TestFile_MediaType(t *testing.T) {
	tests := []struct {
		name string
		file File
		want string
	}{
		{"declared", File{Name: "a.bin", ContentType: "text/plain; charset=utf-8"}, TypePlainText},
		{"txt extension", File{Name: "notes.TXT"}, TypePlainText},
		{"pdf extension", File{Name: "r.pdf", ContentType: "application/octet-stream"}, TypePDF},
		{"unknown", File{Name: "a.docx", ContentType: "application/msword"}, "application/msword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.file.MediaType())
		})
	}
}

func TestExtractText(t *testing.T) {
	text, ok, err := ExtractText(File{Name: "a.txt", Data: []byte("hello")})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", text)

	_, ok, err = ExtractText(File{Name: "a.docx"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ExtractText(File{Name: "broken.pdf", Data: []byte("not a pdf")})
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	logf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, format)
	}

	files := []File{
		{Name: "a.txt", ContentType: "text/plain", Data: []byte("abcdef")},
		{Name: "skip.docx", ContentType: "application/msword", Data: []byte("x")},
		{Name: "b.txt", ContentType: "text/plain", Data: []byte("xyz")},
	}
	chunks, err := Batch(context.Background(), files, 4, logf)
	require.NoError(t, err)

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"a.txt-0", "a.txt-1", "b.txt-0"}, ids)
	assert.Contains(t, strings.Join(lines, "\n"), "Skipping unsupported file type")
}

func TestBatch_FailureFailsWholeBatch(t *testing.T) {
	files := []File{
		{Name: "a.txt", ContentType: "text/plain", Data: []byte("abcdef")},
		{Name: "bad.pdf", ContentType: "application/pdf", Data: []byte("garbage")},
	}
	chunks, err := Batch(context.Background(), files, 4, nil)

	require.Error(t, err)
	assert.Nil(t, chunks)
	var appErr *errx.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "failed to process file bad.pdf", appErr.Message)
}
