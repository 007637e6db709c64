package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdfBytes(size int) []byte {
	b := []byte("%PDF-1.4\n")
	return append(b, bytes.Repeat([]byte("x"), size)...)
}

func TestDocumentStorage_SavePDF(t *testing.T) {
	root := t.TempDir()
	s, err := NewDocumentStorage(root, 1, nil)
	require.NoError(t, err)

	id := uuid.New()
	doc, err := s.Save(context.Background(), id, "lab report.pdf", bytes.NewReader(pdfBytes(1000)))
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", doc.MIMEType)
	assert.Equal(t, int64(1009), doc.Size)
	assert.True(t, strings.HasPrefix(doc.Path, id.String()+"/lab_report_"))
	assert.True(t, strings.HasSuffix(doc.Path, ".pdf"))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(doc.Path)))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes(1000), data)

	require.NoError(t, s.Delete(context.Background(), doc.Path))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(doc.Path)))
	assert.True(t, os.IsNotExist(err))
}

func TestDocumentStorage_FileNameFromClock(t *testing.T) {
	root := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	s, err := NewDocumentStorage(root, 1, clock)
	require.NoError(t, err)

	id := uuid.New()
	first, err := s.Save(context.Background(), id, "turbidity.pdf", bytes.NewReader(pdfBytes(10)))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s/turbidity_%d.pdf", id, clock.Now().UnixNano()), first.Path)

	clock.Advance(time.Second)
	second, err := s.Save(context.Background(), id, "turbidity.pdf", bytes.NewReader(pdfBytes(10)))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s/turbidity_%d.pdf", id, clock.Now().UnixNano()), second.Path)

	entries, err := os.ReadDir(filepath.Join(root, id.String()))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDocumentStorage_RejectsUnknownType(t *testing.T) {
	s, err := NewDocumentStorage(t.TempDir(), 1, nil)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), uuid.New(), "notes.txt", strings.NewReader("plain text"))
	assert.True(t, apperror.IsValidation(err))
}

func TestDocumentStorage_RejectsOversized(t *testing.T) {
	root := t.TempDir()
	s, err := NewDocumentStorage(root, 1, nil)
	require.NoError(t, err)

	id := uuid.New()
	_, err = s.Save(context.Background(), id, "big.pdf", bytes.NewReader(pdfBytes(2*1024*1024)))
	assert.True(t, apperror.IsValidation(err))

	entries, err := os.ReadDir(filepath.Join(root, id.String()))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", sanitizeFilename("../../report.pdf"))
	assert.Equal(t, "solution", sanitizeFilename(""))
}
