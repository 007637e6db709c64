package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/jonboulle/clockwork"
)

// filetype достаточно первых 262 байт
const sniffLen = 262

// Разрешённые типы документов с решением лаборатории
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

type StoredDocument struct {
	Path     string
	Size     int64
	MIMEType string
}

// DocumentStorage хранит документы с решениями в файловой системе.
type DocumentStorage struct {
	rootPath       string
	maxUploadBytes int64
	clock          clockwork.Clock
}

// NewDocumentStorage: clock задаёт суффикс имени файла, nil означает системные часы.
func NewDocumentStorage(rootPath string, maxUploadMB int64, clock clockwork.Clock) (*DocumentStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &DocumentStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
		clock:          clock,
	}, nil
}

// Save проверяет тип по содержимому, пишет файл атомарно и возвращает относительный путь.
// Путь используется как ссылка на документ в назначении.
func (s *DocumentStorage) Save(ctx context.Context, assignmentID uuid.UUID, originalName string, r io.Reader) (StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return StoredDocument{}, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return StoredDocument{}, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !allowedMimeTypes[kind.MIME.Value] {
		return StoredDocument{}, apperror.Validation("разрешены только документы PDF, DOC и DOCX", "document")
	}

	dir := filepath.Join(s.rootPath, assignmentID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StoredDocument{}, fmt.Errorf("storage: не удалось создать каталог назначения: %w", err)
	}

	base := strings.TrimSuffix(sanitizeFilename(originalName), filepath.Ext(originalName))
	fileName := fmt.Sprintf("%s_%d.%s", base, s.clock.Now().UnixNano(), kind.Extension)
	targetPath := filepath.Join(dir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return StoredDocument{}, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return StoredDocument{}, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return StoredDocument{}, apperror.Validation(
			fmt.Sprintf("размер файла превышает лимит %d байт", s.maxUploadBytes), "document")
	}

	if err := f.Close(); err != nil {
		return StoredDocument{}, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return StoredDocument{}, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return StoredDocument{
		Path:     filepath.ToSlash(filepath.Join(assignmentID.String(), fileName)),
		Size:     written,
		MIMEType: kind.MIME.Value,
	}, nil
}

// Delete удаляет файл, например если запись решения в хранилище не удалась.
func (s *DocumentStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.FromSlash(relativePath))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." {
		name = "solution"
	}
	return name
}
