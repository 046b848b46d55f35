// Package storage отвечает за хранение загруженных артефактов на диске.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrArtifactNotFound — артефакт отсутствует в хранилище.
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore — файловое хранилище установочных артефактов.
//
// Каждый артефакт сохраняется под уникальным именем <uuid>_<filename>,
// чтобы повторные загрузки одного файла не перезаписывали друг друга.
type ArtifactStore struct {
	dir string
}

// New создаёт хранилище в указанной директории.
// Если dir пустая, используется переменная окружения ARTIFACT_DIR
// или "./artifacts" по умолчанию.
func New(dir string) (*ArtifactStore, error) {
	if dir == "" {
		dir = os.Getenv("ARTIFACT_DIR")
	}
	if dir == "" {
		dir = "./artifacts"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	return &ArtifactStore{dir: dir}, nil
}

// Dir возвращает корневую директорию хранилища.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Save сохраняет артефакт и возвращает абсолютный путь к нему.
func (s *ArtifactStore) Save(filename string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%s_%s", uuid.New().String(), sanitizeFilename(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write artifact: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close artifact file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}

	return abs, nil
}

// Exists проверяет, существует ли артефакт по указанному пути.
func (s *ArtifactStore) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Open открывает артефакт для чтения.
func (s *ArtifactStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

// Remove удаляет артефакт. Отсутствующий файл не считается ошибкой.
func (s *ArtifactStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// sanitizeFilename убирает из имени файла разделители путей.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "artifact"
	}
	return name
}
