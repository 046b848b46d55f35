// Package extractor извлекает нормализованные метаданные из артефактов
// инсталляторов.
//
// Для MSI используется внешний инструмент чтения свойств (msiinfo),
// для EXE — сигнатуры обёртки инсталлятора в заголовке файла плюс
// эвристики по имени файла.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shaiso/Packsmith/internal/domain"
)

// ExtractionError — ошибка извлечения метаданных.
//
// Всегда сообщается, никогда не подменяется значениями по умолчанию:
// оркестратор трактует её как падение стадии, а не процесса.
type ExtractionError struct {
	// Path — путь к артефакту.
	Path string

	// Err — причина.
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract metadata from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor извлекает метаданные инсталлятора.
type Extractor struct {
	msiinfoBin string
	logger     *slog.Logger
}

// New создаёт Extractor.
//
// Путь к бинарю msiinfo берётся из переменной окружения MSIINFO_BIN
// (по умолчанию "msiinfo" из PATH).
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	bin := os.Getenv("MSIINFO_BIN")
	if bin == "" {
		bin = "msiinfo"
	}

	return &Extractor{
		msiinfoBin: bin,
		logger:     logger,
	}
}

// Extract извлекает метаданные из артефакта по пути artifactPath.
//
// Возвращает *ExtractionError, если артефакт нечитаем, неподдерживаемого
// типа или внешний инструмент завершился с ошибкой.
func (e *Extractor) Extract(ctx context.Context, artifactPath string) (domain.InstallerMetadata, error) {
	info, err := os.Stat(artifactPath)
	if err != nil {
		return domain.InstallerMetadata{}, &ExtractionError{Path: artifactPath, Err: err}
	}
	if info.IsDir() {
		return domain.InstallerMetadata{}, &ExtractionError{
			Path: artifactPath,
			Err:  fmt.Errorf("artifact is a directory"),
		}
	}

	switch strings.ToLower(filepath.Ext(artifactPath)) {
	case ".msi":
		return e.extractMSI(ctx, artifactPath)
	case ".exe":
		return e.extractEXE(artifactPath)
	default:
		return domain.InstallerMetadata{}, &ExtractionError{
			Path: artifactPath,
			Err:  fmt.Errorf("unsupported installer type %q", filepath.Ext(artifactPath)),
		}
	}
}
