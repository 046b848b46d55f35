package extractor

import (
	"io"
	"os"
	"strings"

	"github.com/shaiso/Packsmith/internal/domain"
)

// exeHeaderSize — сколько байт заголовка читаем для классификации.
const exeHeaderSize = 4096

// wrapperSignature — сигнатура обёртки инсталлятора в заголовке EXE.
type wrapperSignature struct {
	// marker — подстрока в заголовке (после приведения к нижнему регистру).
	marker string

	// silentArgs — ключи тихой установки, принятые для этой обёртки.
	silentArgs string
}

// exeSignatures — известные обёртки в порядке проверки.
//
// Глубоких метаданных у EXE нет: классифицируем только тип обёртки
// и подставляем её конвенциональные ключи тихой установки.
var exeSignatures = []wrapperSignature{
	{marker: "inno setup", silentArgs: "/SILENT /NORESTART"},
	{marker: "nullsoft", silentArgs: "/S"},
	{marker: "installshield", silentArgs: `/s /v"/qn"`},
	{marker: "advanced installer", silentArgs: "/quiet"},
	{marker: "wixburn", silentArgs: "/quiet /norestart"},
}

// defaultEXESilentArgs — fallback для нераспознанных обёрток.
const defaultEXESilentArgs = "/S"

// extractEXE классифицирует EXE-инсталлятор по заголовку файла.
//
// Имя и версия восстанавливаются эвристиками из имени файла —
// это честный best-effort, а не извлечённые метаданные.
func (e *Extractor) extractEXE(path string) (domain.InstallerMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.InstallerMetadata{}, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	header := make([]byte, exeHeaderSize)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return domain.InstallerMetadata{}, &ExtractionError{Path: path, Err: err}
	}
	header = header[:n]

	silentArgs := classifyEXEWrapper(header)

	meta := domain.InstallerMetadata{
		Name:         baseNameFromPath(path),
		Version:      versionFromFilename(path),
		Vendor:       "Unknown",
		Architecture: domain.ArchUnknown,
		Kind:         domain.KindEXE,
		SilentArgs:   silentArgs,
		Language:     "EN",
	}

	e.logger.Debug("extracted exe metadata",
		"path", path,
		"name", meta.Name,
		"silent_args", meta.SilentArgs,
	)

	return meta, nil
}

// classifyEXEWrapper возвращает ключи тихой установки по сигнатуре обёртки.
func classifyEXEWrapper(header []byte) string {
	haystack := strings.ToLower(string(header))

	for _, sig := range exeSignatures {
		if strings.Contains(haystack, sig.marker) {
			return sig.silentArgs
		}
	}

	return defaultEXESilentArgs
}
