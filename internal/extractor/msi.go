package extractor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/shaiso/Packsmith/internal/domain"
)

// msiinfoTimeout — таймаут на вызов внешнего инструмента.
const msiinfoTimeout = 30 * time.Second

// Тихая установка MSI всегда через стандартные ключи Windows Installer.
const msiSilentArgs = "/qn /norestart"

// extractMSI извлекает свойства MSI через внешний инструмент.
//
// Инструмент печатает таблицу Property в виде строк "ключ<TAB>значение"
// (допускается и "ключ: значение"). Ненулевой код выхода — ошибка стадии.
func (e *Extractor) extractMSI(ctx context.Context, path string) (domain.InstallerMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, msiinfoTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.msiinfoBin, "export", path, "Property")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%s: %w", detail, err)
		}
		return domain.InstallerMetadata{}, &ExtractionError{Path: path, Err: err}
	}

	props := parsePropertyOutput(stdout.String())

	meta := domain.InstallerMetadata{
		Name:         props["ProductName"],
		Version:      props["ProductVersion"],
		Vendor:       props["Manufacturer"],
		Architecture: msiArchitecture(props),
		Kind:         domain.KindMSI,
		SilentArgs:   msiSilentArgs,
		Language:     props["ProductLanguage"],
	}

	// Минимально необходимые поля: без имени и версии скрипт не собрать.
	if meta.Name == "" {
		meta.Name = baseNameFromPath(path)
	}
	if meta.Version == "" {
		meta.Version = versionFromFilename(path)
	}
	if meta.Vendor == "" {
		meta.Vendor = "Unknown"
	}
	if meta.Language == "" {
		meta.Language = "EN"
	}

	e.logger.Debug("extracted msi metadata",
		"path", path,
		"name", meta.Name,
		"version", meta.Version,
		"architecture", meta.Architecture,
	)

	return meta, nil
}

// parsePropertyOutput разбирает stdout инструмента в словарь свойств.
func parsePropertyOutput(out string) map[string]string {
	props := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()

		var key, value string
		switch {
		case strings.Contains(line, "\t"):
			parts := strings.SplitN(line, "\t", 2)
			key, value = parts[0], parts[1]
		case strings.Contains(line, ":"):
			parts := strings.SplitN(line, ":", 2)
			key, value = parts[0], parts[1]
		default:
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			props[key] = value
		}
	}

	return props
}

// msiArchitecture определяет архитектуру из свойств MSI.
//
// Свойство Template имеет вид "платформа;язык", например "Intel64;1033".
// Неразборчивое значение даёт unknown — никогда не угадываем.
func msiArchitecture(props map[string]string) domain.Architecture {
	template := strings.ToLower(props["Template"])
	platform := strings.ToLower(props["Platform"])

	for _, v := range []string{template, platform} {
		switch {
		case strings.Contains(v, "arm64"):
			return domain.ArchARM64
		case strings.Contains(v, "intel64"),
			strings.Contains(v, "x64"),
			strings.Contains(v, "amd64"):
			return domain.ArchX64
		case strings.Contains(v, "intel"), strings.Contains(v, "x86"):
			return domain.ArchX86
		}
	}

	return domain.ArchUnknown
}
