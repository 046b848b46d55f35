package extractor

import (
	"path/filepath"
	"regexp"
	"strings"
)

// versionPatterns — распространённые форматы версии в имени файла.
var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)v?(\d+\.\d+\.\d+\.\d+)`),
	regexp.MustCompile(`(?i)v?(\d+\.\d+\.\d+)`),
	regexp.MustCompile(`(?i)v?(\d+\.\d+)`),
}

// versionFromFilename извлекает версию из имени файла.
// Если версия не найдена, возвращает "1.0.0".
func versionFromFilename(path string) string {
	name := filepath.Base(path)

	for _, pattern := range versionPatterns {
		if m := pattern.FindStringSubmatch(name); m != nil {
			return m[1]
		}
	}

	return "1.0.0"
}

var (
	versionTokenRe   = regexp.MustCompile(`(?i)[_-]?v?\d+(\.\d+)+[\d._-]*`)
	separatorRe      = regexp.MustCompile(`[_-]+`)
	installerSuffixe = []string{"setup", "installer", "install", "x64", "x86", "win64", "win32", "windows"}
)

// baseNameFromPath восстанавливает имя приложения из имени файла:
// отбрасывает расширение, токены версии и типовые суффиксы инсталляторов,
// приводит слова к виду с заглавной буквы.
func baseNameFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	name = versionTokenRe.ReplaceAllString(name, "")
	name = separatorRe.ReplaceAllString(name, " ")

	words := strings.Fields(name)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if isInstallerSuffix(word) {
			continue
		}
		kept = append(kept, capitalize(word))
	}

	if len(kept) == 0 {
		return "Unknown Application"
	}
	return strings.Join(kept, " ")
}

func isInstallerSuffix(word string) bool {
	lower := strings.ToLower(word)
	for _, suffix := range installerSuffixe {
		if lower == suffix {
			return true
		}
	}
	return false
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
