package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shaiso/Packsmith/internal/script"
)

// renderCommand разворачивает одну команду IR в строку скрипта.
//
// Параметры выводятся в фиксированном порядке: сначала обязательные,
// затем известные необязательные — порядок задаётся allow-list'ом,
// поэтому вывод детерминирован. Параметры вне списка игнорируются
// (это не ошибка). Отсутствие обязательного параметра — пропуск
// команды с предупреждением, а не провал рендера.
func renderCommand(phase script.Phase, cmd script.Command) (line string, warning string) {
	spec, ok := script.Spec(cmd.Name)
	if !ok {
		// Валидация IR такое не пропускает; страховка на прямые вызовы.
		return "", fmt.Sprintf("%s: unknown command %q skipped", phase, cmd.Name)
	}

	for _, param := range spec.Required {
		if _, present := cmd.Parameters[param]; !present {
			return "", fmt.Sprintf("%s: %s skipped: missing required parameter %q", phase, cmd.Name, param)
		}
	}

	var b strings.Builder
	b.WriteString(cmd.Name)

	for _, param := range spec.Required {
		writeParameter(&b, param, cmd.Parameters[param])
	}
	for _, param := range spec.Optional {
		if value, present := cmd.Parameters[param]; present {
			writeParameter(&b, param, value)
		}
	}

	return b.String(), ""
}

func writeParameter(b *strings.Builder, name string, value any) {
	b.WriteString(" -")
	b.WriteString(name)

	// Булев параметр-переключатель передаётся как -Name $true/$false.
	if v, ok := value.(bool); ok {
		if v {
			b.WriteString(" $true")
		} else {
			b.WriteString(" $false")
		}
		return
	}

	b.WriteString(" ")
	b.WriteString(formatValue(value))
}

// formatValue форматирует скалярное значение параметра.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return quote(v)
	case float64:
		// Целые числа из JSON приходят как float64 — печатаем без дроби.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return quote(fmt.Sprintf("%v", v))
	}
}

// quote оборачивает строку в одинарные кавычки PowerShell.
// Внутренние кавычки экранируются удвоением.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
