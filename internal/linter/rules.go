package linter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shaiso/Packsmith/internal/domain"
)

// source — разобранный текст скрипта для правил.
type source struct {
	text  string
	lower string
	lines []string
}

func newSource(text string) *source {
	return &source{
		text:  text,
		lower: strings.ToLower(text),
		lines: strings.Split(text, "\n"),
	}
}

// lineOf возвращает номер первой строки (с 1), содержащей подстроку.
// 0, если подстрока не найдена.
func (s *source) lineOf(needle string) int {
	needle = strings.ToLower(needle)
	for i, line := range s.lines {
		if strings.Contains(strings.ToLower(line), needle) {
			return i + 1
		}
	}
	return 0
}

// defaultRules — фиксированный упорядоченный набор правил.
func defaultRules() []rule {
	return []rule{
		{name: "required-variables", check: checkRequiredVariables},
		{name: "exit-script", check: checkExitScript},
		{name: "destructive-confirmation", check: checkDestructiveCommands},
		{name: "security-patterns", check: checkSecurityPatterns},
		{name: "recommended-patterns", check: checkRecommendedPatterns},
	}
}

// requiredVariables — обязательные объявления переменных метаданных.
var requiredVariables = []string{"$appVendor", "$appName", "$appVersion"}

// checkRequiredVariables требует объявления переменных метаданных.
func checkRequiredVariables(src *source) []domain.LintViolation {
	var out []domain.LintViolation
	for _, name := range requiredVariables {
		declaration := name + " ="
		if !strings.Contains(src.lower, strings.ToLower(declaration)) {
			out = append(out, domain.LintViolation{
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("missing required variable declaration %s", name),
			})
		}
	}
	return out
}

// checkExitScript требует терминальный вызов Exit-Script на каждом
// достижимом пути: минимум один вызов обязателен (error), больше двух
// (основной путь + обработчик ошибок) — подозрение на двойной выход
// (warning).
func checkExitScript(src *source) []domain.LintViolation {
	count := strings.Count(src.lower, strings.ToLower("Exit-Script"))

	switch {
	case count == 0:
		return []domain.LintViolation{{
			Severity: domain.SeverityError,
			Message:  "script never calls Exit-Script",
		}}
	case count > 2:
		return []domain.LintViolation{{
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("Exit-Script called %d times; expected once per reachable path", count),
			Line:     src.lineOf("Exit-Script"),
		}}
	default:
		return nil
	}
}

// destructiveCommands — команды, требующие явного блока подтверждения
// (Show-InstallationWelcome) раньше по тексту.
var destructiveCommands = []string{
	"Remove-MSIApplications",
	"Remove-File",
	"Remove-RegistryKey",
}

// checkDestructiveCommands запрещает деструктивные команды без
// предшествующего подтверждающего блока.
func checkDestructiveCommands(src *source) []domain.LintViolation {
	welcomeAt := strings.Index(src.lower, strings.ToLower("Show-InstallationWelcome"))

	var out []domain.LintViolation
	for _, cmd := range destructiveCommands {
		at := strings.Index(src.lower, strings.ToLower(cmd))
		if at < 0 {
			continue
		}
		if welcomeAt < 0 || at < welcomeAt {
			out = append(out, domain.LintViolation{
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("%s called outside an explicit confirmation block", cmd),
				Line:     src.lineOf(cmd),
			})
		}
	}
	return out
}

// securityPatterns — конструкции, запрещённые в развёртываемых скриптах.
var securityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Invoke-Expression`),
	regexp.MustCompile(`(?i)\biex\s`),
	regexp.MustCompile(`(?i)cmd\s*/c`),
	regexp.MustCompile(`(?i)powershell\s*-c`),
}

// checkSecurityPatterns ищет запрещённые конструкции.
func checkSecurityPatterns(src *source) []domain.LintViolation {
	var out []domain.LintViolation
	for _, pattern := range securityPatterns {
		if loc := pattern.FindStringIndex(src.text); loc != nil {
			match := src.text[loc[0]:loc[1]]
			out = append(out, domain.LintViolation{
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("forbidden construct %q", strings.TrimSpace(match)),
				Line:     src.lineOf(match),
			})
		}
	}
	return out
}

// recommendedPatterns — конструкции, ожидаемые в полном скрипте.
var recommendedPatterns = []struct {
	needle  string
	message string
}{
	{"Write-Log", "no Write-Log calls; phases are not logged"},
	{"Show-InstallationWelcome", "no Show-InstallationWelcome; users get no closure prompt"},
	{"##*=== INSTALLATION", "missing installation phase banner"},
}

// checkRecommendedPatterns — рекомендации уровня warning.
func checkRecommendedPatterns(src *source) []domain.LintViolation {
	var out []domain.LintViolation
	for _, rec := range recommendedPatterns {
		if !strings.Contains(src.lower, strings.ToLower(rec.needle)) {
			out = append(out, domain.LintViolation{
				Severity: domain.SeverityWarning,
				Message:  rec.message,
			})
		}
	}
	return out
}
