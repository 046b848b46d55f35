package domain

// Severity — важность замечания линтера.
type Severity string

const (
	// SeverityError — нарушение правила; скрипт не проходит проверку.
	SeverityError Severity = "error"

	// SeverityWarning — рекомендация; не влияет на результат проверки.
	SeverityWarning Severity = "warning"
)

// LintViolation — одно замечание линтера.
type LintViolation struct {
	// Severity — важность: error или warning.
	Severity Severity `json:"severity"`

	// Message — человекочитаемое описание.
	Message string `json:"message"`

	// Line — номер строки скрипта, к которой относится замечание.
	// 0, если замечание относится ко всему скрипту.
	Line int `json:"line,omitempty"`
}

// LintResult — результат проверки скрипта.
type LintResult struct {
	// Pass — true, если нет ни одного замечания с severity=error.
	// Warnings на результат не влияют.
	Pass bool `json:"pass"`

	// Violations — упорядоченный список замечаний.
	Violations []LintViolation `json:"violations,omitempty"`
}

// ErrorCount возвращает количество замечаний уровня error.
func (r LintResult) ErrorCount() int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			n++
		}
	}
	return n
}
