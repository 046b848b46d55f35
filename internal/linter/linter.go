// Package linter статически проверяет текст скрипта развёртывания
// против фиксированного набора правил.
//
// Линтер тотален: он не исполняет скрипт и не падает на корректно
// сформированном тексте. Каждое правило независимо и выполняется
// безусловно; нарушение добавляет запись в результат и не прерывает
// остальные правила. Итоговый Pass истинен ⇔ нет ни одной записи
// уровня error (warnings проверку не валят).
package linter

import (
	"github.com/shaiso/Packsmith/internal/domain"
)

// rule — одно правило проверки.
type rule struct {
	// name — короткое имя правила (для наблюдаемости).
	name string

	// check возвращает замечания правила; пустой срез — нарушений нет.
	check func(src *source) []domain.LintViolation
}

// Linter применяет фиксированный упорядоченный набор правил.
type Linter struct {
	rules []rule
}

// New создаёт Linter со стандартным набором правил.
func New() *Linter {
	return &Linter{rules: defaultRules()}
}

// Lint проверяет текст скрипта.
func (l *Linter) Lint(scriptText string) domain.LintResult {
	src := newSource(scriptText)

	var violations []domain.LintViolation
	for _, r := range l.rules {
		violations = append(violations, r.check(src)...)
	}

	result := domain.LintResult{
		Pass:       true,
		Violations: violations,
	}
	for _, v := range violations {
		if v.Severity == domain.SeverityError {
			result.Pass = false
			break
		}
	}

	return result
}
