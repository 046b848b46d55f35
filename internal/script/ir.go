// Package script определяет промежуточное представление (IR)
// скрипта развёртывания: секции по фазам жизненного цикла и команды
// из фиксированного списка функций тулкита.
//
// IR — это закрытая схема: генератор валидирует против неё структурный
// ответ внешней генерирующей способности, а рендерер детерминированно
// разворачивает её в текст скрипта.
package script

// Phase — фаза жизненного цикла развёртывания.
type Phase string

// Фазы в каноническом порядке.
const (
	PhasePreInstallation    Phase = "pre-installation"
	PhaseInstallation       Phase = "installation"
	PhasePostInstallation   Phase = "post-installation"
	PhasePreUninstallation  Phase = "pre-uninstallation"
	PhaseUninstallation     Phase = "uninstallation"
	PhasePostUninstallation Phase = "post-uninstallation"
)

// CanonicalOrder — авторитетный порядок фаз в итоговом скрипте.
// Порядок секций в IR НЕ является источником истины для вывода:
// рендерер всегда обходит фазы в этом порядке.
var CanonicalOrder = []Phase{
	PhasePreInstallation,
	PhaseInstallation,
	PhasePostInstallation,
	PhasePreUninstallation,
	PhaseUninstallation,
	PhasePostUninstallation,
}

// KnownPhase проверяет, принадлежит ли имя фазы фиксированному списку.
func KnownPhase(p Phase) bool {
	for _, known := range CanonicalOrder {
		if p == known {
			return true
		}
	}
	return false
}

// Command — одна команда тулкита внутри секции.
//
// Name должен принадлежать allow-list (см. commands.go).
// Значения параметров — только скаляры: строки, числа, булевы.
type Command struct {
	// Name — имя функции тулкита, например "Execute-MSI".
	Name string `json:"name"`

	// Parameters — параметры команды: имя → скалярное значение.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Section — именованная секция скрипта: фаза и её команды.
type Section struct {
	// Phase — фаза жизненного цикла из фиксированного списка.
	Phase Phase `json:"phase"`

	// Commands — упорядоченный список команд. Может быть пустым.
	Commands []Command `json:"commands"`
}

// Script — IR целого скрипта развёртывания.
type Script struct {
	// Variables — переменные скрипта: appVendor, appName, appVersion и т.п.
	Variables map[string]string `json:"variables,omitempty"`

	// Sections — секции по фазам. Фаза встречается не более одного раза.
	Sections []Section `json:"sections"`
}

// Section возвращает секцию указанной фазы либо nil.
func (s *Script) Section(phase Phase) *Section {
	for i := range s.Sections {
		if s.Sections[i].Phase == phase {
			return &s.Sections[i]
		}
	}
	return nil
}
