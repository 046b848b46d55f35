package script

import (
	"errors"
	"fmt"
)

// Ошибки валидации IR.
var (
	// ErrInvalidScript — IR не прошёл структурную проверку.
	ErrInvalidScript = errors.New("invalid script")

	// ErrUnknownCommand — имя команды вне allow-list.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnknownPhase — имя фазы вне фиксированного списка.
	ErrUnknownPhase = errors.New("unknown phase")

	// ErrDuplicatePhase — фаза встречается более одного раза.
	ErrDuplicatePhase = errors.New("duplicate phase")

	// ErrNonScalarParameter — значение параметра не является скаляром.
	ErrNonScalarParameter = errors.New("non-scalar parameter value")
)

// Validate выполняет структурную проверку IR против закрытой схемы.
//
// Проверяется:
//   - каждая фаза из фиксированного списка и встречается не более раза
//   - каждое имя команды из allow-list
//   - значения параметров — только строки, числа и булевы
//
// Порядок секций НЕ проверяется: канонический порядок обеспечивает
// рендерер, а не генератор.
func Validate(s *Script) error {
	if s == nil {
		return fmt.Errorf("%w: nil script", ErrInvalidScript)
	}
	if len(s.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidScript)
	}

	seen := make(map[Phase]bool, len(s.Sections))
	for si := range s.Sections {
		section := &s.Sections[si]

		if !KnownPhase(section.Phase) {
			return fmt.Errorf("%w: %q", ErrUnknownPhase, section.Phase)
		}
		if seen[section.Phase] {
			return fmt.Errorf("%w: %q", ErrDuplicatePhase, section.Phase)
		}
		seen[section.Phase] = true

		for ci := range section.Commands {
			cmd := &section.Commands[ci]

			if !KnownCommand(cmd.Name) {
				return fmt.Errorf("%w: %q in phase %q", ErrUnknownCommand, cmd.Name, section.Phase)
			}

			for param, value := range cmd.Parameters {
				if !isScalar(value) {
					return fmt.Errorf("%w: %s.%s", ErrNonScalarParameter, cmd.Name, param)
				}
			}
		}
	}

	return nil
}

// isScalar проверяет, что значение — строка, число или булево.
// json.Unmarshal в map[string]any даёт числа как float64.
func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, float64, int, int64:
		return true
	default:
		return false
	}
}
