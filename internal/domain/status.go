package domain

// PackageStatus — статус обработки package в конвейере.
//
// Жизненный цикл:
//
//	PENDING → EXTRACTING → GENERATING → RENDERING → LINTING → COMPLETED
//	                                                        ↘ FAILED (из любого нетерминального)
type PackageStatus string

const (
	// StatusPending — package создан, обработка ещё не началась.
	StatusPending PackageStatus = "PENDING"

	// StatusExtracting — извлекаются метаданные из инсталлятора.
	StatusExtracting PackageStatus = "EXTRACTING"

	// StatusGenerating — генерируется структурированный скрипт.
	StatusGenerating PackageStatus = "GENERATING"

	// StatusRendering — IR разворачивается в текст скрипта.
	StatusRendering PackageStatus = "RENDERING"

	// StatusLinting — проверка скрипта на соответствие правилам.
	StatusLinting PackageStatus = "LINTING"

	// StatusCompleted — package обработан, скрипт готов.
	StatusCompleted PackageStatus = "COMPLETED"

	// StatusFailed — обработка завершилась с ошибкой.
	StatusFailed PackageStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (package обработан).
func (s PackageStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// pipelineOrder — порядок стадий конвейера.
// Используется для проверки легальности переходов.
var pipelineOrder = map[PackageStatus]int{
	StatusPending:    0,
	StatusExtracting: 1,
	StatusGenerating: 2,
	StatusRendering:  3,
	StatusLinting:    4,
	StatusCompleted:  5,
}

// CanAdvanceTo проверяет легальность перехода в статус next.
//
// Разрешено:
//   - ровно один шаг вперёд по конвейеру
//   - FAILED из любого нетерминального статуса
func (s PackageStatus) CanAdvanceTo(next PackageStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}

	cur, ok := pipelineOrder[s]
	if !ok {
		return false
	}
	target, ok := pipelineOrder[next]
	if !ok {
		return false
	}
	return target == cur+1
}

// Index возвращает порядковый номер статуса в конвейере.
// Для FAILED возвращает -1 (вне конвейера).
func (s PackageStatus) Index() int {
	idx, ok := pipelineOrder[s]
	if !ok {
		return -1
	}
	return idx
}

// ResumableStatuses — статусы, из которых package можно возобновить
// после рестарта процесса.
func ResumableStatuses() []PackageStatus {
	return []PackageStatus{
		StatusPending,
		StatusExtracting,
		StatusGenerating,
		StatusRendering,
		StatusLinting,
	}
}
