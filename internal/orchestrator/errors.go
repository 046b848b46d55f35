package orchestrator

import (
	"errors"
	"fmt"

	"github.com/shaiso/Packsmith/internal/domain"
)

// Ошибки оркестратора.
var (
	// ErrPackageNotFound — package не найден в БД.
	ErrPackageNotFound = errors.New("package not found")

	// ErrPackageAlreadyActive — package уже обрабатывается.
	ErrPackageAlreadyActive = errors.New("package already being processed")

	// ErrPackageFinished — package уже в терминальном статусе.
	ErrPackageFinished = errors.New("package already finished")

	// ErrScriptIRMissing — статус дошёл до рендера, но IR не сохранён.
	// По порядку checkpoint'ов такого быть не должно.
	ErrScriptIRMissing = errors.New("script IR missing")
)

// NotReadyError — результат запрошен до того, как package дошёл до COMPLETED.
type NotReadyError struct {
	Status domain.PackageStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("package not ready: status %s", e.Status)
}
