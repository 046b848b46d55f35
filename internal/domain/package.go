package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Package — единица работы конвейера: загруженный инсталлятор
// и всё, что конвейер из него произвёл.
//
// Package создаётся при загрузке артефакта (статус PENDING) и дальше
// мутируется исключительно оркестратором по мере прохождения стадий.
// Конвейер никогда не удаляет packages — удаление остаётся CRUD-операцией
// внешнего слоя.
//
// Инварианты:
//   - RenderedScript непустой ⇔ статус дошёл как минимум до LINTING
//   - ErrorMessage непустой ⇔ статус FAILED
type Package struct {
	// ID — уникальный идентификатор package.
	ID uuid.UUID `json:"id"`

	// ArtifactPath — путь к сохранённому артефакту инсталлятора.
	// Файл должен существовать как минимум до терминального статуса.
	ArtifactPath string `json:"artifact_path"`

	// UserNotes — свободные заметки пользователя для генерации
	// (особые требования к установке и т.п.). Может быть пустым.
	UserNotes string `json:"user_notes,omitempty"`

	// Metadata — метаданные инсталлятора. Заполняются после EXTRACTING.
	Metadata InstallerMetadata `json:"metadata"`

	// Status — текущий статус конвейера.
	Status PackageStatus `json:"status"`

	// Stage — метка текущего шага (для наблюдаемости и возобновления).
	Stage string `json:"stage,omitempty"`

	// ScriptIR — сгенерированное промежуточное представление скрипта (JSON).
	// Заполняется после GENERATING; нужно, чтобы возобновление со стадии
	// рендера не перегенерировало скрипт заново.
	ScriptIR json.RawMessage `json:"script_ir,omitempty"`

	// RenderedScript — итоговый текст скрипта. Заполняется после RENDERING.
	RenderedScript string `json:"rendered_script,omitempty"`

	// RenderWarnings — предупреждения рендера (пропущенные команды).
	// Нефатальны: скрипт остаётся пригодным для ручной правки.
	RenderWarnings []string `json:"render_warnings,omitempty"`

	// LintResult — результат проверки. Заполняется после LINTING.
	LintResult *LintResult `json:"lint_result,omitempty"`

	// ErrorMessage — текст ошибки. Непустой только при FAILED.
	ErrorMessage string `json:"error_message,omitempty"`

	// CreatedAt — время создания package.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPackage создаёт package в статусе PENDING.
func NewPackage(artifactPath, userNotes string) *Package {
	now := time.Now().UTC()
	return &Package{
		ID:           uuid.New(),
		ArtifactPath: artifactPath,
		UserNotes:    userNotes,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsFinished возвращает true, если package в терминальном статусе.
func (p *Package) IsFinished() bool {
	return p.Status.IsTerminal()
}

// MarkStage переводит package в статус status с меткой стадии stage.
// Это checkpoint "перед вызовом компонента": персистится ДО выполнения
// стадии, чтобы возобновление после сбоя знало, какая стадия шла.
func (p *Package) MarkStage(status PackageStatus, stage string) {
	p.Status = status
	p.Stage = stage
	p.UpdatedAt = time.Now().UTC()
}

// MarkCompleted переводит package в статус COMPLETED.
func (p *Package) MarkCompleted() {
	p.Status = StatusCompleted
	p.Stage = "done"
	p.ErrorMessage = ""
	p.UpdatedAt = time.Now().UTC()
}

// MarkFailed переводит package в статус FAILED с текстом ошибки.
func (p *Package) MarkFailed(errMsg string) {
	p.Status = StatusFailed
	p.ErrorMessage = errMsg
	p.UpdatedAt = time.Now().UTC()
}

// SetMetadata сохраняет результат стадии EXTRACTING.
func (p *Package) SetMetadata(meta InstallerMetadata) {
	p.Metadata = meta
	p.UpdatedAt = time.Now().UTC()
}

// SetScriptIR сохраняет результат стадии GENERATING.
func (p *Package) SetScriptIR(ir json.RawMessage) {
	p.ScriptIR = ir
	p.UpdatedAt = time.Now().UTC()
}

// SetScript сохраняет результат стадии RENDERING.
func (p *Package) SetScript(text string, warnings []string) {
	p.RenderedScript = text
	p.RenderWarnings = warnings
	p.UpdatedAt = time.Now().UTC()
}

// SetLintResult сохраняет результат стадии LINTING.
func (p *Package) SetLintResult(result LintResult) {
	p.LintResult = &result
	p.UpdatedAt = time.Now().UTC()
}
