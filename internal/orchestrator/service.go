package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Packsmith/internal/domain"
	"github.com/shaiso/Packsmith/internal/telemetry"
)

// StatusInfo — текущее состояние package для внешних слоёв.
type StatusInfo struct {
	Status       domain.PackageStatus `json:"status"`
	Stage        string               `json:"stage,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// Result — итог обработки package.
type Result struct {
	ScriptText     string             `json:"script_text"`
	RenderWarnings []string           `json:"render_warnings,omitempty"`
	LintResult     *domain.LintResult `json:"lint_result"`
}

// Submit создаёт package в статусе PENDING и публикует событие
// о его появлении. Обработку подхватит consumer или polling fallback.
func (o *Orchestrator) Submit(ctx context.Context, artifactPath, userNotes string) (*domain.Package, error) {
	pkg := domain.NewPackage(artifactPath, userNotes)

	if err := o.store.Create(ctx, pkg); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}

	telemetry.PackagesSubmitted.Inc()

	if o.publisher != nil {
		if err := o.publisher.PublishPackagePending(ctx, pkg.ID); err != nil {
			// Package создан в БД — его подхватит polling
			o.logger.Warn("failed to publish package.pending",
				"package_id", pkg.ID,
				"error", err,
			)
		}
	}

	o.logger.Info("package submitted",
		"package_id", pkg.ID,
		"artifact_path", pkg.ArtifactPath,
	)

	return pkg, nil
}

// GetStatus возвращает статус package.
func (o *Orchestrator) GetStatus(ctx context.Context, id uuid.UUID) (StatusInfo, error) {
	pkg, err := o.store.GetByID(ctx, id)
	if err != nil {
		return StatusInfo{}, err
	}

	return StatusInfo{
		Status:       pkg.Status,
		Stage:        pkg.Stage,
		ErrorMessage: pkg.ErrorMessage,
	}, nil
}

// GetResult возвращает итог обработки package.
// Если package ещё не дошёл до COMPLETED, возвращается NotReadyError.
func (o *Orchestrator) GetResult(ctx context.Context, id uuid.UUID) (*Result, error) {
	pkg, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if pkg.Status != domain.StatusCompleted {
		return nil, &NotReadyError{Status: pkg.Status}
	}

	return &Result{
		ScriptText:     pkg.RenderedScript,
		RenderWarnings: pkg.RenderWarnings,
		LintResult:     pkg.LintResult,
	}, nil
}

// ResumeAll возобновляет все незавершённые packages.
//
// Вызывается один раз при старте процесса; повторный вызов идемпотентен —
// уже активные packages пропускаются, терминальные в выборку не попадают.
// Package с пропавшим артефактом переводится в FAILED с указанием пути:
// ни один package не остаётся «в работе» без возможности прогресса.
func (o *Orchestrator) ResumeAll(ctx context.Context) error {
	pkgs, err := o.store.ListUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("list unfinished packages: %w", err)
	}

	if len(pkgs) == 0 {
		o.logger.Info("no packages to resume")
		return nil
	}

	o.logger.Info("resuming unfinished packages", "count", len(pkgs))

	for i := range pkgs {
		pkg := &pkgs[i]

		if o.isActive(pkg.ID) {
			continue
		}

		if !o.artifacts.Exists(pkg.ArtifactPath) {
			pkg.MarkFailed(fmt.Sprintf("artifact missing: %s", pkg.ArtifactPath))
			if err := o.store.Update(ctx, pkg); err != nil {
				o.logger.Error("failed to fail package with missing artifact",
					"package_id", pkg.ID,
					"error", err,
				)
				continue
			}

			telemetry.PackagesFinished.WithLabelValues(string(domain.StatusFailed)).Inc()

			o.logger.Warn("package failed on resume: artifact missing",
				"package_id", pkg.ID,
				"artifact_path", pkg.ArtifactPath,
			)
			continue
		}

		telemetry.PackagesResumed.Inc()
		o.startPackage(ctx, pkg.ID)
	}

	return nil
}
