package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Packsmith/internal/domain"
	"github.com/shaiso/Packsmith/internal/script"
	"github.com/shaiso/Packsmith/internal/telemetry"
)

// process загружает package и ведёт его до терминального статуса.
//
// Ошибки стадий (extract/generate) поглощаются на этой границе:
// package переводится в FAILED с текстом ошибки, наружу уходит nil.
// Наружу возвращаются только инфраструктурные ошибки (недоступная БД),
// при которых статус package не изменился — его подхватит следующий
// poll или возобновление.
func (o *Orchestrator) process(ctx context.Context, id uuid.UUID) error {
	pkg, err := o.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get package: %w", err)
	}

	if pkg.IsFinished() {
		return nil
	}

	return o.runPipeline(ctx, pkg)
}

// runPipeline проходит стадии конвейера начиная с персистированного статуса.
//
// Порядок checkpoint'ов — ядро корректности возобновления:
//  1. (статус, стадия) персистятся ДО вызова компонента
//  2. результат стадии персистится сразу ПОСЛЕ возврата вызова
//
// Сбой между (1) и (2) разрешается при возобновлении: персистированный
// статус говорит, какая стадия шла, и её безопасно перезапустить —
// каждая стадия идемпотентна на тех же входах.
func (o *Orchestrator) runPipeline(ctx context.Context, pkg *domain.Package) error {
	entry := pkg.Status.Index()

	// 1. EXTRACTING — метаданные из артефакта
	if entry <= domain.StatusExtracting.Index() {
		if err := o.stageExtract(ctx, pkg); err != nil {
			return o.failPackage(ctx, pkg, err)
		}
	}

	// 2. GENERATING — структурированный скрипт через внешнюю способность
	if entry <= domain.StatusGenerating.Index() {
		if err := o.stageGenerate(ctx, pkg); err != nil {
			return o.failPackage(ctx, pkg, err)
		}
	}

	// 3. RENDERING — детерминированный разворот IR в текст
	if entry <= domain.StatusRendering.Index() {
		if err := o.stageRender(ctx, pkg); err != nil {
			return o.failPackage(ctx, pkg, err)
		}
	}

	// 4. LINTING — проверка правил; провал нефатален
	if err := o.stageLint(ctx, pkg); err != nil {
		return o.failPackage(ctx, pkg, err)
	}

	// 5. COMPLETED
	pkg.MarkCompleted()
	if err := o.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("persist completed: %w", err)
	}

	telemetry.PackagesFinished.WithLabelValues(string(domain.StatusCompleted)).Inc()

	o.logger.Info("package completed",
		"package_id", pkg.ID,
		"name", pkg.Metadata.Name,
		"version", pkg.Metadata.Version,
		"lint_pass", pkg.LintResult != nil && pkg.LintResult.Pass,
	)

	return nil
}

// stageExtract выполняет стадию EXTRACTING.
func (o *Orchestrator) stageExtract(ctx context.Context, pkg *domain.Package) error {
	if err := o.checkpoint(ctx, pkg, domain.StatusExtracting, StageExtract); err != nil {
		return err
	}

	start := time.Now()
	meta, err := o.extractor.Extract(ctx, pkg.ArtifactPath)
	telemetry.StageDuration.WithLabelValues(StageExtract).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("extract metadata: %w", err)
	}

	pkg.SetMetadata(meta)
	if err := o.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}

	o.logger.Debug("metadata extracted",
		"package_id", pkg.ID,
		"name", meta.Name,
		"version", meta.Version,
		"kind", meta.Kind,
	)

	return nil
}

// stageGenerate выполняет стадию GENERATING.
func (o *Orchestrator) stageGenerate(ctx context.Context, pkg *domain.Package) error {
	if err := o.checkpoint(ctx, pkg, domain.StatusGenerating, StageGenerate); err != nil {
		return err
	}

	start := time.Now()
	ir, err := o.generator.Generate(ctx, pkg.Metadata, pkg.UserNotes)
	telemetry.StageDuration.WithLabelValues(StageGenerate).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("generate script: %w", err)
	}

	raw, err := json.Marshal(ir)
	if err != nil {
		return fmt.Errorf("marshal script IR: %w", err)
	}

	pkg.SetScriptIR(raw)
	if err := o.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("persist script IR: %w", err)
	}

	o.logger.Debug("script generated",
		"package_id", pkg.ID,
		"sections", len(ir.Sections),
	)

	return nil
}

// stageRender выполняет стадию RENDERING.
// Рендер чистый и не падает; IR берётся из персистированного состояния,
// чтобы возобновление на этой стадии не перегенерировало скрипт.
func (o *Orchestrator) stageRender(ctx context.Context, pkg *domain.Package) error {
	if err := o.checkpoint(ctx, pkg, domain.StatusRendering, StageRender); err != nil {
		return err
	}

	if len(pkg.ScriptIR) == 0 {
		return ErrScriptIRMissing
	}

	var ir script.Script
	if err := json.Unmarshal(pkg.ScriptIR, &ir); err != nil {
		return fmt.Errorf("unmarshal script IR: %w", err)
	}

	start := time.Now()
	text, warnings := o.renderer.Render(&ir)
	telemetry.StageDuration.WithLabelValues(StageRender).Observe(time.Since(start).Seconds())

	for _, w := range warnings {
		o.logger.Warn("render warning", "package_id", pkg.ID, "warning", w)
	}

	pkg.SetScript(text, warnings)
	if err := o.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("persist rendered script: %w", err)
	}

	return nil
}

// stageLint выполняет стадию LINTING.
// Провал проверки не фейлит package: результат с нарушениями
// прикладывается к нему и остаётся виден пользователю.
func (o *Orchestrator) stageLint(ctx context.Context, pkg *domain.Package) error {
	if err := o.checkpoint(ctx, pkg, domain.StatusLinting, StageLint); err != nil {
		return err
	}

	start := time.Now()
	result := o.linter.Lint(pkg.RenderedScript)
	telemetry.StageDuration.WithLabelValues(StageLint).Observe(time.Since(start).Seconds())

	pkg.SetLintResult(result)
	if err := o.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("persist lint result: %w", err)
	}

	if !result.Pass {
		telemetry.LintFailures.Inc()
		o.logger.Warn("lint failed",
			"package_id", pkg.ID,
			"errors", result.ErrorCount(),
			"violations", len(result.Violations),
		)
	}

	return nil
}

// checkpoint персистит (статус, стадия) перед вызовом компонента.
func (o *Orchestrator) checkpoint(ctx context.Context, pkg *domain.Package, status domain.PackageStatus, stage string) error {
	pkg.MarkStage(status, stage)
	if err := o.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("checkpoint %s: %w", stage, err)
	}
	return nil
}

// failPackage переводит package в FAILED с текстом ошибки.
// Ошибка стадии поглощается; наружу уходит только ошибка персистенции.
func (o *Orchestrator) failPackage(ctx context.Context, pkg *domain.Package, cause error) error {
	pkg.MarkFailed(cause.Error())
	if err := o.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("persist failed status: %w", err)
	}

	telemetry.PackagesFinished.WithLabelValues(string(domain.StatusFailed)).Inc()

	o.logger.Warn("package failed",
		"package_id", pkg.ID,
		"stage", pkg.Stage,
		"error", cause.Error(),
	)

	return nil
}
