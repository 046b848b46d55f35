// Package generator превращает метаданные инсталлятора и заметки
// пользователя в валидированный IR скрипта развёртывания.
//
// Единственный недетерминированный компонент конвейера. Недетерминизм
// ограничен: не более двух вызовов внешней способности на package —
// первый и ровно один корректирующий повтор после провала валидации.
// Безлимитные повторы против платной внешней способности запрещены.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shaiso/Packsmith/internal/domain"
	"github.com/shaiso/Packsmith/internal/script"
	"github.com/shaiso/Packsmith/internal/telemetry"
)

// GenerationError — генерация провалилась после корректирующего повтора.
// Терминальна для package.
type GenerationError struct {
	// Attempts — сколько вызовов способности было сделано.
	Attempts int

	// Err — причина последнего провала.
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("script generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Generator генерирует IR скрипта через внешнюю способность.
type Generator struct {
	completer Completer
	logger    *slog.Logger
}

// New создаёт Generator.
func New(completer Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		completer: completer,
		logger:    logger,
	}
}

// maxAttempts — жёсткий потолок вызовов способности на один package.
const maxAttempts = 2

// Generate строит промпт из метаданных и заметок, вызывает способность
// со схемой вывода и валидирует ответ.
//
// Провал валидации (битый JSON, команда вне allow-list, неизвестная фаза)
// вызывает ровно один повтор с корректирующей репликой; второй провал
// возвращается как *GenerationError и дальше не повторяется. Таймаут или
// транспортная ошибка способности подчиняются той же политике.
func (g *Generator) Generate(ctx context.Context, meta domain.InstallerMetadata, userNotes string) (*script.Script, error) {
	messages := buildMessages(meta, userNotes)

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := g.completer.Complete(ctx, CompletionRequest{
			Messages: messages,
			Schema:   script.Schema(),
		})
		if err != nil {
			lastErr = fmt.Errorf("completion: %w", err)
		} else {
			ir, parseErr := parseScript(raw)
			if parseErr == nil {
				telemetry.GenerationAttempts.WithLabelValues("ok").Inc()
				g.logger.Info("script generated",
					"app", meta.Name,
					"attempt", attempt,
					"sections", len(ir.Sections),
				)
				return ir, nil
			}
			lastErr = parseErr
		}

		telemetry.GenerationAttempts.WithLabelValues("invalid").Inc()
		g.logger.Warn("generation attempt failed",
			"app", meta.Name,
			"attempt", attempt,
			"error", lastErr,
		)

		// Корректирующая реплика для следующей (единственной) попытки.
		if attempt < maxAttempts {
			messages = append(messages, correctionMessage(lastErr))
		}
	}

	return nil, &GenerationError{Attempts: maxAttempts, Err: lastErr}
}

// parseScript разбирает и валидирует структурированный ответ способности.
func parseScript(raw json.RawMessage) (*script.Script, error) {
	var ir script.Script
	if err := json.Unmarshal(raw, &ir); err != nil {
		return nil, fmt.Errorf("malformed script JSON: %w", err)
	}
	if err := script.Validate(&ir); err != nil {
		return nil, err
	}
	return &ir, nil
}
