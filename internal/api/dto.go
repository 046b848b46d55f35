package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Packsmith/internal/domain"
)

// Package DTOs

// PackageResponse — ответ с package.
type PackageResponse struct {
	ID           uuid.UUID                `json:"id"`
	UserNotes    string                   `json:"user_notes,omitempty"`
	Metadata     domain.InstallerMetadata `json:"metadata"`
	Status       domain.PackageStatus     `json:"status"`
	Stage        string                   `json:"stage,omitempty"`
	ErrorMessage string                   `json:"error_message,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// PackageFromDomain конвертирует domain.Package в PackageResponse.
func PackageFromDomain(p domain.Package) PackageResponse {
	return PackageResponse{
		ID:           p.ID,
		UserNotes:    p.UserNotes,
		Metadata:     p.Metadata,
		Status:       p.Status,
		Stage:        p.Stage,
		ErrorMessage: p.ErrorMessage,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// StatusResponse — ответ со статусом обработки.
type StatusResponse struct {
	ID           uuid.UUID            `json:"id"`
	Status       domain.PackageStatus `json:"status"`
	Stage        string               `json:"stage,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// ScriptResponse — ответ с итоговым скриптом.
type ScriptResponse struct {
	ID             uuid.UUID          `json:"id"`
	ScriptText     string             `json:"script_text"`
	RenderWarnings []string           `json:"render_warnings,omitempty"`
	LintResult     *domain.LintResult `json:"lint_result"`
}
