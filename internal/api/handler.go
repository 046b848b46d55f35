package api

import (
	"log/slog"

	"github.com/shaiso/Packsmith/internal/mq"
	"github.com/shaiso/Packsmith/internal/repo"
	"github.com/shaiso/Packsmith/internal/storage"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	packageRepo *repo.PackageRepo
	artifacts   *storage.ArtifactStore
	publisher   *mq.Publisher
	logger      *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	PackageRepo *repo.PackageRepo
	Artifacts   *storage.ArtifactStore
	Publisher   *mq.Publisher
	Logger      *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		packageRepo: cfg.PackageRepo,
		artifacts:   cfg.Artifacts,
		publisher:   cfg.Publisher,
		logger:      cfg.Logger,
	}
}
