package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/Packsmith/internal/domain"
	"github.com/shaiso/Packsmith/internal/repo"
	"github.com/shaiso/Packsmith/internal/telemetry"
)

// maxUploadSize — лимит размера загружаемого артефакта (2 GiB).
const maxUploadSize = 2 << 30

// allowedExtensions — принимаемые расширения артефактов.
var allowedExtensions = map[string]bool{
	".msi": true,
	".exe": true,
}

// SubmitPackage принимает артефакт инсталлятора и создаёт package.
// POST /api/v1/packages (multipart/form-data: artifact, notes)
func (h *Handler) SubmitPackage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("artifact")
	if err != nil {
		BadRequest(w, "missing artifact file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		BadRequest(w, "unsupported artifact type: expected .msi or .exe")
		return
	}

	artifactPath, err := h.artifacts.Save(header.Filename, file)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	pkg := domain.NewPackage(artifactPath, r.FormValue("notes"))
	if err := h.packageRepo.Create(r.Context(), pkg); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	telemetry.PackagesSubmitted.Inc()

	// Будим worker; при недоступном MQ package подхватит polling
	if h.publisher != nil {
		if err := h.publisher.PublishPackagePending(r.Context(), pkg.ID); err != nil {
			h.logger.Warn("failed to publish package.pending",
				"package_id", pkg.ID,
				"error", err,
			)
		}
	}

	h.logger.Info("package submitted",
		"package_id", pkg.ID,
		"filename", header.Filename,
		"size", header.Size,
	)

	Created(w, PackageFromDomain(*pkg))
}

// ListPackages возвращает список packages с фильтрацией.
// GET /api/v1/packages?status=...&limit=...&offset=...
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	filter := repo.PackageFilter{
		Status: domain.PackageStatus(r.URL.Query().Get("status")),
		Limit:  parseIntOr(r.URL.Query().Get("limit"), 50),
		Offset: parseIntOr(r.URL.Query().Get("offset"), 0),
	}

	pkgs, err := h.packageRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]PackageResponse, len(pkgs))
	for i, pkg := range pkgs {
		result[i] = PackageFromDomain(pkg)
	}

	List(w, result, len(result))
}

// GetPackage возвращает package по ID.
// GET /api/v1/packages/{id}
func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid package id")
		return
	}

	pkg, err := h.packageRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "package not found") {
		return
	}

	Success(w, PackageFromDomain(*pkg))
}

// GetPackageStatus возвращает статус обработки package.
// GET /api/v1/packages/{id}/status
func (h *Handler) GetPackageStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid package id")
		return
	}

	pkg, err := h.packageRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "package not found") {
		return
	}

	Success(w, StatusResponse{
		ID:           pkg.ID,
		Status:       pkg.Status,
		Stage:        pkg.Stage,
		ErrorMessage: pkg.ErrorMessage,
	})
}

// GetPackageScript возвращает итоговый скрипт package.
// Отвечает 409 NOT_READY, пока package не дошёл до COMPLETED.
// GET /api/v1/packages/{id}/script
func (h *Handler) GetPackageScript(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid package id")
		return
	}

	pkg, err := h.packageRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "package not found") {
		return
	}

	if pkg.Status != domain.StatusCompleted {
		NotReady(w, "package not ready: status "+string(pkg.Status))
		return
	}

	Success(w, ScriptResponse{
		ID:             pkg.ID,
		ScriptText:     pkg.RenderedScript,
		RenderWarnings: pkg.RenderWarnings,
		LintResult:     pkg.LintResult,
	})
}

// DeletePackage удаляет package и его артефакт.
// DELETE /api/v1/packages/{id}
func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid package id")
		return
	}

	pkg, err := h.packageRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "package not found") {
		return
	}

	if err := h.packageRepo.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, "package not found") {
		return
	}

	// Артефакт больше никому не нужен; ошибка удаления не фатальна.
	if err := h.artifacts.Remove(pkg.ArtifactPath); err != nil {
		h.logger.Warn("failed to remove artifact", "package_id", id, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseIntOr парсит целое из query-параметра с fallback.
func parseIntOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
