package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Packsmith/internal/domain"
)

// PackageRepo — репозиторий для работы с packages.
//
// Все операции — одиночные чтения/записи строки; переходы стадий
// конвейера укладываются в read-modify-write без длинных транзакций,
// чтобы медленные внешние вызовы не держали блокировки БД.
type PackageRepo struct {
	pool *pgxpool.Pool
}

// NewPackageRepo создаёт новый PackageRepo.
func NewPackageRepo(pool *pgxpool.Pool) *PackageRepo {
	return &PackageRepo{pool: pool}
}

// packageColumns — список колонок для SELECT.
const packageColumns = `
	id, artifact_path, user_notes,
	name, version, vendor, architecture, kind, silent_args, uninstall_args, language,
	status, stage, script_ir, rendered_script, render_warnings, lint_result, error_message,
	created_at, updated_at
`

// Create создаёт новый package.
func (r *PackageRepo) Create(ctx context.Context, pkg *domain.Package) error {
	warningsJSON, lintJSON, err := marshalResults(pkg)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO packages (
			id, artifact_path, user_notes,
			name, version, vendor, architecture, kind, silent_args, uninstall_args, language,
			status, stage, script_ir, rendered_script, render_warnings, lint_result, error_message,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err = r.pool.Exec(ctx, query,
		pkg.ID,
		pkg.ArtifactPath,
		nullString(pkg.UserNotes),
		nullString(pkg.Metadata.Name),
		nullString(pkg.Metadata.Version),
		nullString(pkg.Metadata.Vendor),
		nullString(string(pkg.Metadata.Architecture)),
		nullString(string(pkg.Metadata.Kind)),
		nullString(pkg.Metadata.SilentArgs),
		nullString(pkg.Metadata.UninstallArgs),
		nullString(pkg.Metadata.Language),
		pkg.Status,
		nullString(pkg.Stage),
		nullBytes(pkg.ScriptIR),
		nullString(pkg.RenderedScript),
		warningsJSON,
		lintJSON,
		nullString(pkg.ErrorMessage),
		pkg.CreatedAt,
		pkg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

// GetByID возвращает package по ID.
func (r *PackageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1`
	return scanPackage(r.pool.QueryRow(ctx, query, id))
}

// Update обновляет package целиком (одна строка, один write).
func (r *PackageRepo) Update(ctx context.Context, pkg *domain.Package) error {
	warningsJSON, lintJSON, err := marshalResults(pkg)
	if err != nil {
		return err
	}

	query := `
		UPDATE packages
		SET user_notes = $2,
		    name = $3, version = $4, vendor = $5, architecture = $6, kind = $7,
		    silent_args = $8, uninstall_args = $9, language = $10,
		    status = $11, stage = $12, script_ir = $13, rendered_script = $14,
		    render_warnings = $15, lint_result = $16, error_message = $17,
		    updated_at = $18
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		pkg.ID,
		nullString(pkg.UserNotes),
		nullString(pkg.Metadata.Name),
		nullString(pkg.Metadata.Version),
		nullString(pkg.Metadata.Vendor),
		nullString(string(pkg.Metadata.Architecture)),
		nullString(string(pkg.Metadata.Kind)),
		nullString(pkg.Metadata.SilentArgs),
		nullString(pkg.Metadata.UninstallArgs),
		nullString(pkg.Metadata.Language),
		pkg.Status,
		nullString(pkg.Stage),
		nullBytes(pkg.ScriptIR),
		nullString(pkg.RenderedScript),
		warningsJSON,
		lintJSON,
		nullString(pkg.ErrorMessage),
		pkg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List возвращает список packages с фильтрацией.
func (r *PackageRepo) List(ctx context.Context, filter PackageFilter) ([]domain.Package, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + packageColumns + `
		FROM packages
		WHERE ($1::text IS NULL OR status = $1::package_status)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(string(filter.Status)),
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// ListUnfinished возвращает packages в нетерминальных статусах.
// Используется протоколом возобновления при старте процесса.
func (r *PackageRepo) ListUnfinished(ctx context.Context) ([]domain.Package, error) {
	query := `
		SELECT ` + packageColumns + `
		FROM packages
		WHERE status NOT IN ('COMPLETED', 'FAILED')
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unfinished packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// ListPending возвращает packages в статусе PENDING (для polling fallback).
func (r *PackageRepo) ListPending(ctx context.Context, limit int) ([]domain.Package, error) {
	query := `
		SELECT ` + packageColumns + `
		FROM packages
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// Delete удаляет package. Конвейер packages не удаляет —
// это CRUD-операция внешнего слоя.
func (r *PackageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// PackageFilter — параметры фильтрации packages.
type PackageFilter struct {
	Status domain.PackageStatus
	Limit  int
	Offset int
}

// marshalResults сериализует JSONB-поля package.
func marshalResults(pkg *domain.Package) (warningsJSON, lintJSON []byte, err error) {
	if len(pkg.RenderWarnings) > 0 {
		warningsJSON, err = json.Marshal(pkg.RenderWarnings)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal render warnings: %w", err)
		}
	}
	if pkg.LintResult != nil {
		lintJSON, err = json.Marshal(pkg.LintResult)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal lint result: %w", err)
		}
	}
	return warningsJSON, lintJSON, nil
}

// collectPackages сканирует все строки результата.
func collectPackages(rows pgx.Rows) ([]domain.Package, error) {
	var pkgs []domain.Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, *pkg)
	}
	return pkgs, rows.Err()
}

// scanPackage сканирует одну строку в Package.
func scanPackage(row pgx.Row) (*domain.Package, error) {
	var pkg domain.Package
	var (
		userNotes, name, version, vendor, architecture, kind *string
		silentArgs, uninstallArgs, language, stage           *string
		renderedScript, errorMessage                         *string
		irJSON, warningsJSON, lintJSON                       []byte
	)

	err := row.Scan(
		&pkg.ID,
		&pkg.ArtifactPath,
		&userNotes,
		&name,
		&version,
		&vendor,
		&architecture,
		&kind,
		&silentArgs,
		&uninstallArgs,
		&language,
		&pkg.Status,
		&stage,
		&irJSON,
		&renderedScript,
		&warningsJSON,
		&lintJSON,
		&errorMessage,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan package: %w", err)
	}

	pkg.UserNotes = deref(userNotes)
	pkg.Metadata = domain.InstallerMetadata{
		Name:          deref(name),
		Version:       deref(version),
		Vendor:        deref(vendor),
		Architecture:  domain.Architecture(deref(architecture)),
		Kind:          domain.InstallerKind(deref(kind)),
		SilentArgs:    deref(silentArgs),
		UninstallArgs: deref(uninstallArgs),
		Language:      deref(language),
	}
	pkg.Stage = deref(stage)
	pkg.ScriptIR = irJSON
	pkg.RenderedScript = deref(renderedScript)
	pkg.ErrorMessage = deref(errorMessage)

	if warningsJSON != nil {
		if err := json.Unmarshal(warningsJSON, &pkg.RenderWarnings); err != nil {
			return nil, fmt.Errorf("unmarshal render warnings: %w", err)
		}
	}
	if lintJSON != nil {
		var lint domain.LintResult
		if err := json.Unmarshal(lintJSON, &lint); err != nil {
			return nil, fmt.Errorf("unmarshal lint result: %w", err)
		}
		pkg.LintResult = &lint
	}

	return &pkg, nil
}

// nullBytes возвращает nil для пустого среза (для NULL в JSONB-колонке).
func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// deref возвращает пустую строку для nil.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
