package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Packsmith/internal/domain"
	"github.com/shaiso/Packsmith/internal/renderer"
	"github.com/shaiso/Packsmith/internal/script"
)

// --- Fakes ---

// memStore is an in-memory Store. Reads return copies so mutations
// only become visible through Update, like a real database.
type memStore struct {
	mu   sync.Mutex
	pkgs map[uuid.UUID]domain.Package
}

func newMemStore() *memStore {
	return &memStore{pkgs: make(map[uuid.UUID]domain.Package)}
}

func (s *memStore) Create(_ context.Context, pkg *domain.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pkgs[pkg.ID] = *pkg
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkg, ok := s.pkgs[id]
	if !ok {
		return nil, fmt.Errorf("package %s not found", id)
	}
	copied := pkg
	return &copied, nil
}

func (s *memStore) Update(_ context.Context, pkg *domain.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pkgs[pkg.ID]; !ok {
		return fmt.Errorf("package %s not found", pkg.ID)
	}
	s.pkgs[pkg.ID] = *pkg
	return nil
}

func (s *memStore) ListPending(_ context.Context, limit int) ([]domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Package
	for _, pkg := range s.pkgs {
		if pkg.Status == domain.StatusPending && len(out) < limit {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (s *memStore) ListUnfinished(_ context.Context) ([]domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Package
	for _, pkg := range s.pkgs {
		if !pkg.Status.IsTerminal() {
			out = append(out, pkg)
		}
	}
	return out, nil
}

type fakeArtifacts struct {
	missing map[string]bool
}

func (f *fakeArtifacts) Exists(path string) bool {
	return !f.missing[path]
}

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (domain.InstallerMetadata, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return domain.InstallerMetadata{}, f.err
	}
	return domain.InstallerMetadata{
		Name:    "Widget",
		Version: "1.2.3",
		Vendor:  "Acme",
		Kind:    domain.KindMSI,
	}, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, _ domain.InstallerMetadata, _ string) (*script.Script, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &script.Script{
		Variables: map[string]string{"appVendor": "Acme", "appName": "Widget", "appVersion": "1.2.3"},
		Sections: []script.Section{
			{
				Phase: script.PhasePreInstallation,
				Commands: []script.Command{
					{Name: "Show-InstallationWelcome", Parameters: map[string]any{"CloseApps": "widget"}},
				},
			},
			{
				Phase: script.PhaseInstallation,
				Commands: []script.Command{
					{Name: "Execute-MSI", Parameters: map[string]any{"Action": "Install", "Path": "widget.msi"}},
					{Name: "Write-Log", Parameters: map[string]any{"Message": "installed"}},
				},
			},
		},
	}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLinter struct {
	result domain.LintResult
}

func (f *fakeLinter) Lint(_ string) domain.LintResult {
	return f.result
}

type fixture struct {
	orch      *Orchestrator
	store     *memStore
	artifacts *fakeArtifacts
	extractor *fakeExtractor
	generator *fakeGenerator
	linter    *fakeLinter
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMemStore(),
		artifacts: &fakeArtifacts{missing: make(map[string]bool)},
		extractor: &fakeExtractor{},
		generator: &fakeGenerator{},
		linter:    &fakeLinter{result: domain.LintResult{Pass: true}},
	}
	f.orch = New(Config{
		Store:     f.store,
		Artifacts: f.artifacts,
		Extractor: f.extractor,
		Generator: f.generator,
		Renderer:  RendererFunc(renderer.Render),
		Linter:    f.linter,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func (f *fixture) mustGet(t *testing.T, id uuid.UUID) *domain.Package {
	t.Helper()
	pkg, err := f.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

// --- Pipeline Tests ---

func TestProcess_HappyPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, err := f.orch.Submit(ctx, "/artifacts/widget.msi", "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED (error: %s)", got.Status, got.ErrorMessage)
	}
	if got.Metadata.Name != "Widget" {
		t.Errorf("metadata name = %q", got.Metadata.Name)
	}
	if len(got.ScriptIR) == 0 {
		t.Error("script IR should be persisted")
	}
	if !strings.Contains(got.RenderedScript, "Execute-MSI -Action 'Install' -Path 'widget.msi'") {
		t.Errorf("rendered script missing install command:\n%s", got.RenderedScript)
	}
	if got.LintResult == nil || !got.LintResult.Pass {
		t.Error("lint result should be persisted and passing")
	}
	if got.ErrorMessage != "" {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
}

func TestProcess_ExtractFailureFailsPackage(t *testing.T) {
	f := newFixture()
	f.extractor.err = errors.New("unsupported installer type \".deb\"")
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/app.deb", "")

	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatalf("stage failure should be absorbed: %v", err)
	}

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want FAILED", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "unsupported installer type") {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
	if f.generator.callCount() != 0 {
		t.Error("generator should not run after extract failure")
	}
}

func TestProcess_GenerateFailureFailsPackage(t *testing.T) {
	f := newFixture()
	f.generator.err = errors.New("script generation failed after 2 attempts: unknown phase")
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatalf("stage failure should be absorbed: %v", err)
	}

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want FAILED", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "generation failed after 2 attempts") {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
	if got.Metadata.Name != "Widget" {
		t.Error("metadata from the completed stage should survive the failure")
	}
}

func TestProcess_LintFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.linter.result = domain.LintResult{
		Pass: false,
		Violations: []domain.LintViolation{
			{Severity: domain.SeverityError, Message: "script never calls Exit-Script"},
		},
	}
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("lint failure should still complete, got %s", got.Status)
	}
	if got.LintResult == nil || got.LintResult.Pass {
		t.Error("failing lint result should be attached")
	}
}

func TestProcess_FinishedPackageIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")
	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatal(err)
	}

	before := f.extractor.calls
	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatal(err)
	}
	if f.extractor.calls != before {
		t.Error("finished package should not be reprocessed")
	}
}

// --- Resume Tests ---

func TestProcess_ResumeFromGenerating(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	// Simulate a crash mid-generation: checkpoint persisted, result not
	stored := f.mustGet(t, pkg.ID)
	stored.SetMetadata(domain.InstallerMetadata{Name: "Widget", Version: "1.2.3", Vendor: "Acme", Kind: domain.KindMSI})
	stored.MarkStage(domain.StatusGenerating, StageGenerate)
	if err := f.store.Update(ctx, stored); err != nil {
		t.Fatal(err)
	}

	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatal(err)
	}

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	// Extraction already happened; only generation onwards re-runs
	if f.extractor.calls != 0 {
		t.Errorf("extractor calls = %d, want 0", f.extractor.calls)
	}
	if f.generator.callCount() != 1 {
		t.Errorf("generator calls = %d, want 1", f.generator.callCount())
	}
}

func TestProcess_ResumeFromRenderingUsesPersistedIR(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	ir, _ := f.generator.Generate(ctx, domain.InstallerMetadata{}, "")
	raw, err := json.Marshal(ir)
	if err != nil {
		t.Fatal(err)
	}

	stored := f.mustGet(t, pkg.ID)
	stored.SetMetadata(domain.InstallerMetadata{Name: "Widget", Version: "1.2.3", Vendor: "Acme", Kind: domain.KindMSI})
	stored.SetScriptIR(raw)
	stored.MarkStage(domain.StatusRendering, StageRender)
	if err := f.store.Update(ctx, stored); err != nil {
		t.Fatal(err)
	}

	generatorCallsBefore := f.generator.callCount()

	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatal(err)
	}

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	// The external capability must not be called again on resume
	if f.generator.callCount() != generatorCallsBefore {
		t.Error("resume at rendering should not regenerate the script")
	}
	if got.RenderedScript == "" {
		t.Error("script should be rendered from the persisted IR")
	}
}

func TestProcess_ResumeFromLintingOnlyRelints(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	stored := f.mustGet(t, pkg.ID)
	stored.SetScript("Exit-Script -ExitCode 0", nil)
	stored.MarkStage(domain.StatusLinting, StageLint)
	if err := f.store.Update(ctx, stored); err != nil {
		t.Fatal(err)
	}

	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatal(err)
	}

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	if f.extractor.calls != 0 || f.generator.callCount() != 0 {
		t.Error("resume at linting should not re-run earlier stages")
	}
	// The rendered script is untouched
	if got.RenderedScript != "Exit-Script -ExitCode 0" {
		t.Errorf("rendered script changed: %q", got.RenderedScript)
	}
}

func TestResumeAll_ResumesUnfinished(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	if err := f.orch.ResumeAll(ctx); err != nil {
		t.Fatal(err)
	}
	f.orch.Stop() // waits for the processing goroutine

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
}

func TestResumeAll_MissingArtifactFailsPackage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	gone, _ := f.orch.Submit(ctx, "/artifacts/gone.msi", "")
	alive, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")
	f.artifacts.missing["/artifacts/gone.msi"] = true

	if err := f.orch.ResumeAll(ctx); err != nil {
		t.Fatal(err)
	}
	f.orch.Stop()

	gotGone := f.mustGet(t, gone.ID)
	if gotGone.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want FAILED", gotGone.Status)
	}
	if gotGone.ErrorMessage != "artifact missing: /artifacts/gone.msi" {
		t.Errorf("error message = %q", gotGone.ErrorMessage)
	}

	// The other package still progresses
	gotAlive := f.mustGet(t, alive.ID)
	if gotAlive.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", gotAlive.Status)
	}
}

func TestResumeAll_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	if err := f.orch.ResumeAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.orch.ResumeAll(ctx); err != nil {
		t.Fatal(err)
	}
	f.orch.Stop()

	if err := f.orch.ResumeAll(ctx); err != nil {
		t.Fatal(err)
	}
	f.orch.Stop()

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
}

// --- Active Tracking Tests ---

func TestAddActive_AtMostOneHandler(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	if !f.orch.addActive(id) {
		t.Fatal("first add should succeed")
	}
	if f.orch.addActive(id) {
		t.Error("second add for the same package should fail")
	}
	if f.orch.ActiveCount() != 1 {
		t.Errorf("active count = %d, want 1", f.orch.ActiveCount())
	}

	f.orch.removeActive(id)
	if f.orch.isActive(id) {
		t.Error("package should be inactive after remove")
	}
	if !f.orch.addActive(id) {
		t.Error("add after remove should succeed")
	}
}

// --- Service Tests ---

func TestSubmit_CreatesPendingPackage(t *testing.T) {
	f := newFixture()

	pkg, err := f.orch.Submit(context.Background(), "/artifacts/widget.msi", "no shortcuts")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := f.mustGet(t, pkg.ID)
	if got.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", got.Status)
	}
	if got.UserNotes != "no shortcuts" {
		t.Errorf("user notes = %q", got.UserNotes)
	}
}

func TestGetStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	info, err := f.orch.GetStatus(ctx, pkg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", info.Status)
	}
}

func TestGetResult_NotReady(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")

	_, err := f.orch.GetResult(ctx, pkg.ID)

	var notReady *NotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("expected *NotReadyError, got %v", err)
	}
	if notReady.Status != domain.StatusPending {
		t.Errorf("not-ready status = %s", notReady.Status)
	}
}

func TestGetResult_Completed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pkg, _ := f.orch.Submit(ctx, "/artifacts/widget.msi", "")
	if err := f.orch.process(ctx, pkg.ID); err != nil {
		t.Fatal(err)
	}

	result, err := f.orch.GetResult(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ScriptText == "" {
		t.Error("result should carry the script text")
	}
	if result.LintResult == nil {
		t.Error("result should carry the lint result")
	}
}
