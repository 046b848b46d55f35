package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Packsmith/internal/domain"
	"github.com/shaiso/Packsmith/internal/mq"
	"github.com/shaiso/Packsmith/internal/script"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 50
)

// Stage labels — метки стадий, персистируемые вместе со статусом.
const (
	StageExtract  = "extract"
	StageGenerate = "generate"
	StageRender   = "render"
	StageLint     = "lint"
)

// Store — персистентное хранилище packages.
// Реализуется repo.PackageRepo; в тестах — in-memory фейком.
type Store interface {
	Create(ctx context.Context, pkg *domain.Package) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Package, error)
	Update(ctx context.Context, pkg *domain.Package) error
	ListPending(ctx context.Context, limit int) ([]domain.Package, error)
	ListUnfinished(ctx context.Context) ([]domain.Package, error)
}

// MetadataExtractor извлекает метаданные из артефакта инсталлятора.
type MetadataExtractor interface {
	Extract(ctx context.Context, artifactPath string) (domain.InstallerMetadata, error)
}

// ScriptGenerator генерирует структурированный скрипт по метаданным.
type ScriptGenerator interface {
	Generate(ctx context.Context, meta domain.InstallerMetadata, userNotes string) (*script.Script, error)
}

// ScriptRenderer разворачивает IR в текст скрипта.
// Рендер чистый и никогда не падает: непригодные команды
// пропускаются с предупреждением.
type ScriptRenderer interface {
	Render(ir *script.Script) (text string, warnings []string)
}

// RendererFunc — адаптер функции рендера к интерфейсу ScriptRenderer.
type RendererFunc func(ir *script.Script) (string, []string)

func (f RendererFunc) Render(ir *script.Script) (string, []string) {
	return f(ir)
}

// ScriptLinter проверяет текст скрипта на соответствие правилам.
type ScriptLinter interface {
	Lint(scriptText string) domain.LintResult
}

// ArtifactChecker проверяет наличие артефакта на диске.
type ArtifactChecker interface {
	Exists(path string) bool
}

// Orchestrator управляет прохождением packages по конвейеру.
//
// Orchestrator — центральный компонент системы, который:
//   - Получает новые packages из очереди RabbitMQ (event-driven)
//   - Периодически проверяет pending packages в БД (polling fallback)
//   - Ведёт package через стадии extract → generate → render → lint
//   - Персистит checkpoint (статус, стадия) до и после каждой стадии
//   - Возобновляет незавершённые packages при старте процесса
//   - Финализирует packages (COMPLETED/FAILED)
type Orchestrator struct {
	// Components
	store     Store
	artifacts ArtifactChecker
	extractor MetadataExtractor
	generator ScriptGenerator
	renderer  ScriptRenderer
	linter    ScriptLinter

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Active packages — packages в процессе обработки.
	// Гарантия: не больше одного обработчика на package.
	active map[uuid.UUID]struct{}
	mu     sync.RWMutex

	// Consumer
	consumer *mq.Consumer

	// Configuration
	pollInterval time.Duration
	batchSize    int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Components
	Store     Store
	Artifacts ArtifactChecker
	Extractor MetadataExtractor
	Generator ScriptGenerator
	Renderer  ScriptRenderer
	Linter    ScriptLinter

	// MQ. Опциональны: без Conn оркестратор работает только на polling,
	// без Publisher события о новых packages не публикуются.
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество packages за один poll (default: 50)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		store:        cfg.Store,
		artifacts:    cfg.Artifacts,
		extractor:    cfg.Extractor,
		generator:    cfg.Generator,
		renderer:     cfg.Renderer,
		linter:       cfg.Linter,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		active:       make(map[uuid.UUID]struct{}),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Start запускает Orchestrator.
//
// Запускает:
//   - Consumer для packages.pending (если настроен Conn)
//   - Polling горутину для fallback
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.cancelFunc = cancel

	o.logger.Info("starting orchestrator",
		"poll_interval", o.pollInterval,
		"batch_size", o.batchSize,
	)

	if o.conn != nil {
		o.consumer = mq.NewConsumer(o.conn, o.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueuePackagesPending),
			Handler:  o.handlePackagePending,
			Prefetch: 10,
		})

		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				o.logger.Error("package consumer error", "error", err)
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.pollLoop(ctx)
	}()

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает Orchestrator и дожидается завершения обработчиков.
func (o *Orchestrator) Stop() {
	o.logger.Info("stopping orchestrator...")

	if o.cancelFunc != nil {
		o.cancelFunc()
	}

	if o.consumer != nil {
		o.consumer.Stop()
	}

	o.wg.Wait()

	o.logger.Info("orchestrator stopped",
		"active_packages", o.ActiveCount(),
	)
}

// pollLoop — цикл polling для fallback.
func (o *Orchestrator) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем packages,
	// созданные пока были выключены)
	o.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (o *Orchestrator) poll(ctx context.Context) {
	pkgs, err := o.store.ListPending(ctx, o.batchSize)
	if err != nil {
		o.logger.Error("failed to list pending packages", "error", err)
		return
	}

	if len(pkgs) == 0 {
		return
	}

	o.logger.Debug("poll found pending packages", "count", len(pkgs))

	for i := range pkgs {
		o.startPackage(ctx, pkgs[i].ID)
	}
}

// startPackage запускает обработку package в отдельной горутине.
// Если package уже обрабатывается, вызов игнорируется.
func (o *Orchestrator) startPackage(ctx context.Context, id uuid.UUID) {
	if !o.addActive(id) {
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.removeActive(id)

		if err := o.process(ctx, id); err != nil {
			o.logger.Error("package processing error",
				"package_id", id,
				"error", err,
			)
		}
	}()
}

// --- Active packages ---

// isActive проверяет, обрабатывается ли package.
func (o *Orchestrator) isActive(id uuid.UUID) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, exists := o.active[id]
	return exists
}

// addActive добавляет package в активные.
// Возвращает false, если package уже активен.
func (o *Orchestrator) addActive(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.active[id]; exists {
		return false
	}

	o.active[id] = struct{}{}
	return true
}

// removeActive удаляет package из активных.
func (o *Orchestrator) removeActive(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, id)
}

// ActiveCount возвращает количество активных packages.
func (o *Orchestrator) ActiveCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.active)
}
