package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/robfig/cron/v3"
)

// defaultCronSpec — расписание сверки по умолчанию (каждые 10 минут).
const defaultCronSpec = "*/10 * * * *"

// Resumer — часть оркестратора, нужная для сверки.
type Resumer interface {
	ResumeAll(ctx context.Context) error
}

// Reconciler периодически перезапускает протокол возобновления.
//
// Основной проход возобновления выполняется один раз при старте процесса.
// Сверка подстраховывает его: package, застрявший в нетерминальном статусе
// из-за инфраструктурного сбоя (недоступная БД в момент обработки,
// потерянное событие), будет подхвачен следующим тиком. Повторный вызов
// ResumeAll идемпотентен, поэтому сверка безопасна в любой момент.
type Reconciler struct {
	resumer  Resumer
	cronSpec string
	cron     *cron.Cron
	logger   *slog.Logger
}

// New создаёт Reconciler.
// Расписание берётся из переменной окружения RECONCILE_CRON
// (cron-выражение из пяти полей), по умолчанию каждые 10 минут.
func New(resumer Resumer, logger *slog.Logger) *Reconciler {
	spec := os.Getenv("RECONCILE_CRON")
	if spec == "" {
		spec = defaultCronSpec
	}

	return &Reconciler{
		resumer:  resumer,
		cronSpec: spec,
		logger:   logger,
	}
}

// Start запускает периодическую сверку.
func (r *Reconciler) Start(ctx context.Context) error {
	r.cron = cron.New()

	_, err := r.cron.AddFunc(r.cronSpec, func() {
		if err := r.Tick(ctx); err != nil {
			r.logger.Error("reconcile tick failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", r.cronSpec, err)
	}

	r.cron.Start()
	r.logger.Info("reconciler started", "cron", r.cronSpec)

	return nil
}

// Tick выполняет одну сверку.
func (r *Reconciler) Tick(ctx context.Context) error {
	r.logger.Debug("reconcile tick")
	return r.resumer.ResumeAll(ctx)
}

// Stop останавливает сверку и дожидается завершения текущего тика.
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.logger.Info("reconciler stopped")
}
