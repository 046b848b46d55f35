// Package scheduler реализует периодическую сверку конвейера.
//
// Reconciler по cron-расписанию перезапускает протокол возобновления
// оркестратора, подхватывая packages, застрявшие в нетерминальных
// статусах из-за инфраструктурных сбоев.
//
// Использование:
//
//	rec := scheduler.New(orch, logger)
//	if err := rec.Start(ctx); err != nil {
//	    return err
//	}
//	defer rec.Stop()
package scheduler
