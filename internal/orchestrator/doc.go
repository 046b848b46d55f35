// Package orchestrator ведёт packages по конвейеру обработки.
//
// Orchestrator отвечает за:
//   - Получение новых packages из очереди RabbitMQ (+ polling fallback)
//   - Прохождение стадий extract → generate → render → lint
//   - Персистирование checkpoint'ов до и после каждой стадии
//   - Возобновление незавершённых packages при старте процесса
//   - Финализацию package (COMPLETED/FAILED)
//
// Ошибки стадий не выходят за границу оркестратора: package переводится
// в FAILED с человекочитаемой причиной и остаётся доступен для запросов.
package orchestrator
