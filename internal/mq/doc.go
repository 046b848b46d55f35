// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - package.pending — новый пакет ожидает обработки
//
// Exchanges:
//   - packsmith.packages — события пакетов
//   - packsmith.dlq      — dead letter queue
package mq
