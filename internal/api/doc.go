// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (репозиторий, хранилище, publisher, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (logging, recovery)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - package_handler.go — обработчики для /packages
//
// API предоставляет REST endpoints для загрузки инсталляторов
// и получения статуса/результатов обработки.
package api
