// Package cli реализует инструмент командной строки Packsmith.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Packsmith API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для загрузки инсталляторов и получения скриптов.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Packsmith API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	pkgs, err := client.ListPackages(cli.ListPackagesOpts{})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: packsmith package list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - package: submit, list, show, status, script
//
// Каждая группа создаётся через фабричную функцию (NewPackageCmd),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
