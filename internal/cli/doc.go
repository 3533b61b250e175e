// Package cli реализует инструмент командной строки SuperTask.
//
// # Обзор
//
// CLI — клиентская утилита для SuperTask API. Работает через HTTP.
// Из внутренних пакетов импортирует только domain: команда validate
// проверяет файл SuperTask локально, без сервера.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для SuperTask API. Инкапсулирует HTTP-запросы и
// разбор конвертов ответа (data, list, error). Ошибки API
// возвращаются как *APIError с HTTP статусом и кодом.
//
//	client := cli.NewClient("http://localhost:8080")
//	models, err := client.ListSuperTasks()
//
// ## Output
//
// Форматирование вывода (флаг -o/--output, --json как сокращение):
//   - table: списки через text/tabwriter, show — пары «поле: значение»
//   - json: ответ API как есть
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: supertask st list -o json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - supertask: list, show, put, delete, validate
//   - schedule: запуск SuperTask (синхронно или --async)
//   - job: list, show, tasks, cancel
//
// Каждая группа создаётся через фабричную функцию (NewSuperTaskCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
