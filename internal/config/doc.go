// Package config загружает конфигурацию SuperTask.
//
// Источники (по убыванию приоритета):
//   - переменные окружения с префиксом SUPERTASK_ (точка заменяется на _),
//     например SUPERTASK_DATABASE_URL, SUPERTASK_ROUTER_BACKOFF_MIN
//   - файл конфигурации (yaml/json/toml), путь из SUPERTASK_CONFIG
//   - значения по умолчанию
//
// После загрузки конфигурация валидируется (go-playground/validator).
package config
