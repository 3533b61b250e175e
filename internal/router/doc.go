// Package router распределяет SuperTask между исполнителями.
//
// Включает:
//   - handler.go  — TaskHandler: одна попытка одного исполнителя с повторами
//   - state.go    — состояния TaskHandler и переходы между ними
//   - router.go   — TaskRouter: Map (отправка, ожидание, повторы) и Reduce
//   - backoff.go  — пауза перед повтором
//   - registry.go — пользовательские роутеры по имени
//
// Роутер не хранит результатов между вызовами: всё состояние одного
// выполнения находится в Dispatch и его TaskHandler'ах.
package router
