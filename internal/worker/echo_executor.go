package worker

import (
	"context"
	"maps"

	"github.com/shaiso/SuperTask/internal/task"
)

// EchoExecutor — executor для ботов.
//
// Заполняет поля выходной схемы значениями входа с тем же именем,
// остальные поля берутся из схемы как есть. Без схемы возвращает вход.
type EchoExecutor struct{}

// Execute формирует ответ из входа задачи.
func (e *EchoExecutor) Execute(ctx context.Context, req task.Request) (*ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(req.Output) == 0 {
		values := maps.Clone(req.Input)
		if values == nil {
			values = make(map[string]any)
		}
		return &ExecutionResult{Values: values}, nil
	}

	values := make(map[string]any, len(req.Output))
	for key, def := range req.Output {
		if v, ok := req.Input[key]; ok {
			values[key] = v
			continue
		}
		values[key] = def
	}

	return &ExecutionResult{Values: values}, nil
}
