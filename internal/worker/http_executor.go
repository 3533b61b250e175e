package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shaiso/SuperTask/internal/task"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxRetries  = 3
)

// HTTPExecutor — executor для модели, доступной по HTTP.
//
// Отправляет POST на Endpoint:
//
//	{"task_id": "...", "name": "...", "input": {...}, "output": {...}}
//
// Ожидает JSON объект в ответ. Если в нём есть ключ "values" (объект),
// ответом считается он, иначе весь объект.
//
// HTTP >= 500 и сетевые ошибки повторяются с exponential backoff.
// HTTP 4xx — логическая ошибка без повторов.
type HTTPExecutor struct {
	// Endpoint — URL модели.
	Endpoint string

	// Client — HTTP клиент (по умолчанию http.DefaultClient).
	Client *http.Client

	// Timeout — таймаут одной попытки (по умолчанию 30s).
	Timeout time.Duration

	// MaxRetries — число повторов (по умолчанию 3, отрицательное — без повторов).
	MaxRetries int

	// BackOff — фабрика стратегии повторов (по умолчанию exponential).
	BackOff func() backoff.BackOff
}

// modelRequest — тело запроса к модели.
type modelRequest struct {
	TaskID string         `json:"task_id"`
	Name   string         `json:"name"`
	Input  map[string]any `json:"input,omitempty"`
	Output map[string]any `json:"output,omitempty"`
}

// Execute выполняет запрос к модели с повторами.
func (e *HTTPExecutor) Execute(ctx context.Context, req task.Request) (*ExecutionResult, error) {
	body, err := json.Marshal(modelRequest{
		TaskID: req.TaskID,
		Name:   req.Name,
		Input:  req.Input,
		Output: req.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal body: %v", ErrHTTPRequest, err)
	}

	var result *ExecutionResult
	operation := func() error {
		res, err := e.do(ctx, body)
		if err != nil {
			return err
		}
		result = res
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(e.backOff(), ctx)); err != nil {
		return nil, err
	}

	return result, nil
}

// do выполняет одну попытку.
// Ошибки, которые не имеет смысла повторять, оборачиваются в backoff.Permanent.
func (e *HTTPExecutor) do(ctx context.Context, body []byte) (*ExecutionResult, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrHTTPRequest, resp.StatusCode, truncate(string(respBody), 200))
	case resp.StatusCode >= 400:
		return &ExecutionResult{
			Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
		}, nil
	}

	values, err := parseValues(respBody)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	return &ExecutionResult{Values: values}, nil
}

func (e *HTTPExecutor) backOff() backoff.BackOff {
	var b backoff.BackOff
	if e.BackOff != nil {
		b = e.BackOff()
	} else {
		b = backoff.NewExponentialBackOff()
	}

	retries := e.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}
	if retries < 0 {
		retries = 0
	}

	return backoff.WithMaxRetries(b, uint64(retries))
}

// parseValues разбирает ответ модели.
func parseValues(body []byte) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if values, ok := obj["values"].(map[string]any); ok {
		return values, nil
	}

	return obj, nil
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
