package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/jobs"
	"github.com/shaiso/SuperTask/internal/repo"
	"github.com/shaiso/SuperTask/internal/workflow"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeInvalidState   ErrorCode = "INVALID_STATE"
	ErrCodeInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrCodeExpired        ErrorCode = "EXPIRED"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Accepted отправляет ответ о принятии асинхронной операции (202).
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, DataResponse{Data: data})
}

// NoContent отправляет ответ без тела (204).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeConflict, message)
}

// InvalidState отправляет ошибку 422.
func InvalidState(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidState, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// GatewayTimeout отправляет ошибку 504.
func GatewayTimeout(w http.ResponseWriter, message string) {
	Error(w, http.StatusGatewayTimeout, ErrCodeExpired, message)
}

// HandleError преобразует ошибку хранилища, валидации или job в HTTP ответ.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, jobs.ErrJobNotFound), errors.Is(err, jobs.ErrWorkflowNotFound):
		NotFound(w, notFoundMsg)

	case isValidationError(err):
		BadRequest(w, err.Error())

	case errors.Is(err, workflow.ErrChildJobFailed):
		InvalidState(w, err.Error())

	case errors.Is(err, workflow.ErrChildJobExpired):
		GatewayTimeout(w, err.Error())

	case errors.Is(err, workflow.ErrChildJobCancelled):
		Conflict(w, err.Error())

	default:
		InternalError(w, logger, err)
	}

	return true
}

// isValidationError проверяет, что ошибка вызвана невалидной конфигурацией SuperTask.
func isValidationError(err error) bool {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return true
	}

	for _, target := range []error{
		domain.ErrAbstractWorker,
		domain.ErrUnknownWorkerKind,
		domain.ErrWorkerKindMismatch,
		domain.ErrInvalidWorker,
		domain.ErrUnknownStrategy,
		domain.ErrEmptySuperTaskName,
		domain.ErrTemplateNameMismatch,
		workflow.ErrInvalidConfig,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
