package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/jobs"
	"github.com/shaiso/SuperTask/internal/task"
)

// ListSuperTasks возвращает список зарегистрированных SuperTask.
// GET /api/v1/supertasks
func (h *Handler) ListSuperTasks(w http.ResponseWriter, r *http.Request) {
	models, err := h.store.List(r.Context())
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]SuperTaskResponse, len(models))
	for i, m := range models {
		result[i] = SuperTaskFromDomain(m)
	}

	List(w, result, len(result))
}

// GetSuperTask возвращает SuperTask по имени.
// GET /api/v1/supertasks/{name}
func (h *Handler) GetSuperTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	m, err := h.store.GetByName(r.Context(), name)
	if HandleError(w, h.logger, err, "supertask not found") {
		return
	}

	Success(w, SuperTaskFromDomain(*m))
}

// PutSuperTask регистрирует или обновляет SuperTask.
// PUT /api/v1/supertasks/{name}
func (h *Handler) PutSuperTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req PutSuperTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	// Шаблон без имени получает имя SuperTask
	if req.Template.Name == "" {
		req.Template.Name = name
	}

	m := &domain.SuperTaskModel{
		Name:        name,
		Description: req.Description,
		Router:      req.Router,
		Config:      req.Config,
		Template:    req.Template,
	}

	if err := m.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := h.store.Put(r.Context(), m); HandleError(w, h.logger, err, "") {
		return
	}

	h.logger.Info("supertask registered", "supertask", name, "workers", len(m.Config.Workers), "strategy", m.Config.Params.Strategy)

	Success(w, SuperTaskFromDomain(*m))
}

// ScheduleSuperTask запускает SuperTask как дочерний job.
// POST /api/v1/supertasks/{name}/schedule?async=true
//
// По умолчанию ждёт завершения job и возвращает form_data.
// С async=true сразу возвращает 202 и job_id.
func (h *Handler) ScheduleSuperTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req ScheduleRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body: "+err.Error())
			return
		}
	}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))

	ctx := r.Context()
	if req.ParentID != nil {
		ctx = task.WithJobID(ctx, *req.ParentID)
	}

	wf, err := h.catalog.Workflow(ctx, name)
	if HandleError(w, h.logger, err, "supertask not found") {
		return
	}

	if async {
		// Job не должен зависеть от жизни HTTP запроса
		future, err := h.jobs.Execute(context.WithoutCancel(ctx), jobs.Request{
			Name:            wf.Name(),
			ParentID:        parentID(req),
			Params:          domain.JobParams{Input: req.Input, Output: req.Output},
			SuperTaskParams: req.SuperTaskParams,
		})
		if HandleError(w, h.logger, err, "supertask not found") {
			return
		}

		Accepted(w, ScheduledJobResponse{JobID: future.JobID()})
		return
	}

	resp, err := wf.Schedule(ctx, req.Input, req.Output, req.SuperTaskParams)
	if HandleError(w, h.logger, err, "supertask not found") {
		return
	}

	Success(w, ScheduleResponse{JobID: resp.JobID, FormData: resp.FormData})
}

func parentID(req ScheduleRequest) uuid.UUID {
	if req.ParentID == nil {
		return uuid.Nil
	}
	return *req.ParentID
}

// DeleteSuperTask удаляет SuperTask.
// DELETE /api/v1/supertasks/{name}
func (h *Handler) DeleteSuperTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.store.Delete(r.Context(), name); HandleError(w, h.logger, err, "supertask not found") {
		return
	}

	h.logger.Info("supertask deleted", "supertask", name)
	NoContent(w)
}
