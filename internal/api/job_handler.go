package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/repo"
)

// GetJob возвращает job по ID.
// GET /api/v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	job, err := h.jobs.Get(r.Context(), id)
	if HandleError(w, h.logger, err, "job not found") {
		return
	}

	Success(w, JobFromDomain(*job))
}

// CancelJob отменяет выполняющийся job.
// POST /api/v1/jobs/{id}/cancel
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	if err := h.jobs.Cancel(id); HandleError(w, h.logger, err, "job not running") {
		return
	}

	h.logger.Info("job cancel requested", "job_id", id)
	NoContent(w)
}

// ListJobs возвращает job из хранилища.
// GET /api/v1/jobs?parent_id=&name=&status=&limit=&offset=
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter repo.JobFilter
	if v := q.Get("parent_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			BadRequest(w, "invalid parent_id")
			return
		}
		filter.ParentID = id
	}

	filter.Name = q.Get("name")

	if v := q.Get("status"); v != "" {
		status := domain.JobStatus(v)
		if !status.IsValid() {
			BadRequest(w, "invalid status: "+v)
			return
		}
		filter.Status = status
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		BadRequest(w, "invalid offset")
		return
	}

	list, err := h.history.List(r.Context(), filter)
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]JobResponse, len(list))
	for i, j := range list {
		result[i] = JobFromDomain(j)
	}

	List(w, result, len(result))
}

// ListJobTasks возвращает задачи, отправленные из job.
// GET /api/v1/jobs/{id}/tasks
func (h *Handler) ListJobTasks(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	list, err := h.tasks.ListByJobID(r.Context(), id)
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]TaskResponse, len(list))
	for i, t := range list {
		result[i] = TaskFromDomain(t)
	}

	List(w, result, len(result))
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number %q", v)
	}
	return n, nil
}
