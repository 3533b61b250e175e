package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router возвращает http.Handler со всеми маршрутами API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		Logging(h.logger),
		Metrics(),
		chimiddleware.Recoverer,
	)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// SuperTasks
		r.Get("/supertasks", h.ListSuperTasks)
		r.Get("/supertasks/{name}", h.GetSuperTask)
		r.Put("/supertasks/{name}", h.PutSuperTask)
		r.Delete("/supertasks/{name}", h.DeleteSuperTask)
		r.Post("/supertasks/{name}/schedule", h.ScheduleSuperTask)

		// Jobs
		if h.history != nil {
			r.Get("/jobs", h.ListJobs)
		}
		r.Get("/jobs/{id}", h.GetJob)
		r.Post("/jobs/{id}/cancel", h.CancelJob)
		if h.tasks != nil {
			r.Get("/jobs/{id}/tasks", h.ListJobTasks)
		}
	})

	return r
}

// Health — проверка живости.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	Success(w, map[string]string{"status": "ok"})
}
