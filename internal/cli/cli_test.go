package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const superTaskFile = `{
	"description": "image labelling",
	"config": {
		"workers": [
			{"type": "ai", "name": "gpt", "workerConstraints": {"ids": ["model-1"]}},
			{"type": "crowd", "name": "crowd", "onTimeout": {"action": "retry", "maxRetries": 2}}
		],
		"params": {"strategy": "PRIORITY"}
	},
	"template": {"input": {"url": ""}, "output": {"label": ""}}
}`

// fakeAPI — минимальный SuperTask API для тестов CLI.
type fakeAPI struct {
	t        *testing.T
	requests []string
	bodies   map[string]json.RawMessage
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()

	api := &fakeAPI{t: t, bodies: make(map[string]json.RawMessage)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/supertasks", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{
				"name":       "label",
				"config":     map[string]any{"workers": []any{map[string]any{}, map[string]any{}}, "params": map[string]any{"strategy": "PRIORITY"}},
				"template":   map[string]any{"name": "label"},
				"updated_at": "2026-01-02T03:04:05Z",
			}},
			"total": 1,
		})
	})
	mux.HandleFunc("GET /api/v1/supertasks/{name}", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		if r.PathValue("name") != "label" {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]string{"code": "NOT_FOUND", "message": "supertask not found"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"name": "label"}})
	})
	mux.HandleFunc("PUT /api/v1/supertasks/{name}", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		body, _ := io.ReadAll(r.Body)
		api.bodies[r.URL.Path] = body
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"name": r.PathValue("name")}})
	})
	mux.HandleFunc("POST /api/v1/supertasks/{name}/schedule", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		body, _ := io.ReadAll(r.Body)
		api.bodies[r.URL.Path] = body
		if r.URL.Query().Get("async") == "true" {
			writeJSON(w, http.StatusAccepted, map[string]any{"data": map[string]any{"job_id": "job-async"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"job_id": "job-1", "form_data": map[string]any{"label": "cat"}},
		})
	})
	mux.HandleFunc("GET /api/v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"id": r.PathValue("id"), "name": "label", "status": "COMPLETED", "duration_ms": 42,
		}})
	})
	mux.HandleFunc("GET /api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]any{{"id": "job-1", "name": "label", "status": "FAILED", "error": "boom"}},
			"total": 1,
		})
	})
	mux.HandleFunc("GET /api/v1/jobs/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]any{{"id": "task-1", "job_id": r.PathValue("id"), "worker_type": "AI", "status": "COMPLETED"}},
			"total": 1,
		})
	})
	mux.HandleFunc("DELETE /api/v1/supertasks/{name}", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/jobs/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return api, srv
}

func (a *fakeAPI) record(r *http.Request) {
	a.requests = append(a.requests, r.Method+" "+r.URL.RequestURI())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// stdout и stderr команд, созданных через newRoot.
var stdout, stderr bytes.Buffer

// run выполняет команду и возвращает stdout и stderr.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func newRoot(baseURL string, jsonMode bool) *cobra.Command {
	stdout.Reset()
	stderr.Reset()

	clientFn := func() *Client { return NewClient(baseURL) }
	format := FormatTable
	if jsonMode {
		format = FormatJSON
	}
	outputFn := func() *Output { return NewOutputTo(format, &stdout, &stderr) }

	root := &cobra.Command{Use: "supertask"}
	root.AddCommand(
		NewSuperTaskCmd(clientFn, outputFn),
		NewScheduleCmd(clientFn, outputFn),
		NewJobCmd(clientFn, outputFn),
	)
	return root
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supertask.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

// --- SuperTask Tests ---

func TestSuperTaskList(t *testing.T) {
	_, srv := newFakeAPI(t)

	out, _, err := run(t, newRoot(srv.URL, false), "supertask", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"NAME", "label", "default", "PRIORITY", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSuperTaskList_JSON(t *testing.T) {
	_, srv := newFakeAPI(t)

	out, _, err := run(t, newRoot(srv.URL, true), "st", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var models []SuperTaskResponse
	if err := json.Unmarshal([]byte(out), &models); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(models) != 1 || models[0].Name != "label" {
		t.Errorf("models = %+v", models)
	}
}

func TestSuperTaskShow_NotFound(t *testing.T) {
	_, srv := newFakeAPI(t)

	_, _, err := run(t, newRoot(srv.URL, false), "supertask", "show", "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Code != "NOT_FOUND" || apiErr.Status != http.StatusNotFound {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestSuperTaskPut(t *testing.T) {
	api, srv := newFakeAPI(t)
	path := writeFile(t, superTaskFile)

	_, errOut, err := run(t, newRoot(srv.URL, false), "supertask", "put", "label", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(errOut, "SuperTask registered: label") {
		t.Errorf("stderr = %q", errOut)
	}

	body := api.bodies["/api/v1/supertasks/label"]
	if !json.Valid(body) {
		t.Fatalf("request body is not JSON: %s", body)
	}
	if !bytes.Contains(body, []byte(`"PRIORITY"`)) {
		t.Errorf("request body = %s", body)
	}
}

func TestSuperTaskPut_InvalidFileNotSent(t *testing.T) {
	api, srv := newFakeAPI(t)
	path := writeFile(t, `{"config": {"params": {"strategy": "RANDOM"}}}`)

	_, _, err := run(t, newRoot(srv.URL, false), "supertask", "put", "label", path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(api.requests) != 0 {
		t.Errorf("requests = %v, want none", api.requests)
	}
}

func TestSuperTaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		wantErr bool
	}{
		{"valid with name flag", superTaskFile, []string{"--name", "label"}, false},
		{"valid with name field", `{"name": "label", "config": {"workers": []}}`, nil, false},
		{"missing name", `{"config": {"workers": []}}`, nil, true},
		{"template mismatch", `{"name": "a", "template": {"name": "b"}}`, nil, true},
		{"worker without type", `{"name": "a", "config": {"workers": [{"name": "w"}]}}`, nil, true},
		{"not json", `{`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			args := append([]string{"supertask", "validate", path}, tt.args...)

			// API не нужен
			_, _, err := run(t, newRoot("http://127.0.0.1:0", false), args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// --- Schedule Tests ---

func TestSchedule_Sync(t *testing.T) {
	api, srv := newFakeAPI(t)

	out, errOut, err := run(t, newRoot(srv.URL, false),
		"schedule", "label", "--input", `{"url": "http://img"}`, "--params", `{"params": {"strategy": "PRIORITY"}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(errOut, "Job completed: job-1") {
		t.Errorf("stderr = %q", errOut)
	}

	var resp ScheduleResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if resp.FormData["label"] != "cat" {
		t.Errorf("form_data = %v", resp.FormData)
	}

	var sent ScheduleRequest
	if err := json.Unmarshal(api.bodies["/api/v1/supertasks/label/schedule"], &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if sent.Input["url"] != "http://img" {
		t.Errorf("input = %v", sent.Input)
	}
	if sent.SuperTaskParams == nil {
		t.Error("super_task_params not sent")
	}
}

func TestSchedule_Async(t *testing.T) {
	api, srv := newFakeAPI(t)

	out, _, err := run(t, newRoot(srv.URL, false), "schedule", "label", "--async")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "job-async") {
		t.Errorf("stdout = %q", out)
	}
	if len(api.requests) != 1 || api.requests[0] != "POST /api/v1/supertasks/label/schedule?async=true" {
		t.Errorf("requests = %v", api.requests)
	}
}

func TestSchedule_InvalidInput(t *testing.T) {
	api, srv := newFakeAPI(t)

	_, _, err := run(t, newRoot(srv.URL, false), "schedule", "label", "--input", "[1,2]")
	if err == nil || !strings.Contains(err.Error(), "--input") {
		t.Fatalf("err = %v, want invalid --input", err)
	}
	if len(api.requests) != 0 {
		t.Errorf("requests = %v, want none", api.requests)
	}
}

// --- Job Tests ---

func TestJobShow(t *testing.T) {
	_, srv := newFakeAPI(t)

	out, _, err := run(t, newRoot(srv.URL, false), "job", "show", "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"ID:", "job-1", "Status:", "COMPLETED", "42ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJobCancel(t *testing.T) {
	api, srv := newFakeAPI(t)

	_, errOut, err := run(t, newRoot(srv.URL, false), "job", "cancel", "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(errOut, "Job cancelled: job-1") {
		t.Errorf("stderr = %q", errOut)
	}
	if api.requests[0] != "POST /api/v1/jobs/job-1/cancel" {
		t.Errorf("requests = %v", api.requests)
	}
}

func TestJobList_Filters(t *testing.T) {
	api, srv := newFakeAPI(t)

	out, _, err := run(t, newRoot(srv.URL, false), "job", "list", "--status", "FAILED", "--limit", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "boom") {
		t.Errorf("output missing error column:\n%s", out)
	}
	if api.requests[0] != "GET /api/v1/jobs?limit=5&status=FAILED" {
		t.Errorf("requests = %v", api.requests)
	}
}

func TestJobTasks(t *testing.T) {
	_, srv := newFakeAPI(t)

	out, _, err := run(t, newRoot(srv.URL, false), "job", "tasks", "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"task-1", "AI", "COMPLETED"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSuperTaskDelete(t *testing.T) {
	api, srv := newFakeAPI(t)

	_, errOut, err := run(t, newRoot(srv.URL, false), "supertask", "delete", "label")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(errOut, "SuperTask deleted: label") {
		t.Errorf("stderr = %q", errOut)
	}
	if api.requests[0] != "DELETE /api/v1/supertasks/label" {
		t.Errorf("requests = %v", api.requests)
	}
}

// --- Output Tests ---

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestOutput_EmptyList(t *testing.T) {
	var w, errW bytes.Buffer
	out := NewOutputTo(FormatTable, &w, &errW)

	if err := out.Print(jobHeaders, nil, []JobResponse{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Len() != 0 {
		t.Errorf("stdout = %q, want empty", w.String())
	}
	if !strings.Contains(errW.String(), "No results.") {
		t.Errorf("stderr = %q", errW.String())
	}
}

func TestOutput_DetailSkipsEmpty(t *testing.T) {
	var w bytes.Buffer
	out := NewOutputTo(FormatTable, &w, io.Discard)

	err := out.Detail(jobFields(JobResponse{
		ID:       "job-1",
		Status:   "COMPLETED",
		Response: map[string]any{"label": "cat"},
	}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := w.String()
	if !strings.Contains(got, `{"label":"cat"}`) {
		t.Errorf("response not rendered:\n%s", got)
	}
	for _, absent := range []string{"Parent:", "Error:", "Duration:"} {
		if strings.Contains(got, absent) {
			t.Errorf("empty field %q rendered:\n%s", absent, got)
		}
	}
}

func TestOutput_Error(t *testing.T) {
	apiErr := &APIError{Status: http.StatusConflict, Code: "CONFLICT", Message: "child job cancelled"}

	tests := []struct {
		name   string
		format Format
		err    error
		want   string
	}{
		{"api error table", FormatTable, apiErr, "Error [CONFLICT]: child job cancelled (HTTP 409)"},
		{"api error json", FormatJSON, fmt.Errorf("schedule: %w", apiErr), `"code":"CONFLICT"`},
		{"plain error", FormatJSON, errors.New("boom"), "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errW bytes.Buffer
			NewOutputTo(tt.format, io.Discard, &errW).Error(tt.err)
			if !strings.Contains(errW.String(), tt.want) {
				t.Errorf("stderr = %q, want %q", errW.String(), tt.want)
			}
		})
	}
}
