package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// SuperTaskResponse — SuperTask из API.
type SuperTaskResponse struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Router      string         `json:"router,omitempty"`
	Config      map[string]any `json:"config"`
	Template    map[string]any `json:"template"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// ScheduleResponse — результат синхронного запуска.
type ScheduleResponse struct {
	JobID    string         `json:"job_id"`
	FormData map[string]any `json:"form_data"`
}

// ScheduledJobResponse — ответ на асинхронный запуск.
type ScheduledJobResponse struct {
	JobID string `json:"job_id"`
}

// JobResponse — job из API.
type JobResponse struct {
	ID         string         `json:"id"`
	ParentID   string         `json:"parent_id,omitempty"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Params     map[string]any `json:"params,omitempty"`
	Response   map[string]any `json:"response,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  string         `json:"started_at,omitempty"`
	FinishedAt string         `json:"finished_at,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// TaskResponse — запись задачи из API.
type TaskResponse struct {
	ID          string         `json:"id"`
	JobID       string         `json:"job_id"`
	Name        string         `json:"name"`
	WorkerType  string         `json:"worker_type"`
	Status      string         `json:"status"`
	Values      map[string]any `json:"values,omitempty"`
	CompletedAt string         `json:"completed_at,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

// --- Request types ---

// ScheduleRequest — запуск SuperTask.
type ScheduleRequest struct {
	Input           map[string]any `json:"input,omitempty"`
	Output          map[string]any `json:"output,omitempty"`
	SuperTaskParams map[string]any `json:"super_task_params,omitempty"`
	ParentID        string         `json:"parent_id,omitempty"`
}

// ListJobsOpts — параметры фильтрации jobs.
type ListJobsOpts struct {
	ParentID string
	Name     string
	Status   string
	Limit    int
}

// --- Envelope types ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// APIError — ошибка, которую вернул SuperTask API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client — HTTP-клиент для SuperTask API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент.
//
// Синхронный schedule ждёт завершения job, поэтому таймаут больше,
// чем у обычных запросов.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// --- SuperTasks ---

// ListSuperTasks возвращает все зарегистрированные SuperTask.
func (c *Client) ListSuperTasks() ([]SuperTaskResponse, error) {
	var models []SuperTaskResponse
	err := c.list("/api/v1/supertasks", nil, &models)
	return models, err
}

// GetSuperTask возвращает SuperTask по имени.
func (c *Client) GetSuperTask(name string) (*SuperTaskResponse, error) {
	var model SuperTaskResponse
	if err := c.get("/api/v1/supertasks/"+url.PathEscape(name), &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// PutSuperTask регистрирует или обновляет SuperTask.
// body — JSON документ в формате PUT /api/v1/supertasks/{name}.
func (c *Client) PutSuperTask(name string, body json.RawMessage) (*SuperTaskResponse, error) {
	var model SuperTaskResponse
	if err := c.put("/api/v1/supertasks/"+url.PathEscape(name), body, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// DeleteSuperTask удаляет SuperTask.
func (c *Client) DeleteSuperTask(name string) error {
	return c.delete("/api/v1/supertasks/" + url.PathEscape(name))
}

// Schedule запускает SuperTask и ждёт результат.
func (c *Client) Schedule(name string, req ScheduleRequest) (*ScheduleResponse, error) {
	var resp ScheduleResponse
	if err := c.post("/api/v1/supertasks/"+url.PathEscape(name)+"/schedule", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduleAsync запускает SuperTask в фоне и возвращает ID job.
func (c *Client) ScheduleAsync(name string, req ScheduleRequest) (*ScheduledJobResponse, error) {
	params := url.Values{}
	params.Set("async", strconv.FormatBool(true))

	var resp ScheduledJobResponse
	path := "/api/v1/supertasks/" + url.PathEscape(name) + "/schedule?" + params.Encode()
	if err := c.post(path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Jobs ---

// GetJob возвращает job по ID.
func (c *Client) GetJob(id string) (*JobResponse, error) {
	var job JobResponse
	if err := c.get("/api/v1/jobs/"+url.PathEscape(id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs возвращает jobs из истории.
func (c *Client) ListJobs(opts ListJobsOpts) ([]JobResponse, error) {
	params := url.Values{}
	if opts.ParentID != "" {
		params.Set("parent_id", opts.ParentID)
	}
	if opts.Name != "" {
		params.Set("name", opts.Name)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var jobs []JobResponse
	err := c.list("/api/v1/jobs", params, &jobs)
	return jobs, err
}

// ListJobTasks возвращает задачи, отправленные из job.
func (c *Client) ListJobTasks(id string) ([]TaskResponse, error) {
	var tasks []TaskResponse
	err := c.list("/api/v1/jobs/"+url.PathEscape(id)+"/tasks", nil, &tasks)
	return tasks, err
}

// CancelJob отменяет выполняющийся job.
func (c *Client) CancelJob(id string) error {
	return c.post("/api/v1/jobs/"+url.PathEscape(id)+"/cancel", nil, nil)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Code == "" {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    "HTTP_ERROR",
			Message: http.StatusText(resp.StatusCode),
		}
	}

	er.Error.Status = resp.StatusCode
	return &er.Error
}
