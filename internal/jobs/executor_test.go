package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
)

type funcWorkflow struct {
	name string
	fn   func(ctx context.Context, params domain.JobParams, configs map[string]any) (map[string]any, error)
}

func (w funcWorkflow) Name() string { return w.name }

func (w funcWorkflow) ExecuteWorkflow(ctx context.Context, params domain.JobParams, configs map[string]any) (map[string]any, error) {
	return w.fn(ctx, params, configs)
}

// memStore — JobStore в памяти.
type memStore struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]domain.Job
	updates int
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[uuid.UUID]domain.Job)}
}

func (s *memStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memStore) Update(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	s.updates++
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

func waitJob(t *testing.T, f *JobFuture) *domain.Job {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job, err := f.Result(ctx)
	if err != nil {
		t.Fatalf("wait job: %v", err)
	}
	return job
}

// --- Executor Tests ---

func TestExecutor_Completed(t *testing.T) {
	store := newMemStore()
	e := New(Config{Store: store})
	e.Register(funcWorkflow{name: "echo", fn: func(ctx context.Context, p domain.JobParams, c map[string]any) (map[string]any, error) {
		if _, ok := task.JobIDFromContext(ctx); !ok {
			return nil, errors.New("job id missing in context")
		}
		return p.Output, nil
	}})

	parent := uuid.New()
	f, err := e.Execute(context.Background(), Request{
		Name:            "echo",
		ParentID:        parent,
		Params:          domain.JobParams{Output: map[string]any{"label": "cat"}},
		SuperTaskParams: map[string]any{"workers": []any{}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	job := waitJob(t, f)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", job.Status, job.Error)
	}
	if job.Response["label"] != "cat" {
		t.Errorf("unexpected response: %v", job.Response)
	}
	if job.ParentID != parent {
		t.Error("parent id should be kept")
	}

	stored, err := store.GetByID(context.Background(), f.JobID())
	if err != nil {
		t.Fatalf("stored job: %v", err)
	}
	if stored.Status != domain.JobStatusCompleted {
		t.Errorf("expected stored COMPLETED, got %s", stored.Status)
	}
	if stored.SuperTaskParams == nil {
		t.Error("supertask params should be stored")
	}
}

func TestExecutor_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.JobStatus
	}{
		{"failed", errors.New("boom"), domain.JobStatusFailed},
		{"canceled", context.Canceled, domain.JobStatusCanceled},
		{"expired", context.DeadlineExceeded, domain.JobStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Config{})
			e.Register(funcWorkflow{name: "w", fn: func(ctx context.Context, p domain.JobParams, c map[string]any) (map[string]any, error) {
				return nil, tt.err
			}})

			f, err := e.Execute(context.Background(), Request{Name: "w"})
			if err != nil {
				t.Fatalf("execute: %v", err)
			}

			job := waitJob(t, f)
			if job.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, job.Status)
			}
			if job.Error == "" {
				t.Error("error message should be recorded")
			}
		})
	}
}

func TestExecutor_Panic(t *testing.T) {
	e := New(Config{})
	e.Register(funcWorkflow{name: "w", fn: func(ctx context.Context, p domain.JobParams, c map[string]any) (map[string]any, error) {
		panic("nil map")
	}})

	f, _ := e.Execute(context.Background(), Request{Name: "w"})
	if job := waitJob(t, f); job.Status != domain.JobStatusInternalError {
		t.Errorf("expected INTERNAL_ERROR, got %s", job.Status)
	}
}

func TestExecutor_CustomClassifier(t *testing.T) {
	special := errors.New("special")
	e := New(Config{Classifier: func(err error) domain.JobStatus {
		if errors.Is(err, special) {
			return domain.JobStatusExpired
		}
		return DefaultClassifier(err)
	}})
	e.Register(funcWorkflow{name: "w", fn: func(ctx context.Context, p domain.JobParams, c map[string]any) (map[string]any, error) {
		return nil, special
	}})

	f, _ := e.Execute(context.Background(), Request{Name: "w"})
	if job := waitJob(t, f); job.Status != domain.JobStatusExpired {
		t.Errorf("expected EXPIRED, got %s", job.Status)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	e := New(Config{})
	e.Register(funcWorkflow{name: "slow", fn: func(ctx context.Context, p domain.JobParams, c map[string]any) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})

	f, _ := e.Execute(context.Background(), Request{Name: "slow", Timeout: 10 * time.Millisecond})
	if job := waitJob(t, f); job.Status != domain.JobStatusExpired {
		t.Errorf("expected EXPIRED, got %s", job.Status)
	}
}

func TestExecutor_Cancel(t *testing.T) {
	started := make(chan struct{})
	e := New(Config{})
	e.Register(funcWorkflow{name: "slow", fn: func(ctx context.Context, p domain.JobParams, c map[string]any) (map[string]any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}})

	f, _ := e.Execute(context.Background(), Request{Name: "slow"})
	<-started

	running, err := e.Get(context.Background(), f.JobID())
	if err != nil {
		t.Fatalf("get running job: %v", err)
	}
	if running.Status != domain.JobStatusRunning {
		t.Errorf("expected RUNNING, got %s", running.Status)
	}

	if err := e.Cancel(f.JobID()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if job := waitJob(t, f); job.Status != domain.JobStatusCanceled {
		t.Errorf("expected CANCELED, got %s", job.Status)
	}

	if err := e.Cancel(f.JobID()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound for finished job, got %v", err)
	}
}

func TestExecutor_WorkflowNotFound(t *testing.T) {
	e := New(Config{})

	if _, err := e.Execute(context.Background(), Request{Name: "missing"}); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}
}

func TestExecutor_GetUnknown(t *testing.T) {
	e := New(Config{Store: newMemStore()})

	if _, err := e.Get(context.Background(), uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestExecutor_Stop(t *testing.T) {
	e := New(Config{})
	e.Register(funcWorkflow{name: "slow", fn: func(ctx context.Context, p domain.JobParams, c map[string]any) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})

	f, _ := e.Execute(context.Background(), Request{Name: "slow"})
	e.Stop()

	if job := waitJob(t, f); job.Status != domain.JobStatusCanceled {
		t.Errorf("expected CANCELED after stop, got %s", job.Status)
	}
	if _, err := e.Execute(context.Background(), Request{Name: "slow"}); !errors.Is(err, ErrExecutorStopped) {
		t.Errorf("expected ErrExecutorStopped, got %v", err)
	}
	if e.Running() != 0 {
		t.Errorf("expected no running jobs, got %d", e.Running())
	}
}

func TestExecutor_StopConcurrentWithExecute(t *testing.T) {
	store := newMemStore()
	e := New(Config{Store: store})
	e.Register(funcWorkflow{name: "slow", fn: func(ctx context.Context, p domain.JobParams, c map[string]any) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		futures []*JobFuture
	)

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			f, err := e.Execute(context.Background(), Request{Name: "slow"})
			if err != nil {
				if !errors.Is(err, ErrExecutorStopped) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			futures = append(futures, f)
			mu.Unlock()
		}()
	}

	close(start)
	e.Stop()
	wg.Wait()

	// Каждый принятый job должен быть отменён и дождан Stop
	for _, f := range futures {
		select {
		case <-f.Done():
		default:
			t.Fatalf("job %s still running after Stop", f.JobID())
		}
		if job := waitJob(t, f); job.Status != domain.JobStatusCanceled {
			t.Errorf("job %s: status %s, want CANCELED", job.ID, job.Status)
		}
	}
	if e.Running() != 0 {
		t.Errorf("expected no running jobs, got %d", e.Running())
	}

	// Отклонённые после Stop job не остаются в PENDING
	store.mu.Lock()
	defer store.mu.Unlock()
	for id, job := range store.jobs {
		if !job.Status.IsTerminal() {
			t.Errorf("job %s left in %s", id, job.Status)
		}
	}
}
