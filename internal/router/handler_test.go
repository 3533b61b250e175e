package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
)

// --- State Tests ---

func TestTransition(t *testing.T) {
	tests := []struct {
		from HandlerState
		ev   handlerEvent
		want HandlerState
		ok   bool
	}{
		{StatePending, eventSubmit, StateSubmitted, true},
		{StateRetrying, eventSubmit, StateSubmitted, true},
		{StateSubmitted, eventReady, StateReady, true},
		{StateReady, eventReady, StateReady, true},
		{StateSubmitted, eventRetry, StateRetrying, true},
		{StateSubmitted, eventExhausted, StateFailed, true},
		{StateRetrying, eventError, StateFailed, true},
		{StateSubmitted, eventSubmit, StateSubmitted, false},
		{StatePending, eventReady, StatePending, false},
		{StateFailed, eventRetry, StateFailed, false},
		{StateReady, eventError, StateReady, false},
	}

	for _, tt := range tests {
		got, err := transition(tt.from, tt.ev)
		if tt.ok && err != nil {
			t.Errorf("%s on %s: unexpected error: %v", tt.ev, tt.from, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s on %s: expected ErrInvalidTransition, got %v", tt.ev, tt.from, err)
		}
		if got != tt.want {
			t.Errorf("%s on %s: expected %s, got %s", tt.ev, tt.from, tt.want, got)
		}
	}
}

// --- BackOff Tests ---

func TestAttemptJitterBackOff_ScalesWithAttempt(t *testing.T) {
	b := NewAttemptJitterBackOff(5*time.Second, 20*time.Second)

	for attempt := 1; attempt <= 4; attempt++ {
		d := b.NextBackOff()
		lo := 5 * time.Second * time.Duration(attempt)
		hi := 20 * time.Second * time.Duration(attempt)
		if d < lo || d > hi {
			t.Errorf("attempt %d: %s not in [%s, %s]", attempt, d, lo, hi)
		}
		if d%time.Second != 0 {
			t.Errorf("attempt %d: expected whole seconds, got %s", attempt, d)
		}
	}

	b.Reset()
	if d := b.NextBackOff(); d > 20*time.Second {
		t.Errorf("after reset expected first-attempt range, got %s", d)
	}
}

func TestAttemptJitterBackOff_FixedWindow(t *testing.T) {
	b := NewAttemptJitterBackOff(2*time.Second, 2*time.Second)

	if d := b.NextBackOff(); d != 2*time.Second {
		t.Errorf("expected 2s, got %s", d)
	}
	if d := b.NextBackOff(); d != 4*time.Second {
		t.Errorf("expected 4s, got %s", d)
	}
}

func TestSleep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// --- TaskHandler Tests ---

func TestTaskHandler_IdempotentAlwaysReady(t *testing.T) {
	output := map[string]any{"label": "dog"}
	h := NewTaskHandler(HandlerConfig{
		Name:   "x",
		Index:  2,
		Worker: domain.NewIdempotentWorker("noop"),
		Output: output,
	})

	if err := h.SubmitTask(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !h.IsFutureDone() {
		t.Error("idempotent future should be done immediately")
	}
	if h.Future().Index() != 2 {
		t.Errorf("future should be tagged with index 2, got %d", h.Future().Index())
	}

	ready, err := h.IsResultReady(context.Background())
	if err != nil || !ready {
		t.Errorf("expected ready, got %v %v", ready, err)
	}

	res, _ := h.Future().Result(context.Background())
	if res.Response.Values["label"] != "dog" {
		t.Errorf("expected output as result, got %v", res.Response.Values)
	}
}

func TestTaskHandler_NotSubmitted(t *testing.T) {
	h := NewTaskHandler(HandlerConfig{Worker: domain.NewCrowdWorker("c", nil)})

	if h.IsFutureDone() {
		t.Error("handler without future should not be done")
	}
	if _, err := h.IsResultReady(context.Background()); !errors.Is(err, ErrNotSubmitted) {
		t.Errorf("expected ErrNotSubmitted, got %v", err)
	}
}

func TestTaskHandler_SubmitError(t *testing.T) {
	sendErr := errors.New("broker down")
	h := NewTaskHandler(HandlerConfig{
		Worker: domain.NewCrowdWorker("c", nil),
		Submitter: task.SubmitterFunc(func(ctx context.Context, req task.Request) (*task.Future, error) {
			return nil, sendErr
		}),
	})

	if err := h.SubmitTask(context.Background()); !errors.Is(err, sendErr) {
		t.Errorf("expected send error, got %v", err)
	}
	if h.State() != StateFailed {
		t.Errorf("expected FAILED, got %s", h.State())
	}
}

func TestTaskHandler_TransportError(t *testing.T) {
	transportErr := errors.New("consumer closed")
	h := NewTaskHandler(HandlerConfig{
		Worker: domain.NewCrowdWorker("c", nil),
		Submitter: task.SubmitterFunc(func(ctx context.Context, req task.Request) (*task.Future, error) {
			f := task.NewFuture("t")
			f.Fail(transportErr)
			return f, nil
		}),
	})

	if err := h.SubmitTask(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := h.IsResultReady(context.Background()); !errors.Is(err, transportErr) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestTaskHandler_BackOffStop(t *testing.T) {
	h := NewTaskHandler(HandlerConfig{
		Worker:  domain.NewCrowdWorker("c", nil),
		BackOff: &backoff.StopBackOff{},
		Submitter: task.SubmitterFunc(func(ctx context.Context, req task.Request) (*task.Future, error) {
			return task.Resolved("t", &domain.TaskResult{Status: domain.TaskStatusExpired}), nil
		}),
	})

	if err := h.SubmitTask(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := h.RetryFuture(context.Background()); !errors.Is(err, ErrTaskExpiredMaxRetries) {
		t.Errorf("expected ErrTaskExpiredMaxRetries, got %v", err)
	}
	if h.RetriesDone() != 0 {
		t.Errorf("stopped backoff should not count a retry, got %d", h.RetriesDone())
	}
}

// --- Registry Tests ---

type staticRouter struct{ values map[string]any }

func (r staticRouter) Map(ctx context.Context, input, output map[string]any) (*Dispatch, error) {
	return &Dispatch{}, nil
}

func (r staticRouter) Reduce(d *Dispatch) (map[string]any, error) {
	return r.values, nil
}

func TestRegistry_Build(t *testing.T) {
	reg := NewRegistry()
	reg.Register("static", func(cfg Config) (Router, error) {
		return staticRouter{values: map[string]any{"name": cfg.Name}}, nil
	})

	r, err := reg.Build("static", Config{Name: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values, _ := r.Reduce(nil)
	if values["name"] != "x" {
		t.Errorf("expected custom router, got %v", values)
	}

	def, err := reg.Build("", Config{Name: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := def.(*TaskRouter); !ok {
		t.Errorf("expected *TaskRouter for empty name, got %T", def)
	}

	if _, err := reg.Build("missing", Config{}); !errors.Is(err, ErrRouterNotFound) {
		t.Errorf("expected ErrRouterNotFound, got %v", err)
	}

	if names := reg.Names(); len(names) != 1 || names[0] != "static" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestRegistry_NilBuildsDefault(t *testing.T) {
	var reg *Registry

	if _, err := reg.Build("", Config{}); err != nil {
		t.Errorf("nil registry should build default router: %v", err)
	}
	if _, err := reg.Build("custom", Config{}); !errors.Is(err, ErrRouterNotFound) {
		t.Errorf("expected ErrRouterNotFound, got %v", err)
	}
}
