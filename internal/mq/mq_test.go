package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/SuperTask/internal/domain"
	"github.com/shaiso/SuperTask/internal/task"
)

// --- RouteFor Tests ---

func TestRouteFor(t *testing.T) {
	tests := []struct {
		name string
		req  task.Request
		want RoutingKey
	}{
		{"crowd", task.Request{WorkerType: task.WireCrowd}, RoutingKeyCrowd},
		{"bots", task.Request{WorkerType: task.WireCrowd, Constraints: task.Constraints{Groups: []string{domain.BotsGroup}}}, RoutingKeyBots},
		{"user", task.Request{WorkerType: task.WireUser}, RoutingKeyUser},
		{"ai", task.Request{WorkerType: task.WireAI, Constraints: task.Constraints{ExplicitID: "gpt"}}, RoutingKeyAI},
		{"explicit id wins", task.Request{WorkerType: task.WireCrowd, Constraints: task.Constraints{ExplicitID: "x"}}, RoutingKeyAI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RouteFor(tt.req); got != tt.want {
				t.Errorf("RouteFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- TaskClient Tests ---

type fakePublisher struct {
	mu   sync.Mutex
	reqs []task.Request
	err  error
}

func (p *fakePublisher) PublishTaskSubmitted(_ context.Context, req task.Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.reqs = append(p.reqs, req)
	return nil
}

type fakeTaskStore struct {
	mu      sync.Mutex
	created []*domain.Task
	results map[uuid.UUID]*domain.TaskResult
}

func (s *fakeTaskStore) Create(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, t)
	return nil
}

func (s *fakeTaskStore) ApplyResult(_ context.Context, id uuid.UUID, r *domain.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		s.results = make(map[uuid.UUID]*domain.TaskResult)
	}
	s.results[id] = r
	return nil
}

func TestTaskClient_SubmitAndResolve(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeTaskStore{}
	client := NewTaskClient(ClientConfig{Publisher: pub, Store: store})

	jobID := uuid.New()
	ctx := task.WithJobID(context.Background(), jobID)

	future, err := client.Submit(ctx, task.Request{Name: "label", WorkerType: task.WireCrowd})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(pub.reqs) != 1 {
		t.Fatalf("published %d requests, want 1", len(pub.reqs))
	}
	req := pub.reqs[0]
	if req.TaskID == "" || req.TaskID != future.TaskID() {
		t.Errorf("TaskID = %q, future = %q", req.TaskID, future.TaskID())
	}
	if req.JobID != jobID.String() {
		t.Errorf("JobID = %q, want %q", req.JobID, jobID)
	}
	if len(store.created) != 1 || store.created[0].JobID != jobID {
		t.Fatalf("store record not created with job id")
	}
	if client.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", client.Pending())
	}

	// IN_PROGRESS не разрешает future
	if client.Resolve(ctx, TaskRespondedPayload{TaskID: req.TaskID, Status: domain.TaskStatusInProgress}) {
		t.Error("IN_PROGRESS should not resolve future")
	}
	if future.IsDone() {
		t.Fatal("future done after IN_PROGRESS")
	}

	now := time.Now()
	ok := client.Resolve(ctx, TaskRespondedPayload{
		TaskID:      req.TaskID,
		Status:      domain.TaskStatusCompleted,
		Values:      map[string]any{"label": "cat"},
		CompletedAt: &now,
	})
	if !ok {
		t.Fatal("Resolve() = false, want true")
	}

	result, err := future.Result(ctx)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if result.Status != domain.TaskStatusCompleted || result.Values()["label"] != "cat" {
		t.Errorf("unexpected result: %+v", result)
	}
	if client.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", client.Pending())
	}

	if _, ok := store.results[uuid.MustParse(req.TaskID)]; !ok {
		t.Error("result not stored")
	}

	// Повторный ответ игнорируется
	if client.Resolve(ctx, TaskRespondedPayload{TaskID: req.TaskID, Status: domain.TaskStatusExpired}) {
		t.Error("duplicate response should be ignored")
	}
}

func TestTaskClient_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	client := NewTaskClient(ClientConfig{Publisher: pub})

	_, err := client.Submit(context.Background(), task.Request{WorkerType: task.WireCrowd})
	if err == nil {
		t.Fatal("expected error")
	}
	if client.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after failed publish", client.Pending())
	}
}

func TestTaskClient_Close(t *testing.T) {
	client := NewTaskClient(ClientConfig{Publisher: &fakePublisher{}})

	future, err := client.Submit(context.Background(), task.Request{WorkerType: task.WireCrowd})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	client.Close()

	if _, err := future.Result(context.Background()); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Result() error = %v, want ErrClientClosed", err)
	}

	if _, err := client.Submit(context.Background(), task.Request{}); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Submit() after Close error = %v, want ErrClientClosed", err)
	}
}

func responseBody(t *testing.T, payload any) []byte {
	t.Helper()
	body, err := json.Marshal(Message{ID: "m-1", Type: MessageTypeTaskResponded, Payload: payload})
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return body
}

func TestTaskClient_HandleResponse(t *testing.T) {
	pub := &fakePublisher{}
	client := NewTaskClient(ClientConfig{Publisher: pub})
	consumer := NewConsumer(nil, ConsumerConfig{Queue: QueueTasksResponses, Routes: client.Routes()})

	future, _ := client.Submit(context.Background(), task.Request{WorkerType: task.WireUser})

	body := responseBody(t, map[string]any{
		"task_id": future.TaskID(),
		"status":  "REJECTED",
	})
	if outcome := consumer.Dispatch(context.Background(), body, false); outcome != OutcomeAck {
		t.Fatalf("Dispatch() = %s, want ack", outcome)
	}

	result, err := future.Result(context.Background())
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if result.Status != domain.TaskStatusRejected {
		t.Errorf("Status = %q, want REJECTED", result.Status)
	}
}

func TestTaskClient_HandleResponse_BadPayload(t *testing.T) {
	client := NewTaskClient(ClientConfig{Publisher: &fakePublisher{}})
	consumer := NewConsumer(nil, ConsumerConfig{Queue: QueueTasksResponses, Routes: client.Routes()})

	tests := []struct {
		name    string
		payload any
	}{
		{"not an object", "not an object"},
		{"missing task id", map[string]any{"status": "COMPLETED"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if outcome := consumer.Dispatch(context.Background(), responseBody(t, tt.payload), false); outcome != OutcomeDrop {
				t.Errorf("Dispatch() = %s, want drop", outcome)
			}
		})
	}
}

// --- Consumer Tests ---

func TestConsumer_Dispatch(t *testing.T) {
	type payload struct {
		N int `json:"n"`
	}

	var got []int
	consumer := NewConsumer(nil, ConsumerConfig{
		Queue: QueueTasksBots,
		Routes: map[MessageType]Handler{
			MessageTypeTaskSubmitted: HandlerFor(func(_ context.Context, p payload) error {
				got = append(got, p.N)
				switch p.N {
				case 1:
					return errors.New("temporary")
				case 2:
					return fmt.Errorf("%w: poison", ErrDropMessage)
				}
				return nil
			}),
		},
	})

	body := func(msgType MessageType, n int) []byte {
		b, _ := json.Marshal(Message{ID: "m", Type: msgType, Payload: payload{N: n}})
		return b
	}

	tests := []struct {
		name string
		body []byte
		want Outcome
	}{
		{"handled", body(MessageTypeTaskSubmitted, 0), OutcomeAck},
		{"handler error requeues", body(MessageTypeTaskSubmitted, 1), OutcomeRequeue},
		{"drop error goes to DLQ", body(MessageTypeTaskSubmitted, 2), OutcomeDrop},
		{"unknown type is skipped", body(MessageTypeTaskResponded, 3), OutcomeSkip},
		{"broken envelope", []byte("{"), OutcomeDrop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if outcome := consumer.Dispatch(context.Background(), tt.body, false); outcome != tt.want {
				t.Errorf("Dispatch() = %s, want %s", outcome, tt.want)
			}
		})
	}

	if len(got) != 3 {
		t.Errorf("handler called %d times, want 3", len(got))
	}
}

func TestConsumer_StopBeforeStart(t *testing.T) {
	consumer := NewConsumer(nil, ConsumerConfig{Queue: QueueTasksBots})
	consumer.Stop()
}

func TestDelivery_KeepsRawPayload(t *testing.T) {
	body, _ := json.Marshal(Message{ID: "m-1", Type: MessageTypeTaskSubmitted, Payload: map[string]any{"task_id": "t-1"}})

	var d Delivery
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.ID != "m-1" || d.Type != MessageTypeTaskSubmitted {
		t.Errorf("unexpected envelope: %+v", d)
	}

	var req task.Request
	if err := json.Unmarshal(d.Payload, &req); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if req.TaskID != "t-1" {
		t.Errorf("TaskID = %q, want t-1", req.TaskID)
	}
}
