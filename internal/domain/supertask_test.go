package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

// --- SuperTaskConfig Tests ---

func TestParseSuperTaskConfig(t *testing.T) {
	data := `{
		"workers": [
			{"type": "collaborators", "name": "team", "timeout": 3600,
			 "onTimeout": {"action": "retry", "maxRetries": 2},
			 "workerConstraints": {"emails": ["a@example.com"]}},
			{"type": "bots", "name": "bot", "active": false},
			{"type": "ai", "name": "model", "workerConstraints": {"ids": ["m-1"]}}
		],
		"params": {"strategy": "PRIORITY"}
	}`

	cfg, err := ParseSuperTaskConfig([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Params.Strategy != StrategyPriority {
		t.Errorf("expected PRIORITY, got %s", cfg.Params.Strategy)
	}
	if len(cfg.Workers) != 3 {
		t.Fatalf("expected 3 workers, got %d", len(cfg.Workers))
	}

	kinds := []WorkerKind{WorkerKindCollaborators, WorkerKindBots, WorkerKindAI}
	for i, k := range kinds {
		if cfg.Workers[i].Kind != k {
			t.Errorf("workers[%d]: expected %s, got %s", i, k, cfg.Workers[i].Kind)
		}
	}

	active := cfg.ActiveWorkers()
	if !reflect.DeepEqual(active, []int{0, 2}) {
		t.Errorf("expected active [0 2], got %v", active)
	}
}

func TestParseSuperTaskConfig_DefaultStrategy(t *testing.T) {
	cfg, err := ParseSuperTaskConfig([]byte(`{"workers": []}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Params.Strategy != StrategyFirstCompleted {
		t.Errorf("expected FIRST_COMPLETED, got %s", cfg.Params.Strategy)
	}
}

func TestParseSuperTaskConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown strategy", `{"params": {"strategy": "RANDOM"}}`, ErrUnknownStrategy},
		{"abstract worker", `{"workers": [{"name": "x"}]}`, ErrAbstractWorker},
		{"bad timeout action", `{"workers": [{"type": "crowd", "onTimeout": {"action": "skip"}}]}`, ErrInvalidWorker},
		{"zero max retries", `{"workers": [{"type": "crowd", "onTimeout": {"action": "retry", "maxRetries": 0}}]}`, ErrInvalidWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuperTaskConfig([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSuperTaskConfig_RoundTrip(t *testing.T) {
	cfg := SuperTaskConfig{
		Workers: []Worker{
			NewCollaboratorWorker("team", &HumanConstraints{Emails: []string{"a@example.com"}}),
			NewBotWorker("bot"),
			NewAIWorker("model", "m-1"),
		},
		Params: SuperTaskParams{Strategy: StrategyPriority},
	}
	cfg.Workers[1].Active = false
	cfg.Workers[2].OnTimeout = OnTimeout{Action: TimeoutActionFail, MaxRetries: 1}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := ParseSuperTaskConfig(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !reflect.DeepEqual(&cfg, got) {
		t.Errorf("round trip mismatch:\nwant %#v\ngot  %#v", cfg, *got)
	}
}

func TestSuperTaskConfigFromMap(t *testing.T) {
	m := map[string]any{
		"workers": []any{
			map[string]any{"type": "idempotent", "name": "noop"},
		},
	}

	cfg, err := SuperTaskConfigFromMap(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Workers) != 1 || cfg.Workers[0].Kind != WorkerKindIdempotent {
		t.Errorf("unexpected workers: %+v", cfg.Workers)
	}
}

// --- SuperTaskModel Tests ---

func TestSuperTaskModel_Validate(t *testing.T) {
	m := SuperTaskModel{
		Name:     "label_image",
		Template: TaskTemplate{Name: "label_image"},
		Config:   SuperTaskConfig{Params: SuperTaskParams{Strategy: StrategyFirstCompleted}},
	}
	if err := m.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	m.Template.Name = "other"
	if err := m.Validate(); !errors.Is(err, ErrTemplateNameMismatch) {
		t.Errorf("expected ErrTemplateNameMismatch, got %v", err)
	}

	m.Name = ""
	if err := m.Validate(); !errors.Is(err, ErrEmptySuperTaskName) {
		t.Errorf("expected ErrEmptySuperTaskName, got %v", err)
	}
}

// --- Job Tests ---

func TestJob_Transitions(t *testing.T) {
	job := NewJob("label_image", uuid.Nil, JobParams{Input: map[string]any{"x": 1}})

	if job.Status != JobStatusPending {
		t.Errorf("expected PENDING, got %s", job.Status)
	}
	if job.IsFinished() {
		t.Error("new job should not be finished")
	}

	job.MarkRunning()
	if job.Status != JobStatusRunning || job.StartedAt == nil {
		t.Error("job should be running with StartedAt")
	}

	job.MarkCompleted(map[string]any{"label": "cat"})
	if !job.IsFinished() {
		t.Error("completed job should be finished")
	}
	if job.Response["label"] != "cat" {
		t.Errorf("unexpected response: %v", job.Response)
	}
	if job.Duration() < 0 {
		t.Error("duration should not be negative")
	}
}

func TestJob_MarkFinished(t *testing.T) {
	job := NewJob("x", uuid.Nil, JobParams{})
	job.MarkFinished(JobStatusExpired, "retries exhausted")

	if job.Status != JobStatusExpired || job.Error != "retries exhausted" {
		t.Errorf("unexpected job state: %s %q", job.Status, job.Error)
	}
	if job.Duration() != 0 {
		t.Error("duration without StartedAt should be 0")
	}
}
