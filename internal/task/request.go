package task

import (
	"fmt"

	"github.com/shaiso/SuperTask/internal/domain"
)

// Типы исполнителей на проводе.
const (
	WireCrowd      = "CROWD"
	WireUser       = "USER"
	WireAI         = "AI"
	WireIdempotent = "IDEMPOTENT"
)

// Constraints — ограничения исполнителя в формате бэкенда.
type Constraints struct {
	Groups           []string               `json:"groups,omitempty"`
	ExplicitID       string                 `json:"explicit_id,omitempty"`
	IncludedIDs      []string               `json:"included_ids,omitempty"`
	Emails           []string               `json:"emails,omitempty"`
	ExcludedGroups   []string               `json:"excluded_groups,omitempty"`
	Qualifications   []domain.Qualification `json:"qualifications,omitempty"`
	QualifierTestID  string                 `json:"qualifier_test_id,omitempty"`
	TimeToExpireSecs int                    `json:"time_to_expire_secs,omitempty"`
	Cost             float64                `json:"cost,omitempty"`
}

// Request — запрос на создание одной задачи.
type Request struct {
	// TaskID заполняется Submitter, если пустой.
	TaskID string `json:"task_id,omitempty"`

	// JobID — дочерний job, из которого отправлена задача.
	JobID string `json:"job_id,omitempty"`

	Name       string         `json:"name"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	WorkerType string         `json:"worker_type"`

	Constraints
}

// WireWorkerType отображает тип исполнителя в тип на проводе.
func WireWorkerType(kind domain.WorkerKind) (string, error) {
	switch kind {
	case domain.WorkerKindCrowd, domain.WorkerKindBots:
		return WireCrowd, nil
	case domain.WorkerKindCollaborators, domain.WorkerKindMe:
		return WireUser, nil
	case domain.WorkerKindAI:
		return WireAI, nil
	case domain.WorkerKindIdempotent:
		return WireIdempotent, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownWorkerKind, kind)
	}
}

// MapWorkerConstraints отображает ограничения исполнителя в поля запроса.
//
// Чистая функция. Для ботов группы всегда BOTS, независимо от конфигурации.
// Для AI требуется ровно один ID модели, он становится explicit_id.
func MapWorkerConstraints(w domain.Worker) (Constraints, error) {
	c := Constraints{
		TimeToExpireSecs: w.TimeoutSec,
		Cost:             w.Cost,
	}

	switch w.Kind {
	case domain.WorkerKindCrowd, domain.WorkerKindCollaborators, domain.WorkerKindMe:
		hc, err := humanConstraints(w)
		if err != nil {
			return Constraints{}, err
		}
		if hc != nil {
			c.IncludedIDs = hc.IDs
			c.Emails = hc.Emails
			c.Groups = hc.Groups
			c.ExcludedGroups = hc.ExcludedGroups
			c.Qualifications = hc.Training
			c.QualifierTestID = hc.TrainingID
		}

	case domain.WorkerKindBots:
		c.Groups = []string{domain.BotsGroup}

	case domain.WorkerKindAI:
		ac, ok := w.Constraints.(*domain.AIConstraints)
		if w.Constraints != nil && !ok {
			return Constraints{}, fmt.Errorf("%w: %T on ai worker", domain.ErrWorkerKindMismatch, w.Constraints)
		}
		if ac == nil || len(ac.IDs) != 1 {
			n := 0
			if ac != nil {
				n = len(ac.IDs)
			}
			return Constraints{}, fmt.Errorf("%w: worker %q has %d", ErrInvalidAIConstraints, w.Name, n)
		}
		c.ExplicitID = ac.IDs[0]

	case domain.WorkerKindIdempotent:
		// ограничений нет

	default:
		return Constraints{}, fmt.Errorf("%w: %q", domain.ErrUnknownWorkerKind, w.Kind)
	}

	return c, nil
}

func humanConstraints(w domain.Worker) (*domain.HumanConstraints, error) {
	if w.Constraints == nil {
		return nil, nil
	}
	hc, ok := w.Constraints.(*domain.HumanConstraints)
	if !ok {
		return nil, fmt.Errorf("%w: %T on %s worker", domain.ErrWorkerKindMismatch, w.Constraints, w.Kind)
	}
	return hc, nil
}

// BuildRequest собирает запрос для исполнителя w.
func BuildRequest(name string, w domain.Worker, input, output map[string]any) (Request, error) {
	workerType, err := WireWorkerType(w.Kind)
	if err != nil {
		return Request{}, err
	}

	constraints, err := MapWorkerConstraints(w)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Name:        name,
		Input:       input,
		Output:      output,
		WorkerType:  workerType,
		Constraints: constraints,
	}, nil
}
