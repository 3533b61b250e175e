package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// WorkerKind — тип исполнителя задачи.
//
// Определяет, кому уходит задача и как отображаются ограничения
// (worker constraints) в поля запроса к бэкенду.
type WorkerKind string

const (
	// WorkerKindCrowd — исполнители из краудсорсинга.
	WorkerKindCrowd WorkerKind = "crowd"

	// WorkerKindBots — боты (краудовые задачи, принудительно в группе BOTS).
	WorkerKindBots WorkerKind = "bots"

	// WorkerKindCollaborators — приглашённые коллабораторы.
	WorkerKindCollaborators WorkerKind = "collaborators"

	// WorkerKindAI — AI-модель, адресуется явным ID.
	WorkerKindAI WorkerKind = "ai"

	// WorkerKindIdempotent — синтетический исполнитель, который возвращает
	// выходные данные задачи без изменений.
	WorkerKindIdempotent WorkerKind = "idempotent"

	// WorkerKindMe — задача для самого владельца.
	// Допустим только при прямой отправке задачи, не в конфигурации SuperTask.
	WorkerKindMe WorkerKind = "me"
)

// IsValid возвращает true, если тип допустим в конфигурации SuperTask.
func (k WorkerKind) IsValid() bool {
	switch k {
	case WorkerKindCrowd, WorkerKindBots, WorkerKindCollaborators, WorkerKindAI, WorkerKindIdempotent:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление WorkerKind.
func (k WorkerKind) String() string {
	return string(k)
}

// TimeoutAction — реакция на истёкшую или отклонённую задачу.
type TimeoutAction string

const (
	// TimeoutActionRetry — отправить задачу заново.
	TimeoutActionRetry TimeoutAction = "retry"

	// TimeoutActionReassign — переназначить задачу (повтор не выполняется).
	TimeoutActionReassign TimeoutAction = "reassign"

	// TimeoutActionFail — сразу завершить SuperTask с ошибкой.
	TimeoutActionFail TimeoutAction = "fail"
)

// Значения по умолчанию для Worker.
const (
	DefaultWorkerName = "TaskWorker"
	DefaultTimeoutSec = 86400
	DefaultMaxRetries = 3
	DefaultNumTasks   = 1
	BotsGroup         = "BOTS"
)

// OnTimeout — политика повтора для исполнителя.
type OnTimeout struct {
	// Action — что делать при EXPIRED/REJECTED.
	Action TimeoutAction `json:"action" validate:"oneof=retry reassign fail"`

	// MaxRetries — максимум повторов. Отсутствие поля в JSON даёт 3;
	// явный 0 при action=retry не проходит валидацию.
	MaxRetries int `json:"maxRetries" validate:"required_if=Action retry,gte=0"`
}

// UnmarshalJSON реализует json.Unmarshaler: отсутствующий maxRetries
// получает DefaultMaxRetries, явный 0 сохраняется для валидации.
func (o *OnTimeout) UnmarshalJSON(data []byte) error {
	var in struct {
		Action     TimeoutAction `json:"action"`
		MaxRetries *int          `json:"maxRetries"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	o.Action = in.Action
	o.MaxRetries = DefaultMaxRetries
	if in.MaxRetries != nil {
		o.MaxRetries = *in.MaxRetries
	}
	return nil
}

// RetryBudget возвращает эффективный лимит повторов.
//
// Нулевое значение встречается только у OnTimeout, собранного в коде
// без валидации, и трактуется как DefaultMaxRetries.
func (o OnTimeout) RetryBudget() int {
	if o.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return o.MaxRetries
}

// DefaultOnTimeout возвращает политику по умолчанию: retry, 3 повтора.
func DefaultOnTimeout() OnTimeout {
	return OnTimeout{Action: TimeoutActionRetry, MaxRetries: DefaultMaxRetries}
}

// Qualification — квалификация, полученная исполнителем на обучении.
type Qualification struct {
	Name  string `json:"name" validate:"required"`
	Value any    `json:"value,omitempty"`
}

// WorkerConstraints — ограничения на выбор исполнителей.
//
// Закрытый набор вариантов: *HumanConstraints, *BotConstraints, *AIConstraints.
// У idempotent исполнителя ограничений нет (nil).
type WorkerConstraints interface {
	// Kinds возвращает типы исполнителей, которым подходит этот вариант.
	Kinds() []WorkerKind

	isWorkerConstraints()
}

// HumanConstraints — ограничения для людей (crowd, collaborators).
type HumanConstraints struct {
	// IDs — ID исполнителей, которым разрешено брать задачу.
	IDs []string `json:"ids,omitempty"`

	// Emails — email исполнителей.
	Emails []string `json:"emails,omitempty"`

	// Groups — допустимые группы.
	Groups []string `json:"groups,omitempty"`

	// ExcludedGroups — исключённые группы.
	ExcludedGroups []string `json:"excludedGroups,omitempty"`

	// Training — требуемые квалификации.
	Training []Qualification `json:"training,omitempty" validate:"dive"`

	// TrainingID — ID квалификационного теста.
	TrainingID string `json:"trainingId,omitempty"`
}

// Kinds реализует WorkerConstraints.
func (*HumanConstraints) Kinds() []WorkerKind {
	return []WorkerKind{WorkerKindCrowd, WorkerKindCollaborators}
}

func (*HumanConstraints) isWorkerConstraints() {}

// BotConstraints — ограничения для ботов.
// Groups хранится для совместимости формата; при отправке всегда BOTS.
type BotConstraints struct {
	Groups []string `json:"groups,omitempty"`
}

// Kinds реализует WorkerConstraints.
func (*BotConstraints) Kinds() []WorkerKind {
	return []WorkerKind{WorkerKindBots}
}

func (*BotConstraints) isWorkerConstraints() {}

// AIConstraints — ограничения для AI-исполнителя.
// IDs должен содержать ровно один ID модели.
type AIConstraints struct {
	IDs []string `json:"ids,omitempty"`
}

// Kinds реализует WorkerConstraints.
func (*AIConstraints) Kinds() []WorkerKind {
	return []WorkerKind{WorkerKindAI}
}

func (*AIConstraints) isWorkerConstraints() {}

// Worker — описание исполнителя в конфигурации SuperTask.
//
// Worker — чистые данные. Поведение (отправка, повторы) реализовано
// в router.TaskHandler.
type Worker struct {
	// Name — имя исполнителя.
	Name string `json:"name" validate:"required"`

	// Kind — тип исполнителя (дискриминант).
	Kind WorkerKind `json:"type"`

	// NumTasks — сколько экземпляров задачи выдаёт запись.
	// Сейчас на каждую запись создаётся один handler.
	NumTasks int `json:"numTasks" validate:"gte=1"`

	// TimeoutSec — через сколько секунд задача считается просроченной.
	TimeoutSec int `json:"timeout" validate:"gt=0"`

	// OnTimeout — политика повтора.
	OnTimeout OnTimeout `json:"onTimeout"`

	// Constraints — ограничения выбора исполнителей (вариант зависит от Kind).
	Constraints WorkerConstraints `json:"-"`

	// Active — неактивные исполнители не получают задач.
	Active bool `json:"active"`

	// ConfidenceThreshold — порог уверенности. Хранится, но не влияет на маршрутизацию.
	ConfidenceThreshold float64 `json:"confidenceThreshold,omitempty" validate:"gte=0,lte=1"`

	// Cost — оплата за задачу.
	Cost float64 `json:"cost,omitempty" validate:"gte=0"`
}

func newWorker(kind WorkerKind, name string, constraints WorkerConstraints) Worker {
	if name == "" {
		name = DefaultWorkerName
	}
	return Worker{
		Name:        name,
		Kind:        kind,
		NumTasks:    DefaultNumTasks,
		TimeoutSec:  DefaultTimeoutSec,
		OnTimeout:   DefaultOnTimeout(),
		Constraints: constraints,
		Active:      true,
	}
}

// NewCrowdWorker создаёт crowd исполнителя с настройками по умолчанию.
func NewCrowdWorker(name string, constraints *HumanConstraints) Worker {
	if constraints == nil {
		constraints = &HumanConstraints{}
	}
	return newWorker(WorkerKindCrowd, name, constraints)
}

// NewCollaboratorWorker создаёт исполнителя-коллаборатора.
func NewCollaboratorWorker(name string, constraints *HumanConstraints) Worker {
	if constraints == nil {
		constraints = &HumanConstraints{}
	}
	return newWorker(WorkerKindCollaborators, name, constraints)
}

// NewBotWorker создаёт бота.
func NewBotWorker(name string) Worker {
	return newWorker(WorkerKindBots, name, &BotConstraints{})
}

// NewAIWorker создаёт AI исполнителя для модели modelID.
func NewAIWorker(name, modelID string) Worker {
	return newWorker(WorkerKindAI, name, &AIConstraints{IDs: []string{modelID}})
}

// NewIdempotentWorker создаёт pass-through исполнителя.
func NewIdempotentWorker(name string) Worker {
	return newWorker(WorkerKindIdempotent, name, nil)
}

var validate = validator.New()

// Validate проверяет Worker.
func (w *Worker) Validate() error {
	if w.Kind == "" {
		return ErrAbstractWorker
	}
	if !w.Kind.IsValid() {
		return NewValidationError(w.Name, "type",
			fmt.Sprintf("unknown worker type: %s", w.Kind), ErrUnknownWorkerKind)
	}

	if err := validate.Struct(w); err != nil {
		return NewValidationError(w.Name, fieldOf(err), err.Error(), ErrInvalidWorker)
	}

	if w.Constraints != nil {
		if !constraintsMatch(w.Kind, w.Constraints) {
			return NewValidationError(w.Name, "workerConstraints",
				fmt.Sprintf("constraints %T do not apply to %s worker", w.Constraints, w.Kind),
				ErrWorkerKindMismatch)
		}
		if err := validate.Struct(w.Constraints); err != nil {
			return NewValidationError(w.Name, "workerConstraints", err.Error(), ErrInvalidWorker)
		}
	}

	return nil
}

// fieldOf извлекает имя первого невалидного поля из ошибки validator.
func fieldOf(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

func constraintsMatch(kind WorkerKind, c WorkerConstraints) bool {
	for _, k := range c.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// --- JSON ---

// workerJSON — форма Worker на проводе.
type workerJSON struct {
	Kind                WorkerKind      `json:"type"`
	Name                string          `json:"name"`
	NumTasks            int             `json:"numTasks,omitempty"`
	TimeoutSec          int             `json:"timeout,omitempty"`
	OnTimeout           *OnTimeout      `json:"onTimeout,omitempty"`
	WorkerConstraints   json.RawMessage `json:"workerConstraints,omitempty"`
	Active              *bool           `json:"active,omitempty"`
	ConfidenceThreshold float64         `json:"confidenceThreshold,omitempty"`
	Cost                float64         `json:"cost,omitempty"`
}

// MarshalJSON реализует json.Marshaler.
func (w Worker) MarshalJSON() ([]byte, error) {
	active := w.Active
	onTimeout := w.OnTimeout
	out := workerJSON{
		Kind:                w.Kind,
		Name:                w.Name,
		NumTasks:            w.NumTasks,
		TimeoutSec:          w.TimeoutSec,
		OnTimeout:           &onTimeout,
		Active:              &active,
		ConfidenceThreshold: w.ConfidenceThreshold,
		Cost:                w.Cost,
	}

	if w.Constraints != nil {
		raw, err := json.Marshal(w.Constraints)
		if err != nil {
			return nil, fmt.Errorf("marshal worker constraints: %w", err)
		}
		out.WorkerConstraints = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON реализует json.Unmarshaler.
//
// Отсутствующие поля получают значения по умолчанию (active=true,
// numTasks=1, timeout=86400, onTimeout=retry/3).
func (w *Worker) UnmarshalJSON(data []byte) error {
	var in workerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*w = newWorker(in.Kind, in.Name, nil)

	if in.NumTasks != 0 {
		w.NumTasks = in.NumTasks
	}
	if in.TimeoutSec != 0 {
		w.TimeoutSec = in.TimeoutSec
	}
	if in.OnTimeout != nil {
		w.OnTimeout = *in.OnTimeout
	}
	if in.Active != nil {
		w.Active = *in.Active
	}
	w.ConfidenceThreshold = in.ConfidenceThreshold
	w.Cost = in.Cost

	raw := bytes.TrimSpace(in.WorkerConstraints)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	constraints, err := decodeConstraints(in.Kind, raw)
	if err != nil {
		return err
	}
	w.Constraints = constraints

	return nil
}

// decodeConstraints выбирает вариант ограничений по типу исполнителя.
func decodeConstraints(kind WorkerKind, raw []byte) (WorkerConstraints, error) {
	var target WorkerConstraints

	switch kind {
	case WorkerKindCrowd, WorkerKindCollaborators:
		target = &HumanConstraints{}
	case WorkerKindBots:
		target = &BotConstraints{}
	case WorkerKindAI:
		target = &AIConstraints{}
	case WorkerKindIdempotent:
		// У idempotent ограничений нет, содержимое игнорируется
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkerKind, kind)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("unmarshal %s worker constraints: %w", kind, err)
	}
	return target, nil
}
