package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskStrategy — стратегия сведения ответов исполнителей в один результат.
type TaskStrategy string

const (
	// StrategyFirstCompleted — побеждает первый готовый ответ, остальные игнорируются.
	StrategyFirstCompleted TaskStrategy = "FIRST_COMPLETED"

	// StrategyPriority — ждём всех исполнителей, побеждает наименьший индекс в списке.
	StrategyPriority TaskStrategy = "PRIORITY"
)

// IsValid проверяет, что стратегия известна.
func (s TaskStrategy) IsValid() bool {
	return s == StrategyFirstCompleted || s == StrategyPriority
}

// SuperTaskParams — параметры маршрутизации SuperTask.
type SuperTaskParams struct {
	Strategy TaskStrategy `json:"strategy"`
}

// SuperTaskConfig — конфигурация одного слота SuperTask.
//
// Порядок Workers значим: при StrategyPriority он задаёт приоритет.
type SuperTaskConfig struct {
	Workers []Worker        `json:"workers"`
	Params  SuperTaskParams `json:"params"`
}

// Validate проверяет конфигурацию.
// Пустой список исполнителей допустим: роутер подставит idempotent исполнителя.
func (c *SuperTaskConfig) Validate() error {
	if !c.Params.Strategy.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Params.Strategy)
	}

	for i := range c.Workers {
		if err := c.Workers[i].Validate(); err != nil {
			return fmt.Errorf("workers[%d]: %w", i, err)
		}
	}

	return nil
}

// ActiveWorkers возвращает индексы активных исполнителей в порядке объявления.
func (c *SuperTaskConfig) ActiveWorkers() []int {
	indexes := make([]int, 0, len(c.Workers))
	for i := range c.Workers {
		if c.Workers[i].Active {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// UnmarshalJSON подставляет FIRST_COMPLETED, если стратегия не указана.
func (c *SuperTaskConfig) UnmarshalJSON(data []byte) error {
	type plain SuperTaskConfig
	var in plain
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	if in.Params.Strategy == "" {
		in.Params.Strategy = StrategyFirstCompleted
	}

	*c = SuperTaskConfig(in)
	return nil
}

// ParseSuperTaskConfig разбирает JSON конфигурацию и валидирует её.
func ParseSuperTaskConfig(data []byte) (*SuperTaskConfig, error) {
	var cfg SuperTaskConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse supertask config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SuperTaskConfigFromMap разбирает конфигурацию из произвольной map
// (например, из параметров дочернего job).
func SuperTaskConfigFromMap(m map[string]any) (*SuperTaskConfig, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal supertask config: %w", err)
	}
	return ParseSuperTaskConfig(data)
}

// TaskTemplate — шаблон задачи: схемы входа и выхода, метрики.
type TaskTemplate struct {
	Name    string         `json:"name"`
	Input   map[string]any `json:"input,omitempty"`
	Output  map[string]any `json:"output,omitempty"`
	Metrics []string       `json:"metrics,omitempty"`
}

// SuperTaskModel — зарегистрированный тип SuperTask.
//
// Name уникален в пределах Data Program и совпадает с Template.Name.
type SuperTaskModel struct {
	// Name — идентификатор типа задачи.
	Name string `json:"name"`

	// Description — человекочитаемое описание.
	Description string `json:"description,omitempty"`

	// Router — имя пользовательского роутера (пусто — стандартный TaskRouter).
	Router string `json:"router,omitempty"`

	// Config — исполнители и стратегия.
	Config SuperTaskConfig `json:"config"`

	// Template — шаблон задачи.
	Template TaskTemplate `json:"template"`

	// CreatedAt — время регистрации.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate проверяет инварианты модели.
func (m *SuperTaskModel) Validate() error {
	if m.Name == "" {
		return ErrEmptySuperTaskName
	}

	if m.Template.Name != m.Name {
		return fmt.Errorf("%w: template %q, supertask %q", ErrTemplateNameMismatch, m.Template.Name, m.Name)
	}

	return m.Config.Validate()
}
