package router

import (
	"fmt"
	"sort"
	"sync"
)

// Factory создаёт пользовательский Router из конфигурации.
type Factory func(cfg Config) (Router, error)

// Registry — реестр пользовательских роутеров.
//
// SuperTaskModel.Router ссылается на роутер по имени.
// Пустое имя означает стандартный TaskRouter. Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register регистрирует фабрику под именем.
// Если имя уже занято, фабрика перезаписывается.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build создаёт Router по имени.
func (r *Registry) Build(name string, cfg Config) (Router, error) {
	if name == "" {
		return New(cfg), nil
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrRouterNotFound, name)
	}

	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouterNotFound, name)
	}
	return f(cfg)
}

// Names возвращает имена зарегистрированных роутеров.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
