// Package fakehub manages many named fakes, each described by a Definition
// instead of a compiled Go interface.
package fakehub

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liamcoop/fakerules/fake"
	"github.com/liamcoop/fakerules/internal/logger"
)

// ErrFakeNotFound is returned for unknown fake IDs.
var ErrFakeNotFound = errors.New("fake not found")

// Fake is one hosted fake.
type Fake struct {
	ID         string
	Name       string
	Definition Definition
	Manager    *fake.Manager
	CreatedAt  time.Time

	methods map[string]fake.Method
}

// Method returns the described method called name.
func (f *Fake) Method(name string) (fake.Method, error) {
	m, ok := f.methods[name]
	if !ok {
		return fake.Method{}, fmt.Errorf("fake %s has no method %q", f.Name, name)
	}
	return m, nil
}

// Hub holds fakes by ID.
type Hub struct {
	fakes map[string]*Fake
	opts  []fake.Option
	mu    sync.RWMutex
}

// NewHub creates an empty hub. opts are applied to every fake's manager.
func NewHub(opts ...fake.Option) *Hub {
	return &Hub{
		fakes: make(map[string]*Fake),
		opts:  opts,
	}
}

// CreateFake validates def and registers a new fake.
func (h *Hub) CreateFake(name string, def Definition) (*Fake, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateDefinition(def); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, f := range h.fakes {
		if f.Name == name {
			return nil, fmt.Errorf("fake named %s already exists", name)
		}
	}

	f := h.newFake(uuid.NewString(), name, def)
	h.fakes[f.ID] = f
	logger.Info("fake created", "fake", f.ID, "name", name, "methods", len(def))
	return f, nil
}

// Redefine swaps the fake's definition. The fake keeps its ID but starts
// over with no rules and an empty history.
func (h *Hub) Redefine(id string, def Definition) (*Fake, error) {
	if err := ValidateDefinition(def); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	old, ok := h.fakes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFakeNotFound, id)
	}

	f := h.newFake(id, old.Name, def)
	f.CreatedAt = old.CreatedAt
	h.fakes[id] = f
	logger.Info("fake redefined", "fake", id, "name", f.Name, "methods", len(def))
	return f, nil
}

func (h *Hub) newFake(id, name string, def Definition) *Fake {
	opts := append([]fake.Option{fake.WithID(id), fake.WithName(name)}, h.opts...)
	return &Fake{
		ID:         id,
		Name:       name,
		Definition: def,
		Manager:    fake.NewManager(opts...),
		CreatedAt:  time.Now().UTC(),
		methods:    def.methods(name),
	}
}

// Get retrieves a fake by ID.
func (h *Hub) Get(id string) (*Fake, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	f, ok := h.fakes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFakeNotFound, id)
	}
	return f, nil
}

// List returns all fakes ordered by name.
func (h *Hub) List() []*Fake {
	h.mu.RLock()
	defer h.mu.RUnlock()

	fakes := make([]*Fake, 0, len(h.fakes))
	for _, f := range h.fakes {
		fakes = append(fakes, f)
	}
	sort.Slice(fakes, func(i, j int) bool {
		return fakes[i].Name < fakes[j].Name
	})
	return fakes
}

// Delete removes a fake from the hub.
func (h *Hub) Delete(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.fakes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrFakeNotFound, id)
	}
	delete(h.fakes, id)
	return nil
}
