package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"mailpilot-backend/internal/action/domain"
)

// memoryActionRepository implements ActionRepository with an in-memory
// map. Used when no database is configured, and in tests.
type memoryActionRepository struct {
	mu      sync.RWMutex
	actions map[string]*domain.Action
}

// NewMemoryActionRepository creates a new in-memory ActionRepository
func NewMemoryActionRepository() ActionRepository {
	return &memoryActionRepository{
		actions: make(map[string]*domain.Action),
	}
}

func (r *memoryActionRepository) Exists(id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[id]
	return ok, nil
}

func (r *memoryActionRepository) FindByID(id string) (*domain.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[id]
	if !ok {
		return nil, nil
	}
	copied := *action
	return &copied, nil
}

func (r *memoryActionRepository) FindActive() ([]*domain.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]*domain.Action, 0)
	for _, action := range r.actions {
		if action.Status == domain.ActionStatusDismissed || action.Status == domain.ActionStatusSent {
			continue
		}
		copied := *action
		actions = append(actions, &copied)
	}
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].CreatedAt.After(actions[j].CreatedAt)
	})
	return actions, nil
}

func (r *memoryActionRepository) Create(action *domain.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.actions[action.ID]; ok {
		return fmt.Errorf("action %s already exists", action.ID)
	}

	now := time.Now()
	action.CreatedAt = now
	action.UpdatedAt = now
	copied := *action
	r.actions[action.ID] = &copied
	return nil
}

func (r *memoryActionRepository) Update(action *domain.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.actions[action.ID]; !ok {
		return fmt.Errorf("action %s not found", action.ID)
	}

	action.UpdatedAt = time.Now()
	copied := *action
	r.actions[action.ID] = &copied
	return nil
}

func (r *memoryActionRepository) UpdateStatus(id string, status domain.ActionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok {
		return fmt.Errorf("action %s not found", id)
	}
	action.Status = status
	action.UpdatedAt = time.Now()
	return nil
}

func (r *memoryActionRepository) UpdateReply(id string, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok {
		return fmt.Errorf("action %s not found", id)
	}
	action.ReplyBody = body
	action.UpdatedAt = time.Now()
	return nil
}

func (r *memoryActionRepository) AppendChat(id string, messages ...domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok {
		return fmt.Errorf("action %s not found", id)
	}
	action.ChatHistory = append(action.ChatHistory, messages...)
	action.UpdatedAt = time.Now()
	return nil
}

func (r *memoryActionRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.actions, id)
	return nil
}
