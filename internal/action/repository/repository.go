package repository

import (
	"mailpilot-backend/internal/action/domain"
)

// ActionRepository defines the interface for action data access
type ActionRepository interface {
	// Exists reports whether an action already exists for the message id
	Exists(id string) (bool, error)

	// FindByID finds an action by its ID. Returns nil, nil when absent.
	FindByID(id string) (*domain.Action, error)

	// FindActive returns non-dismissed, non-sent actions, newest first
	FindActive() ([]*domain.Action, error)

	// Create inserts a new action
	Create(action *domain.Action) error

	// Update replaces an existing action
	Update(action *domain.Action) error

	// UpdateStatus changes only the status of an action
	UpdateStatus(id string, status domain.ActionStatus) error

	// UpdateReply replaces the drafted reply body
	UpdateReply(id string, body string) error

	// AppendChat appends turns to the refinement conversation
	AppendChat(id string, messages ...domain.ChatMessage) error

	// Delete removes an action by ID
	Delete(id string) error
}
