package usecase

import (
	"context"

	"mailpilot-backend/internal/action/domain"
)

// ChatResult is the outcome of one refinement turn
type ChatResult struct {
	Response     string `json:"response"`
	ReplyUpdated bool   `json:"replyUpdated"`
	ReplyBody    string `json:"replyBody"`
}

// SendResult reports a successfully sent reply
type SendResult struct {
	SentMessageID string `json:"sentMessageId,omitempty"`
}

// ActionUsecase defines operations on surfaced actions
type ActionUsecase interface {
	// ListActions returns all active actions, newest first
	ListActions() ([]*domain.Action, error)

	// GetAction retrieves one action by ID
	GetAction(id string) (*domain.Action, error)

	// UpdateStatus moves an action between pending, approved and
	// dismissed. The sent status is only reachable through SendReply.
	UpdateStatus(id string, status domain.ActionStatus) (*domain.Action, error)

	// UpdateReply replaces the drafted reply body
	UpdateReply(id string, body string) (*domain.Action, error)

	// DeleteAction removes an action
	DeleteAction(id string) error

	// Chat runs one turn of the reply refinement conversation
	Chat(ctx context.Context, id, message string) (*ChatResult, error)

	// SendReply sends the drafted reply through the action's provider
	// and removes the action on success. Non-empty overrides replace the
	// drafted subject and body for this send only.
	SendReply(ctx context.Context, id, subjectOverride, bodyOverride string) (*SendResult, error)
}
