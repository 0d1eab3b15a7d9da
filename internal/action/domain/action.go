package domain

import (
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"
)

// ActionStatus represents the lifecycle state of a surfaced action
type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusApproved  ActionStatus = "approved"
	ActionStatusSent      ActionStatus = "sent"
	ActionStatusDismissed ActionStatus = "dismissed"
)

// ChatMessage is one turn of the reply refinement conversation
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Action is one surfaced email with everything extracted from it: the
// classification, any detected calendar event and tasks, the drafted
// reply, and the refinement chat. It is keyed by the provider message id
// so repeated polls never surface the same email twice.
type Action struct {
	ID           string                  `json:"id" gorm:"primaryKey"`
	ThreadID     string                  `json:"threadId"`
	Source       emaildomain.EmailSource `json:"source" gorm:"index;not null"`
	AccountEmail string                  `json:"accountEmail" gorm:"index"`

	Email          emaildomain.NormalizedEmail    `json:"email" gorm:"serializer:json"`
	Classification emaildomain.EmailClassification `json:"classification" gorm:"serializer:json"`
	CalendarEvent  *emaildomain.CalendarEvent     `json:"calendarEvent,omitempty" gorm:"serializer:json"`
	DetectedTasks  []emaildomain.DetectedTask     `json:"detectedTasks,omitempty" gorm:"serializer:json"`

	ReplySubject string        `json:"replySubject"`
	ReplyBody    string        `json:"replyBody"`
	ChatHistory  []ChatMessage `json:"chatHistory,omitempty" gorm:"serializer:json"`

	Status    ActionStatus `json:"status" gorm:"default:pending;index"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// PollResult summarizes one poll cycle for a provider.
// Count is the total unread messages seen across the cycle, whether or
// not they produced a new record this time.
type PollResult struct {
	Count          int      `json:"count"`
	ActionsCreated int      `json:"actionsCreated"`
	AccountsPolled int      `json:"accountsPolled"`
	Errors         []string `json:"errors,omitempty"`
}
