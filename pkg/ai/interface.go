package ai

import (
	"context"

	emaildomain "mailpilot-backend/internal/email/domain"
)

// ChatTurn is one prior message of an action's refinement conversation
type ChatTurn struct {
	Role    string // "user" or "assistant"
	Content string
}

// ExtractorService is the LLM-backed extraction surface consumed by the
// ingestion pipeline and the chat/task flows.
//
// ClassifyEmail, DetectCalendarEvent and DetectTasks never fail: on any
// transport or parse error they degrade to a safe default (neutral
// classification, nil event, empty task list). A single malformed LLM
// response must not abort a poll batch.
type ExtractorService interface {
	ClassifyEmail(ctx context.Context, email *emaildomain.NormalizedEmail) emaildomain.EmailClassification
	DetectCalendarEvent(ctx context.Context, email *emaildomain.NormalizedEmail) *emaildomain.CalendarEvent
	DetectTasks(ctx context.Context, email *emaildomain.NormalizedEmail) []emaildomain.DetectedTask

	// GenerateReply drafts a reply to a surfaced email
	GenerateReply(ctx context.Context, email *emaildomain.NormalizedEmail) (emaildomain.GeneratedReply, error)

	// RefineReply continues the conversation about a drafted reply and
	// returns the raw assistant text (marker parsing happens in the
	// action usecase)
	RefineReply(ctx context.Context, email *emaildomain.NormalizedEmail, currentReply string, history []ChatTurn, userMessage string) (string, error)

	// ParseTasksFromText extracts tasks from a free-form user message
	ParseTasksFromText(ctx context.Context, text string) ([]emaildomain.ParsedTask, error)

	// ParseTasksFromImage extracts tasks from an uploaded image (syllabus,
	// assignment sheet) via a vision-capable model
	ParseTasksFromImage(ctx context.Context, base64Image, mimeType string) ([]emaildomain.ParsedTask, error)
}

// ProviderType selects the LLM backend
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)
