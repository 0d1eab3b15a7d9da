package domain

import "time"

// EmailSource identifies which mail provider a message came from
type EmailSource string

const (
	SourceGmail   EmailSource = "gmail"
	SourceOutlook EmailSource = "outlook"
)

// EmailAddress is a parsed name + address pair
type EmailAddress struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NormalizedEmail is the canonical, provider-agnostic email representation.
// Constructed once by a provider client and never mutated afterwards.
// ID is unique within a (Source, AccountEmail) pair.
type NormalizedEmail struct {
	ID             string         `json:"id"`
	ThreadID       string         `json:"threadId"`
	From           EmailAddress   `json:"from"`
	To             []EmailAddress `json:"to"`
	Cc             []EmailAddress `json:"cc"`
	Subject        string         `json:"subject"`
	BodyText       string         `json:"bodyText"`
	BodyHTML       string         `json:"bodyHtml"`
	Date           time.Time      `json:"date"`
	Labels         []string       `json:"labels"`
	HasAttachments bool           `json:"hasAttachments"`
	MessageID      string         `json:"messageId"` // RFC Message-ID header, used for reply threading
	Source         EmailSource    `json:"source"`
	AccountEmail   string         `json:"accountEmail"`
}

// EmailCategory is the AI-assigned topic category
type EmailCategory string

const (
	CategoryBookingRequest EmailCategory = "booking_request"
	CategoryNewsletter     EmailCategory = "newsletter"
	CategoryReceipt        EmailCategory = "receipt"
	CategoryPersonal       EmailCategory = "personal"
	CategoryWork           EmailCategory = "work"
	CategorySpam           EmailCategory = "spam"
	CategoryOther          EmailCategory = "other"
)

// ValidCategory reports whether c is one of the known categories
func ValidCategory(c EmailCategory) bool {
	switch c {
	case CategoryBookingRequest, CategoryNewsletter, CategoryReceipt,
		CategoryPersonal, CategoryWork, CategorySpam, CategoryOther:
		return true
	}
	return false
}

// EmailClassification is produced once per message by the classifier
type EmailClassification struct {
	Category   EmailCategory `json:"category"`
	Important  bool          `json:"important"`
	Confidence float64       `json:"confidence"`
	Reasoning  string        `json:"reasoning"`
}

// CalendarEvent is a detected appointment/meeting/deadline embedded in an email.
// A nil *CalendarEvent means the detector found nothing calendar-worthy.
type CalendarEvent struct {
	Title       string  `json:"title"`
	Date        string  `json:"date"` // YYYY-MM-DD
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"` // HH:MM 24h, nil when unknown or all-day
	Location    *string `json:"location"`
	Description string  `json:"description"`
	IsAllDay    bool    `json:"isAllDay"`
}

// TaskPriority for detected tasks
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// DetectedTask is an actionable item extracted from an email body.
// Detections below the 0.6 confidence threshold are dropped before surfacing.
type DetectedTask struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	DueDate     *string      `json:"dueDate"` // YYYY-MM-DD
	Priority    TaskPriority `json:"priority"`
}

// GeneratedReply is the AI-drafted reply attached to an Action
type GeneratedReply struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ParsedTask is a task extracted from free text or an uploaded file,
// returned to the caller without being persisted
type ParsedTask struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
}
