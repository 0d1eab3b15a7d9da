package domain

import (
	"context"
	"time"
)

// MessageStub is the lightweight listing form of a message, enough to decide
// whether it is worth fetching and classifying
type MessageStub struct {
	ID             string
	ThreadID       string
	Subject        string
	Snippet        string
	From           string // raw header form, e.g. "Name <addr>"
	Date           time.Time
	Labels         []string // Gmail label ids
	FolderID       string   // Outlook parent folder id
	HasAttachments bool
}

// SkipFilter decides, without any AI call, that a message is low-value.
// One implementation per provider (Gmail label set, Outlook junk folder).
type SkipFilter interface {
	IsLowValue(msg MessageStub) bool

	// Classification is the synthetic confidence-1 classification recorded
	// on the dismissed Action so the message is never re-checked
	Classification() EmailClassification

	// StubEmail builds a minimal NormalizedEmail from the listing stub,
	// used for skip-filtered messages that never get a full fetch
	StubEmail(msg MessageStub, accountEmail string) NormalizedEmail
}

// MailClient is the per-provider mail API surface consumed by the
// ingestion pipeline and the send flow
type MailClient interface {
	Source() EmailSource

	// ListUnread returns up to one page of unread message stubs
	ListUnread(ctx context.Context, accessToken string) ([]MessageStub, error)

	// GetFullMessage fetches and normalizes one message.
	// Returns nil, nil when the message no longer exists.
	GetFullMessage(ctx context.Context, accessToken, id string) (*NormalizedEmail, error)

	MarkAsRead(ctx context.Context, accessToken, id string) error

	// SendReply sends a reply threaded onto the original message and
	// returns the provider message id of the sent mail (may be empty for
	// providers whose reply endpoint returns no body)
	SendReply(ctx context.Context, accessToken string, email *NormalizedEmail, subject, body string) (string, error)

	// NewSkipFilter builds the low-value filter for one account poll.
	// Outlook resolves its junk folder id here; Gmail is static.
	NewSkipFilter(ctx context.Context, accessToken string) (SkipFilter, error)
}

// Account is one connected mailbox with a ready-to-use bearer token
type Account struct {
	Email       string
	AccessToken string
}

// CredentialProvider hands out refreshed tokens per provider/account.
// A provider with zero connected accounts yields an empty list, not an
// error; accounts that fail to refresh are skipped and logged.
type CredentialProvider interface {
	ListAccounts(ctx context.Context, provider EmailSource) ([]Account, error)
	HasAccounts(provider EmailSource) bool
	AccessToken(ctx context.Context, provider EmailSource, email string) (string, error)
}
