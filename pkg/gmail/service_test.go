package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"

	"google.golang.org/api/gmail/v1"
)

func TestLabelSkipFilter(t *testing.T) {
	filter := labelSkipFilter{}

	tests := []struct {
		name   string
		labels []string
		want   bool
	}{
		{"promotions", []string{"INBOX", "CATEGORY_PROMOTIONS"}, true},
		{"social", []string{"CATEGORY_SOCIAL"}, true},
		{"updates", []string{"CATEGORY_UPDATES"}, true},
		{"spam", []string{"SPAM"}, true},
		{"primary inbox", []string{"INBOX", "UNREAD"}, false},
		{"no labels", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.IsLowValue(emaildomain.MessageStub{ID: "m", Labels: tt.labels})
			if got != tt.want {
				t.Errorf("IsLowValue(%v) = %v, want %v", tt.labels, got, tt.want)
			}
		})
	}
}

func TestLabelSkipFilterClassification(t *testing.T) {
	c := labelSkipFilter{}.Classification()
	if c.Category != emaildomain.CategoryOther || c.Important || c.Confidence != 1 {
		t.Errorf("unexpected skip classification: %+v", c)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"Tom &amp; Jerry&nbsp;&lt;3", "Tom & Jerry <3"},
		{"plain text", "plain text"},
		{"<div>\n  spaced\n  out\n</div>", "spaced out"},
	}

	for _, tt := range tests {
		if got := stripHTML(tt.in); got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	got := parseDate("Mon, 02 Jan 2006 15:04:05 -0700", 0)
	if got.Year() != 2006 || got.Month() != time.January {
		t.Errorf("header date parsed wrong: %v", got)
	}

	// malformed header falls back to the provider timestamp (ms)
	got = parseDate("not a date", 1700000000000)
	if got.Unix() != 1700000000 {
		t.Errorf("internal date fallback = %v", got.Unix())
	}
}

func TestNormalizeMessage(t *testing.T) {
	body := base64.URLEncoding.EncodeToString([]byte("Meeting at 3pm"))
	htmlBody := base64.URLEncoding.EncodeToString([]byte("<p>Meeting at 3pm</p>"))

	msg := &gmail.Message{
		Id:           "m1",
		ThreadId:     "t1",
		LabelIds:     []string{"INBOX", "UNREAD"},
		InternalDate: 1700000000000,
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "To", Value: "bob@example.com"},
				{Name: "Subject", Value: "Sync"},
				{Name: "Message-ID", Value: "<abc@mail.example.com>"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: body}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: htmlBody}},
				{
					MimeType: "application/pdf",
					Filename: "agenda.pdf",
					Body:     &gmail.MessagePartBody{AttachmentId: "att1"},
				},
			},
		},
	}

	email := normalizeMessage(msg)

	if email.ID != "m1" || email.ThreadID != "t1" {
		t.Errorf("ids: %s %s", email.ID, email.ThreadID)
	}
	if email.From.Name != "Alice" || email.From.Email != "alice@example.com" {
		t.Errorf("from = %+v", email.From)
	}
	if email.Subject != "Sync" {
		t.Errorf("subject = %q", email.Subject)
	}
	if email.BodyText != "Meeting at 3pm" {
		t.Errorf("body = %q", email.BodyText)
	}
	if email.BodyHTML != "<p>Meeting at 3pm</p>" {
		t.Errorf("html = %q", email.BodyHTML)
	}
	if !email.HasAttachments {
		t.Error("attachment not detected")
	}
	if email.MessageID != "<abc@mail.example.com>" {
		t.Errorf("message id = %q", email.MessageID)
	}
	if email.Source != emaildomain.SourceGmail {
		t.Errorf("source = %s", email.Source)
	}
	if email.Date.Unix() != 1700000000 {
		t.Errorf("date = %v", email.Date)
	}
}

func TestNormalizeMessageHTMLOnly(t *testing.T) {
	htmlBody := base64.URLEncoding.EncodeToString([]byte("<p>Only <b>html</b> here</p>"))

	msg := &gmail.Message{
		Id: "m2",
		Payload: &gmail.MessagePart{
			MimeType: "text/html",
			Headers:  []*gmail.MessagePartHeader{{Name: "Subject", Value: "H"}},
			Body:     &gmail.MessagePartBody{Data: htmlBody},
		},
	}

	email := normalizeMessage(msg)
	if email.BodyText != "Only html here" {
		t.Errorf("stripped body = %q", email.BodyText)
	}
}

func TestGetHeaderCaseInsensitive(t *testing.T) {
	headers := []*gmail.MessagePartHeader{{Name: "message-id", Value: "<x>"}}
	if got := getHeader(headers, "Message-ID"); got != "<x>" {
		t.Errorf("getHeader = %q", got)
	}
	if got := getHeader(headers, "Date"); got != "" {
		t.Errorf("missing header = %q", got)
	}
}
