package outlook

import (
	"testing"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"
)

func TestJunkFolderFilter(t *testing.T) {
	filter := junkFolderFilter{junkFolderID: "junk-1"}

	if !filter.IsLowValue(emaildomain.MessageStub{ID: "m", FolderID: "junk-1"}) {
		t.Error("junk folder message not flagged")
	}
	if filter.IsLowValue(emaildomain.MessageStub{ID: "m", FolderID: "inbox-1"}) {
		t.Error("inbox message flagged as junk")
	}

	// unresolved junk folder id never matches
	none := junkFolderFilter{}
	if none.IsLowValue(emaildomain.MessageStub{ID: "m", FolderID: ""}) {
		t.Error("empty folder ids matched each other")
	}
}

func TestJunkFolderClassification(t *testing.T) {
	c := junkFolderFilter{}.Classification()
	if c.Category != emaildomain.CategorySpam || c.Important || c.Confidence != 1 {
		t.Errorf("unexpected junk classification: %+v", c)
	}
	if c.Reasoning != "Message is in Junk folder" {
		t.Errorf("reasoning = %q", c.Reasoning)
	}
}

func TestNormalizeMessageHTMLBody(t *testing.T) {
	msg := &graphMessage{
		ID:                "m1",
		ConversationID:    "c1",
		Subject:           "Team offsite",
		ReceivedDateTime:  "2026-08-30T09:15:00Z",
		HasAttachments:    true,
		InternetMessageID: "<m1@outlook.example.com>",
	}
	msg.From.EmailAddress = graphAddress{Name: "Bob", Address: "bob@example.com"}
	msg.Body.ContentType = "html"
	msg.Body.Content = "<p>See you <b>Friday</b></p>"

	email := normalizeMessage(msg)

	if email.ID != "m1" || email.ThreadID != "c1" {
		t.Errorf("ids: %s %s", email.ID, email.ThreadID)
	}
	if email.From.Name != "Bob" || email.From.Email != "bob@example.com" {
		t.Errorf("from = %+v", email.From)
	}
	if email.BodyText != "See you Friday" {
		t.Errorf("body = %q", email.BodyText)
	}
	if email.BodyHTML == "" {
		t.Error("html body dropped")
	}
	if !email.HasAttachments {
		t.Error("attachment flag lost")
	}
	if email.MessageID != "<m1@outlook.example.com>" {
		t.Errorf("message id = %q", email.MessageID)
	}
	if email.Source != emaildomain.SourceOutlook {
		t.Errorf("source = %s", email.Source)
	}
	want := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	if !email.Date.Equal(want) {
		t.Errorf("date = %v, want %v", email.Date, want)
	}
}

func TestNormalizeMessageTextBody(t *testing.T) {
	msg := &graphMessage{ID: "m2", Subject: "Plain"}
	msg.Body.ContentType = "text"
	msg.Body.Content = "just text"

	email := normalizeMessage(msg)
	if email.BodyText != "just text" || email.BodyHTML != "" {
		t.Errorf("body = %q html = %q", email.BodyText, email.BodyHTML)
	}
}

func TestFormatAddress(t *testing.T) {
	got := formatAddress(graphAddress{Name: "Bob", Address: "bob@example.com"})
	if got != "Bob <bob@example.com>" {
		t.Errorf("formatAddress = %q", got)
	}
	got = formatAddress(graphAddress{Address: "bob@example.com"})
	if got != "bob@example.com" {
		t.Errorf("formatAddress without name = %q", got)
	}
}
