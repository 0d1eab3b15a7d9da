package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const listPageSize = 20

// Labels that mark a message as low value. Messages carrying any of
// these are surfaced as skipped stubs without calling the AI.
var skipLabels = map[string]bool{
	"CATEGORY_PROMOTIONS": true,
	"CATEGORY_SOCIAL":     true,
	"CATEGORY_UPDATES":    true,
	"CATEGORY_FORUMS":     true,
	"SPAM":                true,
	"TRASH":               true,
}

// Client implements emaildomain.MailClient for Gmail
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Source() emaildomain.EmailSource {
	return emaildomain.SourceGmail
}

// service builds a Gmail API client from a bearer token. Token refresh
// is the credential store's concern, so a static source is enough here.
func (c *Client) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})

	srv, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

// ListUnread returns stubs for unread messages, newest first. The query
// deliberately spans all folders so spam and trash still show up and get
// recorded as dismissed by the label filter.
func (c *Client) ListUnread(ctx context.Context, accessToken string) ([]emaildomain.MessageStub, error) {
	srv, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Users.Messages.List("me").Q("is:unread").MaxResults(listPageSize).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list unread messages: %v", err)
	}

	stubs := make([]emaildomain.MessageStub, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		meta, err := srv.Users.Messages.Get("me", msg.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Do()
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("unable to fetch message metadata: %v", err)
		}

		stubs = append(stubs, emaildomain.MessageStub{
			ID:       meta.Id,
			ThreadID: meta.ThreadId,
			Subject:  getHeader(meta.Payload.Headers, "Subject"),
			Snippet:  meta.Snippet,
			From:     getHeader(meta.Payload.Headers, "From"),
			Date:     parseDate(getHeader(meta.Payload.Headers, "Date"), meta.InternalDate),
			Labels:   meta.LabelIds,
		})
	}

	return stubs, nil
}

// GetFullMessage fetches and normalizes one message. Returns nil without
// error when the message no longer exists.
func (c *Client) GetFullMessage(ctx context.Context, accessToken, messageID string) (*emaildomain.NormalizedEmail, error) {
	srv, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to retrieve message: %v", err)
	}

	return normalizeMessage(msg), nil
}

// MarkAsRead removes the UNREAD label
func (c *Client) MarkAsRead(ctx context.Context, accessToken, messageID string) error {
	srv, err := c.service(ctx, accessToken)
	if err != nil {
		return err
	}

	_, err = srv.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Do()
	if err != nil {
		return fmt.Errorf("unable to mark message as read: %v", err)
	}

	return nil
}

// SendReply sends a threaded reply to the given email
func (c *Client) SendReply(ctx context.Context, accessToken string, email *emaildomain.NormalizedEmail, subject, body string) (string, error) {
	srv, err := c.service(ctx, accessToken)
	if err != nil {
		return "", err
	}

	to := email.From.Email
	if to == "" {
		return "", fmt.Errorf("email has no sender address to reply to")
	}

	var raw bytes.Buffer
	raw.WriteString(fmt.Sprintf("To: %s\r\n", to))
	encodedSubject := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(subject)))
	raw.WriteString(fmt.Sprintf("Subject: %s\r\n", encodedSubject))
	if email.MessageID != "" {
		raw.WriteString(fmt.Sprintf("In-Reply-To: %s\r\n", email.MessageID))
		raw.WriteString(fmt.Sprintf("References: %s\r\n", email.MessageID))
	}
	raw.WriteString("MIME-Version: 1.0\r\n")
	raw.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	raw.WriteString(body)

	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw.Bytes()),
		ThreadId: email.ThreadID,
	}

	sent, err := srv.Users.Messages.Send("me", msg).Do()
	if err != nil {
		return "", fmt.Errorf("unable to send reply: %v", err)
	}

	return sent.Id, nil
}

// NewSkipFilter returns the label-based low value filter. Gmail needs no
// per-account state for this, so the token is unused.
func (c *Client) NewSkipFilter(ctx context.Context, accessToken string) (emaildomain.SkipFilter, error) {
	return labelSkipFilter{}, nil
}

type labelSkipFilter struct{}

func (labelSkipFilter) IsLowValue(msg emaildomain.MessageStub) bool {
	for _, label := range msg.Labels {
		if skipLabels[label] {
			return true
		}
	}
	return false
}

func (labelSkipFilter) Classification() emaildomain.EmailClassification {
	return emaildomain.EmailClassification{
		Category:   emaildomain.CategoryOther,
		Important:  false,
		Confidence: 1,
		Reasoning:  "Skipped by label filter",
	}
}

func (labelSkipFilter) StubEmail(msg emaildomain.MessageStub, accountEmail string) emaildomain.NormalizedEmail {
	return emaildomain.NormalizedEmail{
		ID:           msg.ID,
		ThreadID:     msg.ThreadID,
		From:         emaildomain.ParseAddress(msg.From),
		Subject:      msg.Subject,
		BodyText:     msg.Snippet,
		Date:         msg.Date,
		Labels:       msg.Labels,
		Source:       emaildomain.SourceGmail,
		AccountEmail: accountEmail,
	}
}

// Helper functions

func normalizeMessage(msg *gmail.Message) *emaildomain.NormalizedEmail {
	headers := msg.Payload.Headers

	plain, html := getMessageBody(msg.Payload)
	bodyText := plain
	if bodyText == "" && html != "" {
		bodyText = stripHTML(html)
	}

	return &emaildomain.NormalizedEmail{
		ID:             msg.Id,
		ThreadID:       msg.ThreadId,
		From:           emaildomain.ParseAddress(getHeader(headers, "From")),
		To:             emaildomain.ParseAddressList(getHeader(headers, "To")),
		Cc:             emaildomain.ParseAddressList(getHeader(headers, "Cc")),
		Subject:        getHeader(headers, "Subject"),
		BodyText:       bodyText,
		BodyHTML:       html,
		Date:           parseDate(getHeader(headers, "Date"), msg.InternalDate),
		Labels:         msg.LabelIds,
		HasAttachments: hasAttachments(msg.Payload),
		MessageID:      getHeader(headers, "Message-ID"),
		Source:         emaildomain.SourceGmail,
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func getMessageBody(payload *gmail.MessagePart) (plain, html string) {
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			if payload.MimeType == "text/html" {
				return "", string(data)
			}
			return string(data), ""
		}
	}

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				data, err := base64.URLEncoding.DecodeString(part.Body.Data)
				if err == nil {
					switch part.MimeType {
					case "text/plain":
						if plain == "" {
							plain = string(data)
						}
					case "text/html":
						if html == "" {
							html = string(data)
						}
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	return plain, html
}

func hasAttachments(payload *gmail.MessagePart) bool {
	found := false

	var walk func(parts []*gmail.MessagePart)
	walk = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
				found = true
				return
			}
			if len(part.Parts) > 0 {
				walk(part.Parts)
			}
		}
	}
	walk(payload.Parts)

	return found
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// stripHTML produces a plain text approximation of an HTML body
func stripHTML(html string) string {
	text := tagRe.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	return strings.Join(strings.Fields(text), " ")
}

func parseDate(dateHeader string, internalDate int64) time.Time {
	if dateHeader != "" {
		for _, layout := range []string{time.RFC1123Z, time.RFC1123, "Mon, 2 Jan 2006 15:04:05 -0700", "2 Jan 2006 15:04:05 -0700"} {
			if t, err := time.Parse(layout, dateHeader); err == nil {
				return t
			}
		}
	}
	if internalDate > 0 {
		return time.Unix(internalDate/1000, 0)
	}
	return time.Now()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}
