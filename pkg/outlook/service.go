package outlook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"
)

const (
	graphBaseURL = "https://graph.microsoft.com/v1.0"
	listPageSize = 20
)

// Client implements emaildomain.MailClient for Outlook via Microsoft Graph
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Source() emaildomain.EmailSource {
	return emaildomain.SourceOutlook
}

// doRequest issues one Graph API call and returns the response body.
// A nil body with nil error means the resource was not found.
func (c *Client) doRequest(ctx context.Context, accessToken, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, graphBaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graph API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

type graphMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Subject        string `json:"subject"`
	BodyPreview    string `json:"bodyPreview"`
	From           struct {
		EmailAddress graphAddress `json:"emailAddress"`
	} `json:"from"`
	ToRecipients []struct {
		EmailAddress graphAddress `json:"emailAddress"`
	} `json:"toRecipients"`
	CcRecipients []struct {
		EmailAddress graphAddress `json:"emailAddress"`
	} `json:"ccRecipients"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	ReceivedDateTime  string `json:"receivedDateTime"`
	ParentFolderID    string `json:"parentFolderId"`
	HasAttachments    bool   `json:"hasAttachments"`
	InternetMessageID string `json:"internetMessageId"`
}

type graphAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ListUnread returns stubs for unread messages, newest first
func (c *Client) ListUnread(ctx context.Context, accessToken string) ([]emaildomain.MessageStub, error) {
	query := url.Values{}
	query.Set("$filter", "isRead eq false")
	query.Set("$top", fmt.Sprintf("%d", listPageSize))
	query.Set("$orderby", "receivedDateTime desc")
	query.Set("$select", "id,conversationId,subject,bodyPreview,from,receivedDateTime,parentFolderId,hasAttachments")

	respBody, err := c.doRequest(ctx, accessToken, "GET", "/me/messages?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to list unread messages: %w", err)
	}
	if respBody == nil {
		return nil, fmt.Errorf("unable to list unread messages: mailbox not found")
	}

	var result struct {
		Value []graphMessage `json:"value"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse message list: %w", err)
	}

	stubs := make([]emaildomain.MessageStub, 0, len(result.Value))
	for _, msg := range result.Value {
		stubs = append(stubs, emaildomain.MessageStub{
			ID:             msg.ID,
			ThreadID:       msg.ConversationID,
			Subject:        msg.Subject,
			Snippet:        msg.BodyPreview,
			From:           formatAddress(msg.From.EmailAddress),
			Date:           parseGraphTime(msg.ReceivedDateTime),
			FolderID:       msg.ParentFolderID,
			HasAttachments: msg.HasAttachments,
		})
	}

	return stubs, nil
}

// GetFullMessage fetches and normalizes one message. Returns nil without
// error when the message no longer exists.
func (c *Client) GetFullMessage(ctx context.Context, accessToken, messageID string) (*emaildomain.NormalizedEmail, error) {
	respBody, err := c.doRequest(ctx, accessToken, "GET", "/me/messages/"+url.PathEscape(messageID), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message: %w", err)
	}
	if respBody == nil {
		return nil, nil
	}

	var msg graphMessage
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	return normalizeMessage(&msg), nil
}

// MarkAsRead flags the message as read
func (c *Client) MarkAsRead(ctx context.Context, accessToken, messageID string) error {
	_, err := c.doRequest(ctx, accessToken, "PATCH", "/me/messages/"+url.PathEscape(messageID), map[string]bool{
		"isRead": true,
	})
	if err != nil {
		return fmt.Errorf("unable to mark message as read: %w", err)
	}
	return nil
}

// SendReply replies to a message through the Graph reply endpoint, which
// threads the reply on the provider side
func (c *Client) SendReply(ctx context.Context, accessToken string, email *emaildomain.NormalizedEmail, subject, body string) (string, error) {
	payload := map[string]interface{}{
		"comment": body,
	}

	_, err := c.doRequest(ctx, accessToken, "POST", "/me/messages/"+url.PathEscape(email.ID)+"/reply", payload)
	if err != nil {
		return "", fmt.Errorf("unable to send reply: %w", err)
	}

	// The reply endpoint does not return the sent message id
	return "", nil
}

// NewSkipFilter resolves the account's Junk Email folder id once so the
// poll loop can flag junk messages without extra API calls
func (c *Client) NewSkipFilter(ctx context.Context, accessToken string) (emaildomain.SkipFilter, error) {
	respBody, err := c.doRequest(ctx, accessToken, "GET", "/me/mailFolders/junkemail", nil)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve junk folder: %w", err)
	}

	var folder struct {
		ID string `json:"id"`
	}
	if respBody != nil {
		if err := json.Unmarshal(respBody, &folder); err != nil {
			return nil, fmt.Errorf("failed to parse junk folder: %w", err)
		}
	}

	return junkFolderFilter{junkFolderID: folder.ID}, nil
}

type junkFolderFilter struct {
	junkFolderID string
}

func (f junkFolderFilter) IsLowValue(msg emaildomain.MessageStub) bool {
	return f.junkFolderID != "" && msg.FolderID == f.junkFolderID
}

func (f junkFolderFilter) Classification() emaildomain.EmailClassification {
	return emaildomain.EmailClassification{
		Category:   emaildomain.CategorySpam,
		Important:  false,
		Confidence: 1,
		Reasoning:  "Message is in Junk folder",
	}
}

func (f junkFolderFilter) StubEmail(msg emaildomain.MessageStub, accountEmail string) emaildomain.NormalizedEmail {
	return emaildomain.NormalizedEmail{
		ID:             msg.ID,
		ThreadID:       msg.ThreadID,
		From:           emaildomain.ParseAddress(msg.From),
		Subject:        msg.Subject,
		BodyText:       msg.Snippet,
		Date:           msg.Date,
		HasAttachments: msg.HasAttachments,
		Source:         emaildomain.SourceOutlook,
		AccountEmail:   accountEmail,
	}
}

// Helper functions

func normalizeMessage(msg *graphMessage) *emaildomain.NormalizedEmail {
	bodyText := msg.Body.Content
	bodyHTML := ""
	if strings.EqualFold(msg.Body.ContentType, "html") {
		bodyHTML = msg.Body.Content
		bodyText = stripHTML(bodyHTML)
		if bodyText == "" {
			bodyText = msg.BodyPreview
		}
	}

	to := make([]emaildomain.EmailAddress, 0, len(msg.ToRecipients))
	for _, r := range msg.ToRecipients {
		to = append(to, emaildomain.EmailAddress{Name: r.EmailAddress.Name, Email: r.EmailAddress.Address})
	}
	cc := make([]emaildomain.EmailAddress, 0, len(msg.CcRecipients))
	for _, r := range msg.CcRecipients {
		cc = append(cc, emaildomain.EmailAddress{Name: r.EmailAddress.Name, Email: r.EmailAddress.Address})
	}

	return &emaildomain.NormalizedEmail{
		ID:       msg.ID,
		ThreadID: msg.ConversationID,
		From: emaildomain.EmailAddress{
			Name:  msg.From.EmailAddress.Name,
			Email: msg.From.EmailAddress.Address,
		},
		To:             to,
		Cc:             cc,
		Subject:        msg.Subject,
		BodyText:       bodyText,
		BodyHTML:       bodyHTML,
		Date:           parseGraphTime(msg.ReceivedDateTime),
		HasAttachments: msg.HasAttachments,
		MessageID:      msg.InternetMessageID,
		Source:         emaildomain.SourceOutlook,
	}
}

func formatAddress(addr graphAddress) string {
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
	}
	return addr.Address
}

func parseGraphTime(value string) time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Now()
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripHTML(html string) string {
	text := tagRe.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	return strings.Join(strings.Fields(text), " ")
}
