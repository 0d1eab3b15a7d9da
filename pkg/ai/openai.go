package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"
)

// OpenAIService implements ExtractorService against the OpenAI
// chat-completions API
type OpenAIService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIService creates an OpenAI-backed extractor service
func NewOpenAIService(apiKey, model string) *OpenAIService {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIService{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequestMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string, or content parts for vision
}

// chatComplete issues one chat-completions call and returns the assistant text
func (s *OpenAIService) chatComplete(ctx context.Context, messages []chatRequestMessage, jsonMode bool) (string, error) {
	payload := map[string]interface{}{
		"model":    s.model,
		"messages": messages,
	}
	if jsonMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

func (s *OpenAIService) ClassifyEmail(ctx context.Context, email *emaildomain.NormalizedEmail) emaildomain.EmailClassification {
	text, err := s.chatComplete(ctx, []chatRequestMessage{
		{Role: "system", Content: classifySystemPrompt},
		{Role: "user", Content: emailContext(email, classifyBodyBudget)},
	}, true)
	if err != nil {
		log.Printf("[AI] Classification failed for %s: %v", email.ID, err)
		return emaildomain.EmailClassification{
			Category:  emaildomain.CategoryOther,
			Reasoning: "Failed to parse classification",
		}
	}
	return parseClassification(text)
}

func (s *OpenAIService) DetectCalendarEvent(ctx context.Context, email *emaildomain.NormalizedEmail) *emaildomain.CalendarEvent {
	text, err := s.chatComplete(ctx, []chatRequestMessage{
		{Role: "system", Content: eventSystemPrompt},
		{Role: "user", Content: emailContext(email, eventBodyBudget)},
	}, true)
	if err != nil {
		log.Printf("[AI] Event detection failed for %s: %v", email.ID, err)
		return nil
	}
	return parseCalendarEvent(text)
}

func (s *OpenAIService) DetectTasks(ctx context.Context, email *emaildomain.NormalizedEmail) []emaildomain.DetectedTask {
	text, err := s.chatComplete(ctx, []chatRequestMessage{
		{Role: "system", Content: tasksSystemPrompt(today())},
		{Role: "user", Content: emailContext(email, tasksBodyBudget)},
	}, true)
	if err != nil {
		log.Printf("[AI] Task detection failed for %s: %v", email.ID, err)
		return nil
	}
	return parseDetectedTasks(text)
}

func (s *OpenAIService) GenerateReply(ctx context.Context, email *emaildomain.NormalizedEmail) (emaildomain.GeneratedReply, error) {
	body, err := s.chatComplete(ctx, []chatRequestMessage{
		{Role: "system", Content: replySystemPrompt},
		{Role: "user", Content: emailContext(email, replyBodyBudget)},
	}, false)
	if err != nil {
		return emaildomain.GeneratedReply{}, fmt.Errorf("reply generation failed: %w", err)
	}

	subject := email.Subject
	if !strings.HasPrefix(subject, "Re:") {
		subject = "Re: " + subject
	}
	return emaildomain.GeneratedReply{Subject: subject, Body: strings.TrimSpace(body)}, nil
}

func (s *OpenAIService) RefineReply(ctx context.Context, email *emaildomain.NormalizedEmail, currentReply string, history []ChatTurn, userMessage string) (string, error) {
	messages := []chatRequestMessage{
		{Role: "system", Content: refineSystemPrompt(email, currentReply)},
	}
	for _, turn := range historyTurns(history, userMessage) {
		messages = append(messages, chatRequestMessage{Role: turn.Role, Content: turn.Content})
	}

	text, err := s.chatComplete(ctx, messages, false)
	if err != nil {
		return "", fmt.Errorf("chat refinement failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (s *OpenAIService) ParseTasksFromText(ctx context.Context, text string) ([]emaildomain.ParsedTask, error) {
	out, err := s.chatComplete(ctx, []chatRequestMessage{
		{Role: "system", Content: parseTasksSystemPrompt(today())},
		{Role: "user", Content: truncate(text, parseTextBudget)},
	}, true)
	if err != nil {
		return nil, fmt.Errorf("task parsing failed: %w", err)
	}
	return parseParsedTasks(out), nil
}

func (s *OpenAIService) ParseTasksFromImage(ctx context.Context, base64Image, mimeType string) ([]emaildomain.ParsedTask, error) {
	content := []map[string]interface{}{
		{
			"type":      "image_url",
			"image_url": map[string]string{"url": fmt.Sprintf("data:%s;base64,%s", mimeType, base64Image)},
		},
		{
			"type": "text",
			"text": "Extract all tasks and deadlines from this image.",
		},
	}

	out, err := s.chatComplete(ctx, []chatRequestMessage{
		{Role: "system", Content: parseImageSystemPrompt(today())},
		{Role: "user", Content: content},
	}, true)
	if err != nil {
		return nil, fmt.Errorf("image task parsing failed: %w", err)
	}
	return parseParsedTasks(out), nil
}
