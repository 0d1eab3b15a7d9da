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

// OllamaService implements ExtractorService using a local Ollama server
type OllamaService struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaService creates a new Ollama-backed extractor service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// generate issues one /api/generate call and returns the raw response text
func (o *OllamaService) generate(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	payload := map[string]interface{}{
		"model":  o.model,
		"system": system,
		"prompt": prompt,
		"stream": false,
	}
	if jsonMode {
		payload["format"] = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed, is Ollama running at %s? %w", o.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result.Response, nil
}

func (o *OllamaService) ClassifyEmail(ctx context.Context, email *emaildomain.NormalizedEmail) emaildomain.EmailClassification {
	text, err := o.generate(ctx, classifySystemPrompt, emailContext(email, classifyBodyBudget), true)
	if err != nil {
		log.Printf("[AI] Classification failed for %s: %v", email.ID, err)
		return emaildomain.EmailClassification{
			Category:  emaildomain.CategoryOther,
			Reasoning: "Failed to parse classification",
		}
	}
	return parseClassification(text)
}

func (o *OllamaService) DetectCalendarEvent(ctx context.Context, email *emaildomain.NormalizedEmail) *emaildomain.CalendarEvent {
	text, err := o.generate(ctx, eventSystemPrompt, emailContext(email, eventBodyBudget), true)
	if err != nil {
		log.Printf("[AI] Event detection failed for %s: %v", email.ID, err)
		return nil
	}
	return parseCalendarEvent(text)
}

func (o *OllamaService) DetectTasks(ctx context.Context, email *emaildomain.NormalizedEmail) []emaildomain.DetectedTask {
	text, err := o.generate(ctx, tasksSystemPrompt(today()), emailContext(email, tasksBodyBudget), true)
	if err != nil {
		log.Printf("[AI] Task detection failed for %s: %v", email.ID, err)
		return nil
	}
	return parseDetectedTasks(text)
}

func (o *OllamaService) GenerateReply(ctx context.Context, email *emaildomain.NormalizedEmail) (emaildomain.GeneratedReply, error) {
	body, err := o.generate(ctx, replySystemPrompt, emailContext(email, replyBodyBudget), false)
	if err != nil {
		return emaildomain.GeneratedReply{}, fmt.Errorf("reply generation failed: %w", err)
	}

	subject := email.Subject
	if !strings.HasPrefix(subject, "Re:") {
		subject = "Re: " + subject
	}
	return emaildomain.GeneratedReply{Subject: subject, Body: strings.TrimSpace(body)}, nil
}

func (o *OllamaService) RefineReply(ctx context.Context, email *emaildomain.NormalizedEmail, currentReply string, history []ChatTurn, userMessage string) (string, error) {
	// Ollama's generate endpoint is single-turn, so the conversation is
	// flattened into the prompt
	var b strings.Builder
	for _, turn := range historyTurns(history, userMessage) {
		b.WriteString(strings.ToUpper(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n\n")
	}

	text, err := o.generate(ctx, refineSystemPrompt(email, currentReply), b.String(), false)
	if err != nil {
		return "", fmt.Errorf("chat refinement failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (o *OllamaService) ParseTasksFromText(ctx context.Context, text string) ([]emaildomain.ParsedTask, error) {
	out, err := o.generate(ctx, parseTasksSystemPrompt(today()), truncate(text, parseTextBudget), true)
	if err != nil {
		return nil, fmt.Errorf("task parsing failed: %w", err)
	}
	return parseParsedTasks(out), nil
}

func (o *OllamaService) ParseTasksFromImage(ctx context.Context, base64Image, mimeType string) ([]emaildomain.ParsedTask, error) {
	return nil, fmt.Errorf("image parsing is not supported by the ollama provider")
}
