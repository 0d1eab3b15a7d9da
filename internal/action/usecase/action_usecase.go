package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mailpilot-backend/internal/action/domain"
	"mailpilot-backend/internal/action/repository"
	emaildomain "mailpilot-backend/internal/email/domain"
	"mailpilot-backend/pkg/ai"
)

// replyUpdatedMarker is the sentinel the refinement model emits when the
// user's message asked for a change to the drafted reply. Everything
// after the marker is the new reply body.
const replyUpdatedMarker = "UPDATED_REPLY:"

// defaultUpdateAck is used when the model emits the marker with no
// conversational text before it
const defaultUpdateAck = "I've updated the reply for you."

var (
	ErrActionNotFound   = errors.New("action not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrProviderNotWired = errors.New("no mail client for provider")
	ErrAuthExpired      = errors.New("account authorization expired")
	ErrEmptyReply       = errors.New("reply body is empty")
)

// actionUsecase implements ActionUsecase
type actionUsecase struct {
	actionRepo  repository.ActionRepository
	extractor   ai.ExtractorService
	clients     map[emaildomain.EmailSource]emaildomain.MailClient
	credentials emaildomain.CredentialProvider
}

// NewActionUsecase creates a new instance of actionUsecase
func NewActionUsecase(
	actionRepo repository.ActionRepository,
	extractor ai.ExtractorService,
	clients map[emaildomain.EmailSource]emaildomain.MailClient,
	credentials emaildomain.CredentialProvider,
) ActionUsecase {
	return &actionUsecase{
		actionRepo:  actionRepo,
		extractor:   extractor,
		clients:     clients,
		credentials: credentials,
	}
}

func (u *actionUsecase) ListActions() ([]*domain.Action, error) {
	return u.actionRepo.FindActive()
}

func (u *actionUsecase) GetAction(id string) (*domain.Action, error) {
	action, err := u.actionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, ErrActionNotFound
	}
	return action, nil
}

func (u *actionUsecase) UpdateStatus(id string, status domain.ActionStatus) (*domain.Action, error) {
	switch status {
	case domain.ActionStatusPending, domain.ActionStatusApproved, domain.ActionStatusDismissed:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	action, err := u.GetAction(id)
	if err != nil {
		return nil, err
	}

	if err := u.actionRepo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	action.Status = status
	return action, nil
}

func (u *actionUsecase) UpdateReply(id string, body string) (*domain.Action, error) {
	action, err := u.GetAction(id)
	if err != nil {
		return nil, err
	}

	if err := u.actionRepo.UpdateReply(id, body); err != nil {
		return nil, err
	}
	action.ReplyBody = body
	return action, nil
}

func (u *actionUsecase) DeleteAction(id string) error {
	action, err := u.actionRepo.FindByID(id)
	if err != nil {
		return err
	}
	if action == nil {
		return ErrActionNotFound
	}
	return u.actionRepo.Delete(id)
}

func (u *actionUsecase) Chat(ctx context.Context, id, message string) (*ChatResult, error) {
	action, err := u.GetAction(id)
	if err != nil {
		return nil, err
	}

	history := make([]ai.ChatTurn, 0, len(action.ChatHistory))
	for _, msg := range action.ChatHistory {
		history = append(history, ai.ChatTurn{Role: msg.Role, Content: msg.Content})
	}

	raw, err := u.extractor.RefineReply(ctx, &action.Email, action.ReplyBody, history, message)
	if err != nil {
		return nil, fmt.Errorf("refinement failed: %w", err)
	}

	result := parseRefinement(raw)

	now := time.Now()
	turns := []domain.ChatMessage{
		{Role: "user", Content: message, Timestamp: now},
		{Role: "assistant", Content: result.Response, Timestamp: now},
	}
	if err := u.actionRepo.AppendChat(id, turns...); err != nil {
		return nil, err
	}

	if result.ReplyUpdated {
		if err := u.actionRepo.UpdateReply(id, result.ReplyBody); err != nil {
			return nil, err
		}
	} else {
		result.ReplyBody = action.ReplyBody
	}

	return result, nil
}

// parseRefinement splits a raw model response into the conversational
// part and, when the marker is present, the rewritten reply
func parseRefinement(raw string) *ChatResult {
	idx := strings.Index(raw, replyUpdatedMarker)
	if idx < 0 {
		return &ChatResult{Response: strings.TrimSpace(raw)}
	}

	response := strings.TrimSpace(raw[:idx])
	if response == "" {
		response = defaultUpdateAck
	}

	return &ChatResult{
		Response:     response,
		ReplyUpdated: true,
		ReplyBody:    strings.TrimSpace(raw[idx+len(replyUpdatedMarker):]),
	}
}

// authExpired wraps an auth failure with the endpoint that reconnects
// the account
func authExpired(source emaildomain.EmailSource, err error) error {
	return fmt.Errorf("%w, reconnect at /api/auth/%s/start: %v", ErrAuthExpired, source, err)
}

func (u *actionUsecase) SendReply(ctx context.Context, id, subjectOverride, bodyOverride string) (*SendResult, error) {
	action, err := u.GetAction(id)
	if err != nil {
		return nil, err
	}

	client, ok := u.clients[action.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotWired, action.Source)
	}

	token, err := u.credentials.AccessToken(ctx, action.Source, action.AccountEmail)
	if err != nil {
		return nil, authExpired(action.Source, err)
	}

	subject := action.ReplySubject
	if subjectOverride != "" {
		subject = subjectOverride
	}
	body := action.ReplyBody
	if bodyOverride != "" {
		body = bodyOverride
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyReply
	}

	sentID, err := client.SendReply(ctx, token, &action.Email, subject, body)
	if err != nil {
		if strings.Contains(err.Error(), "401") || strings.Contains(err.Error(), "Unauthorized") {
			return nil, authExpired(action.Source, err)
		}
		return nil, fmt.Errorf("send failed: %w", err)
	}

	if err := u.actionRepo.UpdateStatus(id, domain.ActionStatusSent); err != nil {
		log.Printf("[Action] Failed to mark action %s as sent: %v", id, err)
	}
	if err := u.actionRepo.Delete(id); err != nil {
		log.Printf("[Action] Failed to remove sent action %s: %v", id, err)
	}

	return &SendResult{SentMessageID: sentID}, nil
}
