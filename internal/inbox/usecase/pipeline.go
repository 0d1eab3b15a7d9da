package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	actiondomain "mailpilot-backend/internal/action/domain"
	actionrepo "mailpilot-backend/internal/action/repository"
	emaildomain "mailpilot-backend/internal/email/domain"
	taskusecase "mailpilot-backend/internal/task/usecase"
	"mailpilot-backend/pkg/ai"
)

// maxClassifyPerPoll caps how many new messages per account go through
// the full extraction path in one cycle. The rest stay unread and are
// picked up next time.
const maxClassifyPerPoll = 5

var ErrNoAccounts = errors.New("no connected accounts for provider")

// Pipeline ingests unread email into actions and tasks
type Pipeline struct {
	actionRepo  actionrepo.ActionRepository
	tasks       taskusecase.TaskUsecase
	extractor   ai.ExtractorService
	clients     map[emaildomain.EmailSource]emaildomain.MailClient
	credentials emaildomain.CredentialProvider

	accountTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline creates the ingestion pipeline
func NewPipeline(
	actionRepo actionrepo.ActionRepository,
	tasks taskusecase.TaskUsecase,
	extractor ai.ExtractorService,
	clients map[emaildomain.EmailSource]emaildomain.MailClient,
	credentials emaildomain.CredentialProvider,
	accountTimeout time.Duration,
) *Pipeline {
	if accountTimeout <= 0 {
		accountTimeout = 2 * time.Minute
	}
	return &Pipeline{
		actionRepo:     actionRepo,
		tasks:          tasks,
		extractor:      extractor,
		clients:        clients,
		credentials:    credentials,
		accountTimeout: accountTimeout,
		locks:          make(map[string]*sync.Mutex),
	}
}

// lockFor serializes polling per account so overlapping cycles never
// process the same mailbox concurrently
func (p *Pipeline) lockFor(provider emaildomain.EmailSource, email string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := string(provider) + ":" + email
	lock, ok := p.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[key] = lock
	}
	return lock
}

// Poll runs one ingestion cycle for every connected account of the
// provider. Account failures are reported in the result, not returned
// as an error; Poll only fails when no account is connected at all.
func (p *Pipeline) Poll(ctx context.Context, provider emaildomain.EmailSource) (*actiondomain.PollResult, error) {
	client, ok := p.clients[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	accounts, err := p.credentials.ListAccounts(ctx, provider)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	result := &actiondomain.PollResult{AccountsPolled: len(accounts)}
	for _, account := range accounts {
		count, created, errs := p.pollAccount(ctx, client, account)
		result.Count += count
		result.ActionsCreated += created
		result.Errors = append(result.Errors, errs...)
	}

	log.Printf("[Pipeline] %s poll: %d processed, %d actions created, %d accounts, %d errors",
		provider, result.Count, result.ActionsCreated, result.AccountsPolled, len(result.Errors))
	return result, nil
}

func (p *Pipeline) pollAccount(ctx context.Context, client emaildomain.MailClient, account emaildomain.Account) (count, created int, errs []string) {
	lock := p.lockFor(client.Source(), account.Email)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.accountTimeout)
	defer cancel()

	accountErr := func(err error) []string {
		return append(errs, fmt.Sprintf("%s: %v", account.Email, err))
	}

	filter, err := client.NewSkipFilter(ctx, account.AccessToken)
	if err != nil {
		return count, created, accountErr(err)
	}

	stubs, err := client.ListUnread(ctx, account.AccessToken)
	if err != nil {
		return count, created, accountErr(err)
	}
	// Count reports every unread message seen this cycle, including ones
	// already recorded and ones deferred past the batch ceiling
	count = len(stubs)

	// Partition unseen messages into low-value and candidates. Seen ids
	// are the single idempotency check.
	candidates := make([]emaildomain.MessageStub, 0, len(stubs))
	for _, stub := range stubs {
		exists, err := p.actionRepo.Exists(stub.ID)
		if err != nil {
			errs = accountErr(err)
			continue
		}
		if exists {
			continue
		}

		if filter.IsLowValue(stub) {
			email := filter.StubEmail(stub, account.Email)
			if err := p.createDismissed(&email, filter.Classification()); err != nil {
				errs = accountErr(err)
			}
			continue
		}

		candidates = append(candidates, stub)
	}

	if len(candidates) > maxClassifyPerPoll {
		candidates = candidates[:maxClassifyPerPoll]
	}

	for _, stub := range candidates {
		email, err := client.GetFullMessage(ctx, account.AccessToken, stub.ID)
		if err != nil {
			errs = accountErr(err)
			continue
		}
		if email == nil {
			// Message disappeared between list and fetch. Leave it
			// unread so the next cycle retries.
			continue
		}
		email.AccountEmail = account.Email

		classification, event, tasks := p.extract(ctx, email)

		// Mark read only after extraction succeeded, making this the
		// commit point for the message
		if err := client.MarkAsRead(ctx, account.AccessToken, email.ID); err != nil {
			errs = accountErr(err)
			continue
		}

		surfaced := classification.Important || event != nil || len(tasks) > 0
		if !surfaced {
			if err := p.createDismissedFull(email, classification, event, tasks); err != nil {
				errs = accountErr(err)
			}
			continue
		}

		reply, err := p.extractor.GenerateReply(ctx, email)
		if err != nil {
			errs = accountErr(err)
			reply = emaildomain.GeneratedReply{Subject: replySubject(email.Subject)}
		}

		action := &actiondomain.Action{
			ID:             email.ID,
			ThreadID:       email.ThreadID,
			Source:         email.Source,
			AccountEmail:   email.AccountEmail,
			Email:          *email,
			Classification: classification,
			CalendarEvent:  event,
			DetectedTasks:  tasks,
			ReplySubject:   reply.Subject,
			ReplyBody:      reply.Body,
			ChatHistory: []actiondomain.ChatMessage{
				{Role: "assistant", Content: chatSeed(email, classification, event, tasks), Timestamp: time.Now()},
			},
			Status: actiondomain.ActionStatusPending,
		}
		if err := p.actionRepo.Create(action); err != nil {
			errs = accountErr(err)
			continue
		}
		created++

		for _, detected := range tasks {
			if _, err := p.tasks.CreateEmailTask(detected, action.ID, email.Subject); err != nil {
				log.Printf("[Pipeline] Failed to create task %q from %s: %v", detected.Name, email.ID, err)
			}
		}
	}

	return count, created, errs
}

// extract runs the three extractions concurrently and joins the results
func (p *Pipeline) extract(ctx context.Context, email *emaildomain.NormalizedEmail) (emaildomain.EmailClassification, *emaildomain.CalendarEvent, []emaildomain.DetectedTask) {
	var (
		classification emaildomain.EmailClassification
		event          *emaildomain.CalendarEvent
		tasks          []emaildomain.DetectedTask
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		classification = p.extractor.ClassifyEmail(ctx, email)
	}()
	go func() {
		defer wg.Done()
		event = p.extractor.DetectCalendarEvent(ctx, email)
	}()
	go func() {
		defer wg.Done()
		tasks = p.extractor.DetectTasks(ctx, email)
	}()
	wg.Wait()

	return classification, event, tasks
}

func (p *Pipeline) createDismissed(email *emaildomain.NormalizedEmail, classification emaildomain.EmailClassification) error {
	return p.actionRepo.Create(&actiondomain.Action{
		ID:             email.ID,
		ThreadID:       email.ThreadID,
		Source:         email.Source,
		AccountEmail:   email.AccountEmail,
		Email:          *email,
		Classification: classification,
		Status:         actiondomain.ActionStatusDismissed,
	})
}

func (p *Pipeline) createDismissedFull(email *emaildomain.NormalizedEmail, classification emaildomain.EmailClassification, event *emaildomain.CalendarEvent, tasks []emaildomain.DetectedTask) error {
	return p.actionRepo.Create(&actiondomain.Action{
		ID:             email.ID,
		ThreadID:       email.ThreadID,
		Source:         email.Source,
		AccountEmail:   email.AccountEmail,
		Email:          *email,
		Classification: classification,
		CalendarEvent:  event,
		DetectedTasks:  tasks,
		Status:         actiondomain.ActionStatusDismissed,
	})
}

func replySubject(subject string) string {
	if strings.HasPrefix(subject, "Re:") {
		return subject
	}
	return "Re: " + subject
}

// chatSeed builds the opening assistant message of the refinement chat,
// summarizing why the email was surfaced
func chatSeed(email *emaildomain.NormalizedEmail, classification emaildomain.EmailClassification, event *emaildomain.CalendarEvent, tasks []emaildomain.DetectedTask) string {
	sender := email.From.Name
	if sender == "" {
		sender = email.From.Email
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This email from %s needs your attention.", sender)
	if classification.Reasoning != "" {
		fmt.Fprintf(&b, " %s", classification.Reasoning)
	}

	if event != nil {
		fmt.Fprintf(&b, "\n\nIt mentions an event: %s on %s", event.Title, event.Date)
		if event.StartTime != nil {
			fmt.Fprintf(&b, " at %s", *event.StartTime)
		}
		if event.Location != nil {
			fmt.Fprintf(&b, " (%s)", *event.Location)
		}
	}

	if len(tasks) > 0 {
		b.WriteString("\n\nDetected tasks:")
		for _, task := range tasks {
			fmt.Fprintf(&b, "\n- %s", task.Name)
			if task.DueDate != nil {
				fmt.Fprintf(&b, " (due %s)", *task.DueDate)
			}
		}
	}

	b.WriteString("\n\nI've drafted a reply below. Tell me how to adjust it, or send it as is.")
	return b.String()
}
