package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"

	"golang.org/x/oauth2"
)

// expiryBuffer refreshes tokens slightly before they expire so a token
// handed to a caller stays valid for the duration of a request.
const expiryBuffer = 60 * time.Second

// Record is one connected account's persisted credentials
type Record struct {
	Provider     emaildomain.EmailSource `json:"provider"`
	Email        string                  `json:"email"`
	AccessToken  string                  `json:"accessToken"`
	RefreshToken string                  `json:"refreshToken,omitempty"`
	Expiry       time.Time               `json:"expiry"`
}

// Store persists OAuth tokens in a flat JSON file keyed by provider and
// account email. It implements emaildomain.CredentialProvider.
type Store struct {
	path    string
	configs map[emaildomain.EmailSource]*oauth2.Config

	mu      sync.Mutex
	records map[string]*Record
}

func key(provider emaildomain.EmailSource, email string) string {
	return string(provider) + ":" + email
}

// NewStore loads the token file at path, creating an empty store when
// the file does not exist yet
func NewStore(path string, configs map[emaildomain.EmailSource]*oauth2.Config) (*Store, error) {
	s := &Store{
		path:    path,
		configs: configs,
		records: make(map[string]*Record),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
		}
	}

	return s, nil
}

// persist writes the records back to disk. Caller must hold s.mu.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Save stores or replaces the credentials for one account
func (s *Store) Save(provider emaildomain.EmailSource, email string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &Record{
		Provider:     provider,
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	// Keep an existing refresh token when the provider omits it on
	// re-consent
	if rec.RefreshToken == "" {
		if old, ok := s.records[key(provider, email)]; ok {
			rec.RefreshToken = old.RefreshToken
		}
	}

	s.records[key(provider, email)] = rec
	return s.persist()
}

// Delete removes an account's credentials
func (s *Store) Delete(provider emaildomain.EmailSource, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key(provider, email))
	return s.persist()
}

// Connected returns the emails of all connected accounts for a provider,
// sorted for stable output
func (s *Store) Connected(provider emaildomain.EmailSource) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	emails := make([]string, 0)
	for _, rec := range s.records {
		if rec.Provider == provider {
			emails = append(emails, rec.Email)
		}
	}
	sort.Strings(emails)
	return emails
}

// HasAccounts reports whether any account is connected for the provider
func (s *Store) HasAccounts(provider emaildomain.EmailSource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.Provider == provider {
			return true
		}
	}
	return false
}

// ListAccounts returns all accounts for a provider with fresh access
// tokens. Accounts whose tokens are expired and cannot be refreshed are
// skipped with a log line rather than failing the whole list.
func (s *Store) ListAccounts(ctx context.Context, provider emaildomain.EmailSource) ([]emaildomain.Account, error) {
	s.mu.Lock()
	recs := make([]*Record, 0)
	for _, rec := range s.records {
		if rec.Provider == provider {
			recs = append(recs, rec)
		}
	}
	s.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].Email < recs[j].Email })

	accounts := make([]emaildomain.Account, 0, len(recs))
	for _, rec := range recs {
		token, err := s.freshToken(ctx, rec)
		if err != nil {
			log.Printf("[TokenStore] Skipping %s account %s: %v", provider, rec.Email, err)
			continue
		}
		accounts = append(accounts, emaildomain.Account{Email: rec.Email, AccessToken: token})
	}

	return accounts, nil
}

// AccessToken returns a fresh access token for one account
func (s *Store) AccessToken(ctx context.Context, provider emaildomain.EmailSource, email string) (string, error) {
	s.mu.Lock()
	rec, ok := s.records[key(provider, email)]
	s.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("no connected %s account for %s", provider, email)
	}
	return s.freshToken(ctx, rec)
}

// freshToken returns the stored access token, refreshing it first when
// it is within the expiry buffer
func (s *Store) freshToken(ctx context.Context, rec *Record) (string, error) {
	if rec.Expiry.IsZero() || time.Until(rec.Expiry) > expiryBuffer {
		return rec.AccessToken, nil
	}

	if rec.RefreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token is stored")
	}

	cfg, ok := s.configs[rec.Provider]
	if !ok {
		return "", fmt.Errorf("no oauth config for provider %s", rec.Provider)
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{
		RefreshToken: rec.RefreshToken,
	})
	token, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	s.mu.Lock()
	rec.AccessToken = token.AccessToken
	rec.Expiry = token.Expiry
	if token.RefreshToken != "" {
		rec.RefreshToken = token.RefreshToken
	}
	err = s.persist()
	s.mu.Unlock()
	if err != nil {
		log.Printf("[TokenStore] Failed to persist refreshed token for %s: %v", rec.Email, err)
	}

	return token.AccessToken, nil
}
