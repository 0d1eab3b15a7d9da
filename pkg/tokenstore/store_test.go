package tokenstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"

	"golang.org/x/oauth2"
)

func tokenValidFor(d time.Duration) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(d),
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Save(emaildomain.SourceGmail, "a@example.com", tokenValidFor(time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore reload: %v", err)
	}
	got, err := reloaded.AccessToken(context.Background(), emaildomain.SourceGmail, "a@example.com")
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if got != "at" {
		t.Errorf("token = %q, want at", got)
	}
}

func TestSaveKeepsRefreshTokenOnReconsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, _ := NewStore(path, nil)

	store.Save(emaildomain.SourceGmail, "a@example.com", tokenValidFor(time.Hour))
	// a re-consent without offline access omits the refresh token
	store.Save(emaildomain.SourceGmail, "a@example.com", &oauth2.Token{
		AccessToken: "at2",
		Expiry:      time.Now().Add(time.Hour),
	})

	store.mu.Lock()
	rec := store.records[key(emaildomain.SourceGmail, "a@example.com")]
	store.mu.Unlock()

	if rec.RefreshToken != "rt" {
		t.Errorf("refresh token = %q, want rt", rec.RefreshToken)
	}
	if rec.AccessToken != "at2" {
		t.Errorf("access token = %q, want at2", rec.AccessToken)
	}
}

func TestConnectedSortedPerProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, _ := NewStore(path, nil)

	store.Save(emaildomain.SourceGmail, "b@example.com", tokenValidFor(time.Hour))
	store.Save(emaildomain.SourceGmail, "a@example.com", tokenValidFor(time.Hour))
	store.Save(emaildomain.SourceOutlook, "c@example.com", tokenValidFor(time.Hour))

	got := store.Connected(emaildomain.SourceGmail)
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Errorf("Connected = %v", got)
	}

	if !store.HasAccounts(emaildomain.SourceOutlook) {
		t.Error("HasAccounts(outlook) = false")
	}
	if store.HasAccounts("imap") {
		t.Error("HasAccounts(imap) = true")
	}
}

func TestDeleteRemovesAccount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, _ := NewStore(path, nil)

	store.Save(emaildomain.SourceGmail, "a@example.com", tokenValidFor(time.Hour))
	if err := store.Delete(emaildomain.SourceGmail, "a@example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if store.HasAccounts(emaildomain.SourceGmail) {
		t.Error("account still present after delete")
	}
	if _, err := store.AccessToken(context.Background(), emaildomain.SourceGmail, "a@example.com"); err == nil {
		t.Error("expected error for deleted account")
	}
}

func TestAccessTokenExpiredWithoutRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, _ := NewStore(path, nil)

	store.Save(emaildomain.SourceGmail, "a@example.com", &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Minute),
	})

	if _, err := store.AccessToken(context.Background(), emaildomain.SourceGmail, "a@example.com"); err == nil {
		t.Error("expected error for expired token with no refresh token")
	}
}

func TestListAccountsSkipsUnrefreshable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, _ := NewStore(path, nil)

	store.Save(emaildomain.SourceGmail, "ok@example.com", tokenValidFor(time.Hour))
	store.Save(emaildomain.SourceGmail, "stale@example.com", &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Minute),
	})

	accounts, err := store.ListAccounts(context.Background(), emaildomain.SourceGmail)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Email != "ok@example.com" {
		t.Errorf("accounts = %+v", accounts)
	}
}
