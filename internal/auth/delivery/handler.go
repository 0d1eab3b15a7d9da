package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	emaildomain "mailpilot-backend/internal/email/domain"
	"mailpilot-backend/pkg/tokenstore"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// stateTTL bounds how long an OAuth state nonce stays valid
const stateTTL = 10 * time.Minute

// AuthHandler drives the OAuth connect flow for mail accounts
type AuthHandler struct {
	store   *tokenstore.Store
	configs map[emaildomain.EmailSource]*oauth2.Config

	mu     sync.Mutex
	states map[string]stateEntry
}

type stateEntry struct {
	provider emaildomain.EmailSource
	expires  time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(store *tokenstore.Store, configs map[emaildomain.EmailSource]*oauth2.Config) *AuthHandler {
	return &AuthHandler{
		store:   store,
		configs: configs,
		states:  make(map[string]stateEntry),
	}
}

func (h *AuthHandler) config(c *gin.Context) (emaildomain.EmailSource, *oauth2.Config, bool) {
	provider := emaildomain.EmailSource(c.Param("provider"))
	cfg, ok := h.configs[provider]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider"})
		return "", nil, false
	}
	if cfg.ClientID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": fmt.Sprintf("%s OAuth is not configured", provider)})
		return "", nil, false
	}
	return provider, cfg, true
}

// Start redirects the browser to the provider consent screen
// GET /api/auth/:provider/start
func (h *AuthHandler) Start(c *gin.Context) {
	provider, cfg, ok := h.config(c)
	if !ok {
		return
	}

	state := uuid.New().String()
	h.mu.Lock()
	for key, entry := range h.states {
		if time.Now().After(entry.expires) {
			delete(h.states, key)
		}
	}
	h.states[state] = stateEntry{provider: provider, expires: time.Now().Add(stateTTL)}
	h.mu.Unlock()

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// Callback exchanges the authorization code and stores the tokens
// GET /api/auth/:provider/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	provider, cfg, ok := h.config(c)
	if !ok {
		return
	}

	state := c.Query("state")
	h.mu.Lock()
	entry, known := h.states[state]
	delete(h.states, state)
	h.mu.Unlock()
	if !known || entry.provider != provider || time.Now().After(entry.expires) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	token, err := cfg.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("code exchange failed: %v", err)})
		return
	}

	email, err := h.accountEmail(c.Request.Context(), provider, token.AccessToken)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("failed to resolve account email: %v", err)})
		return
	}

	if err := h.store.Save(provider, email, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Account connected",
		"provider": provider,
		"email":    email,
	})
}

// Status lists connected accounts per provider
// GET /api/auth/status
func (h *AuthHandler) Status(c *gin.Context) {
	status := gin.H{}
	for provider := range h.configs {
		status[string(provider)] = h.store.Connected(provider)
	}
	c.JSON(http.StatusOK, status)
}

// Disconnect removes a connected account's credentials
// DELETE /api/auth/accounts/:provider/:email
func (h *AuthHandler) Disconnect(c *gin.Context) {
	provider := emaildomain.EmailSource(c.Param("provider"))
	if _, ok := h.configs[provider]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider"})
		return
	}

	email := c.Param("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account email is required"})
		return
	}

	if err := h.store.Delete(provider, email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account disconnected"})
}

// accountEmail asks the provider who the token belongs to
func (h *AuthHandler) accountEmail(ctx context.Context, provider emaildomain.EmailSource, accessToken string) (string, error) {
	var url string
	switch provider {
	case emaildomain.SourceGmail:
		url = "https://www.googleapis.com/oauth2/v2/userinfo"
	case emaildomain.SourceOutlook:
		url = "https://graph.microsoft.com/v1.0/me"
	default:
		return "", fmt.Errorf("unknown provider %s", provider)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo request failed (%d): %s", resp.StatusCode, string(body))
	}

	var info struct {
		Email             string `json:"email"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", err
	}

	switch {
	case info.Email != "":
		return info.Email, nil
	case info.Mail != "":
		return info.Mail, nil
	case info.UserPrincipalName != "":
		return info.UserPrincipalName, nil
	}
	return "", fmt.Errorf("provider returned no account email")
}
