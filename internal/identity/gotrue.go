package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/salestracker/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// Session is the token pair returned by a successful sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"-"`
}

// GoTrueClient signs users in against the hosted auth REST API.
type GoTrueClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
}

// NewGoTrueClient builds a client for {baseURL}/auth/v1.
func NewGoTrueClient(baseURL, apiKey string, logger *logging.Logger) *GoTrueClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &GoTrueClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID           string       `json:"id"`
		Email        string       `json:"email"`
		UserMetadata UserMetadata `json:"user_metadata"`
	} `json:"user"`
}

// SignIn exchanges an email/password pair for a session.
func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("identity: marshal sign-in: %w", err)
	}
	endpoint := c.baseURL + "/auth/v1/token?grant_type=password"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: sign-in request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
		c.logger.Debug("sign-in rejected", "status", resp.StatusCode)
		return nil, ErrInvalidCredentials
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("identity: sign-in status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("identity: decode sign-in: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}
	return &Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		User: User{
			ID:        tr.User.ID,
			Email:     tr.User.Email,
			FirstName: tr.User.UserMetadata.Prenom,
			LastName:  tr.User.UserMetadata.Nom,
		},
	}, nil
}
