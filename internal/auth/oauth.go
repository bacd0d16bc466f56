package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubUserURL = "https://api.github.com/user"

// githubUser is the subset of GET /user the app stores.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// GitHubProvider signs users in with the OAuth authorization code flow.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
}

var _ Provider = (*GitHubProvider)(nil)

// GitHubOption customizes a GitHubProvider.
type GitHubOption func(*GitHubProvider)

// WithGitHubEndpoints points the provider at different OAuth and user API
// URLs, e.g. an httptest server or GitHub Enterprise.
func WithGitHubEndpoints(endpoint oauth2.Endpoint, userURL string) GitHubOption {
	return func(p *GitHubProvider) {
		p.config.Endpoint = endpoint
		p.userURL = userURL
	}
}

// NewGitHubProvider creates a provider for the given OAuth app. callbackURL
// must match the app's registered callback exactly.
func NewGitHubProvider(clientID, clientSecret, callbackURL string, opts ...GitHubOption) *GitHubProvider {
	p := &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userURL: githubUserURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GitHubProvider) Name() string { return ProviderGitHub }

// AuthURL is where the browser is sent to approve access. state must be
// echoed back on the callback and checked by the caller.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Authenticate exchanges cred.Code for an access token and loads the
// GitHub profile behind it.
func (p *GitHubProvider) Authenticate(ctx context.Context, cred Credential) (*Identity, error) {
	if cred.Code == "" {
		return nil, ErrInvalidCredentials
	}

	token, err := p.config.Exchange(ctx, cred.Code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, re.ErrorCode)
		}
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub user API returned status %d", resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub user: %w", err)
	}
	if gh.ID == 0 || gh.Login == "" {
		return nil, errors.New("auth: GitHub returned an incomplete user")
	}

	displayName := gh.Name
	if displayName == "" {
		displayName = gh.Login
	}

	return &Identity{
		Provider:    ProviderGitHub,
		ProviderID:  strconv.FormatInt(gh.ID, 10),
		Email:       NormalizeEmail(gh.Email),
		DisplayName: displayName,
		Username:    strings.ToLower(gh.Login),
		AvatarURL:   gh.AvatarURL,
	}, nil
}
