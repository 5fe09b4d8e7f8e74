package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubAPIURL is the endpoint Exchange reads the profile from.
const GitHubAPIURL = "https://api.github.com/user"

// GitHubUser is the portion of the GitHub /user response we keep.
type GitHubUser struct {
	ID        int64  `json:"id"` // stable, never changes
	Login     string `json:"login"`
	Email     string `json:"email"` // empty if hidden in GitHub settings
	AvatarURL string `json:"avatar_url"`
}

// Provider is the identity provider behind the login routes. The GitHub
// implementation is the only one; handler tests substitute a fake.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*GitHubUser, error)
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. Redirect the user to GitHub with our ClientID and scopes.
//  2. The user approves on GitHub.
//  3. GitHub redirects back to the callback URL with a short-lived code.
//  4. We exchange the code for an access token (server-to-server, using the
//     ClientSecret, so the token never reaches the browser).
//  5. We call the GitHub API with the token to read the profile.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

var _ Provider = (*GitHubProvider)(nil)

// NewGitHubProvider creates a GitHubProvider. callbackURL must match the
// "Authorization callback URL" registered for the OAuth App exactly.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiURL: GitHubAPIURL,
	}
}

// WithEndpoints points the provider at another OAuth server and profile
// API. Used to test against httptest servers and GitHub Enterprise.
func (p *GitHubProvider) WithEndpoints(endpoint oauth2.Endpoint, apiURL string) *GitHubProvider {
	cfg := *p.config
	cfg.Endpoint = endpoint
	return &GitHubProvider{config: &cfg, apiURL: apiURL}
}

// AuthURL returns the GitHub authorization URL. state is a random value
// also stored in a cookie; the callback rejects a mismatch, which stops a
// forged callback from logging the victim into someone else's account.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the user's GitHub profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// The client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub user response: %w", err)
	}
	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}
	return &ghUser, nil
}
