package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object; we only unmarshal the fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID; stable, never changes
	Login     string `json:"login"`      // GitHub username, e.g. "sakif"
	Name      string `json:"name"`       // Display name (empty if unset on GitHub)
	Email     string `json:"email"`      // Primary email (empty if hidden in GitHub settings)
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// The flow:
//  1. We redirect the user to GitHub's authorization endpoint with our
//     ClientID and the requested scopes.
//  2. The user approves the request on GitHub.
//  3. GitHub redirects back to CallbackURL with a short-lived code.
//  4. We exchange the code for an access token (server-to-server, using the
//     ClientSecret; the token never touches the browser).
//  5. We call the GitHub /user API with the token for the profile.
//
// The access token is also returned to the caller: it is stored so the
// dashboard can later list the user's repositories for link import.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// ClientID and ClientSecret come from a registered OAuth App at
// https://github.com/settings/developers; callbackURL must match the
// configured "Authorization callback URL" exactly.
//
// Scopes:
//   - "read:user":   the user's public profile (ID, login, name, avatar)
//   - "user:email":  the user's email addresses
//   - "public_repo": public repository listing, for the link importer
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email", "public_repo"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a cookie before redirecting; the
// callback handler verifies GitHub echoes it back. This prevents CSRF attacks
// where an attacker tricks a browser into completing an OAuth flow for the
// attacker's account.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for the
// GitHub user profile and the OAuth access token.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, string, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, "", fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, "", fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, "", fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, oauthToken.AccessToken, nil
}
