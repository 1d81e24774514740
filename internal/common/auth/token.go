// Package auth obtains delegated Microsoft Graph tokens for the robot mailbox.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// GraphScope is the default scope for Graph with the app's configured permissions.
const GraphScope = "https://graph.microsoft.com/.default"

// PasswordGrant holds the resource-owner credentials of the robot mailbox.
type PasswordGrant struct {
	TenantID string
	ClientID string
	Username string
	Password string
	Scopes   []string

	// TokenURL overrides the Azure AD endpoint.
	TokenURL string
}

func (g PasswordGrant) Validate() error {
	switch {
	case g.TenantID == "" && g.TokenURL == "":
		return fmt.Errorf("tenant id is required")
	case g.ClientID == "":
		return fmt.Errorf("client id is required")
	case g.Username == "" || g.Password == "":
		return fmt.Errorf("username and password are required")
	}
	return nil
}

func (g PasswordGrant) oauthConfig() *oauth2.Config {
	endpoint := microsoft.AzureADEndpoint(g.TenantID)
	if g.TokenURL != "" {
		endpoint = oauth2.Endpoint{TokenURL: g.TokenURL}
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scopes := g.Scopes
	if len(scopes) == 0 {
		scopes = []string{GraphScope}
	}
	return &oauth2.Config{
		ClientID: g.ClientID,
		Endpoint: endpoint,
		Scopes:   scopes,
	}
}

type passwordSource struct {
	ctx   context.Context
	cfg   *oauth2.Config
	grant PasswordGrant
}

func (s *passwordSource) Token() (*oauth2.Token, error) {
	tok, err := s.cfg.PasswordCredentialsToken(s.ctx, s.grant.Username, s.grant.Password)
	if err != nil {
		return nil, fmt.Errorf("password grant for %s: %w", s.grant.Username, err)
	}
	return tok, nil
}

// NewTokenSource returns a caching token source. A new password grant is
// made only when the cached token has expired. ctx is used for token
// requests and may carry an *http.Client under oauth2.HTTPClient.
func NewTokenSource(ctx context.Context, grant PasswordGrant) (oauth2.TokenSource, error) {
	if err := grant.Validate(); err != nil {
		return nil, err
	}
	src := &passwordSource{ctx: ctx, cfg: grant.oauthConfig(), grant: grant}
	return oauth2.ReuseTokenSource(nil, src), nil
}
