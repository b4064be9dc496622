package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	apperrors "git.home.luguber.info/inful/ridelog/internal/errors"
)

// Endpoint is Strava's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.strava.com/oauth/authorize",
	TokenURL: "https://www.strava.com/oauth/token",
}

// OAuthConfig builds the oauth2 configuration for the registered application.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     Endpoint,
		Scopes:       []string{"read,activity:read_all,profile:read_all"},
		// Strava has no out-of-band flow; localhost is the conventional
		// redirect for CLI use, the code is pasted back manually.
		RedirectURL: "http://localhost/exchange_token",
	}
}

// AuthCodeURL returns the browser URL that starts the authorization flow.
func AuthCodeURL(clientID, clientSecret string) string {
	return OAuthConfig(clientID, clientSecret).AuthCodeURL("", oauth2.AccessTypeOffline)
}

// TokenPath returns the cached token location under the user configuration
// directory.
func TokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "ridelog", "token.json"), nil
}

// LoadToken reads a cached token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.New(apperrors.CategoryAuth,
				"no cached token, run `ridelog auth` first").WithContext("path", path)
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryAuth, "token file is corrupt").
			WithContext("path", path)
	}
	return &tok, nil
}

// SaveToken writes a token to disk, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Exchange trades an authorization code for a token and caches it.
func Exchange(ctx context.Context, clientID, clientSecret, code, tokenPath string) (*oauth2.Token, error) {
	tok, err := OAuthConfig(clientID, clientSecret).Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryAuth, "authorization code exchange failed")
	}
	if err := SaveToken(tokenPath, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// persistingTokenSource writes refreshed tokens back to disk so the refresh
// token survives access token rotation.
type persistingTokenSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	path string
	last string // last persisted access token
}

func newPersistingTokenSource(src oauth2.TokenSource, path string, current *oauth2.Token) *persistingTokenSource {
	last := ""
	if current != nil {
		last = current.AccessToken
	}
	return &persistingTokenSource{src: src, path: path, last: last}
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		if err := SaveToken(p.path, tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}

// TokenSource returns an auto-refreshing token source backed by the cached
// token at path. Refreshed tokens are persisted transparently.
func TokenSource(ctx context.Context, clientID, clientSecret, path string) (oauth2.TokenSource, error) {
	tok, err := LoadToken(path)
	if err != nil {
		return nil, err
	}
	base := OAuthConfig(clientID, clientSecret).TokenSource(ctx, tok)
	return oauth2.ReuseTokenSource(tok, newPersistingTokenSource(base, path, tok)), nil
}
