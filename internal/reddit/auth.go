package reddit

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// tokenEarlyExpiry renews the token this long before Reddit would reject it.
const tokenEarlyExpiry = time.Minute

// passwordTokens hands out the current access token and logs in again with
// the password grant once it is about to expire. Reddit script apps get no
// refresh token.
type passwordTokens struct {
	conf       *oauth2.Config
	httpClient *http.Client
	username   string
	password   string

	mu    sync.Mutex
	token *oauth2.Token
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

func newPasswordTokens(cfg *Config) *passwordTokens {
	return &passwordTokens{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimRight(cfg.AuthURL, "/") + "/api/v1/access_token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			Scopes: []string{"identity", "read", "privatemessages"},
		},
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &userAgentTransport{userAgent: cfg.UserAgent, base: http.DefaultTransport},
		},
		username: cfg.Username,
		password: cfg.Password,
	}
}

// Token returns a token valid for at least tokenEarlyExpiry. The login
// request is bound to ctx.
func (p *passwordTokens) Token(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != nil && (p.token.Expiry.IsZero() || time.Until(p.token.Expiry) > tokenEarlyExpiry) {
		return p.token, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.conf.PasswordCredentialsToken(ctx, p.username, p.password)
	if err != nil {
		return nil, err
	}
	p.token = token
	return token, nil
}
