package reddit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/nimasrn/reddit-matchbot/internal/model"
	"github.com/nimasrn/reddit-matchbot/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountSuspended = errors.New("account suspended")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
)

type Config struct {
	AuthURL      string
	APIURL       string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	Timeout      time.Duration
}

// Client talks to the Reddit OAuth API as a script application.
type Client struct {
	config *Config
	http   *fasthttp.Client
	tokens *passwordTokens
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, errors.New("client id and secret are required")
	}
	if config.Username == "" || config.Password == "" {
		return nil, errors.New("username and password are required")
	}
	if config.UserAgent == "" {
		return nil, errors.New("user agent is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	client := &Client{
		config: config,
		http: &fasthttp.Client{
			Name:                config.UserAgent,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
		tokens: newPasswordTokens(config),
	}

	logger.Info("Reddit client initialized", "api_url", config.APIURL, "user_agent", config.UserAgent)
	return client, nil
}

// Authenticate fetches the first access token so credential problems surface
// before any row is touched.
func (c *Client) Authenticate(ctx context.Context) error {
	if _, err := c.tokens.Token(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

// AccountCreatedAt returns the creation time of the account name.
func (c *Client) AccountCreatedAt(ctx context.Context, name string) (time.Time, error) {
	name = model.StripHandle(name)
	if name == "" {
		return time.Time{}, ErrAccountNotFound
	}

	body, err := c.doRequest(ctx, fasthttp.MethodGet, "/user/"+url.PathEscape(name)+"/about?raw_json=1", nil)
	if err != nil {
		return time.Time{}, err
	}

	if suspended, err := jsonparser.GetBoolean(body, "data", "is_suspended"); err == nil && suspended {
		return time.Time{}, ErrAccountSuspended
	}

	created, err := jsonparser.GetFloat(body, "data", "created_utc")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read created_utc: %w", err)
	}
	sec, frac := math.Modf(created)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

// SendMessage sends a private message to the account behind handle.
func (c *Client) SendMessage(ctx context.Context, to, subject, text string) error {
	name := model.StripHandle(to)
	if name == "" {
		return ErrAccountNotFound
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("to", name)
	form.Set("subject", subject)
	form.Set("text", text)

	body, err := c.doRequest(ctx, fasthttp.MethodPost, "/api/compose", []byte(form.Encode()))
	if err != nil {
		return err
	}
	return composeError(body)
}

// composeError turns the json.errors list of an API response into an error.
func composeError(body []byte) error {
	var codes []string
	_, _ = jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if dataType != jsonparser.Array {
			return
		}
		code, _ := jsonparser.GetString(value, "[0]")
		msg, _ := jsonparser.GetString(value, "[1]")
		codes = append(codes, strings.TrimSpace(code+": "+msg))
	}, "json", "errors")

	if len(codes) == 0 {
		return nil
	}
	err := fmt.Errorf("reddit api error: %s", strings.Join(codes, "; "))
	if strings.HasPrefix(codes[0], "RATELIMIT") {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	if strings.HasPrefix(codes[0], "USER_DOESNT_EXIST") {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, err)
	}
	return err
}

// doRequest performs an authorized request against the API host.
func (c *Client) doRequest(ctx context.Context, method, path string, form []byte) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(c.config.APIURL, "/") + path)
	req.Header.SetMethod(method)
	req.Header.SetUserAgent(c.config.UserAgent)
	req.Header.Set("Authorization", token.Type()+" "+token.AccessToken)
	if form != nil {
		req.Header.SetContentType("application/x-www-form-urlencoded")
		req.SetBody(form)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	// fasthttp has no cancellation, only deadlines.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	switch statusCode := resp.StatusCode(); statusCode {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, ErrAccountNotFound
	case fasthttp.StatusTooManyRequests:
		return nil, ErrRateLimited
	case fasthttp.StatusUnauthorized, fasthttp.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, statusCode)
	default:
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}
