package reddit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type tokenServer struct {
	*httptest.Server
	hits      atomic.Int32
	userAgent atomic.Value
}

func newTokenServer(t *testing.T, status int) *tokenServer {
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		ts.userAgent.Store(r.UserAgent())
		user, pass, _ := r.BasicAuth()
		_ = r.ParseForm()
		if status != http.StatusOK || user != "client" || pass != "secret" || r.Form.Get("grant_type") != "password" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + r.Form.Get("username"),
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

// newTestClient serves handler on an in-memory listener and returns a client
// wired to it.
func newTestClient(t *testing.T, handler fasthttp.RequestHandler) (*Client, *tokenServer) {
	t.Helper()
	auth := newTokenServer(t, http.StatusOK)

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	client, err := NewClient(&Config{
		AuthURL:      auth.URL,
		APIURL:       "http://oauth.reddit.test",
		ClientID:     "client",
		ClientSecret: "secret",
		Username:     "matchbot",
		Password:     "pw",
		UserAgent:    "RedditMatchBot/1.0",
		Timeout:      2 * time.Second,
	})
	require.NoError(t, err)
	client.http.Dial = func(addr string) (net.Conn, error) { return ln.Dial() }
	return client, auth
}

func TestNewClient_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		client, err := NewClient(nil)
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := NewClient(&Config{ClientID: "id", Username: "u", Password: "p", UserAgent: "ua"})
		assert.ErrorContains(t, err, "client id and secret")
	})

	t.Run("missing user agent", func(t *testing.T) {
		_, err := NewClient(&Config{ClientID: "id", ClientSecret: "s", Username: "u", Password: "p"})
		assert.ErrorContains(t, err, "user agent")
	})
}

func TestClient_Authenticate(t *testing.T) {
	client, auth := newTestClient(t, func(ctx *fasthttp.RequestCtx) {})

	require.NoError(t, client.Authenticate(context.Background()))
	assert.Equal(t, "RedditMatchBot/1.0", auth.userAgent.Load())

	require.NoError(t, client.Authenticate(context.Background()))
	assert.Equal(t, int32(1), auth.hits.Load(), "token is reused while valid")
}

func TestClient_HonoursCancelledContext(t *testing.T) {
	var apiHits atomic.Int32
	client, auth := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		apiHits.Add(1)
		ctx.SetBodyString(`{"json":{"errors":[]}}`)
	})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, client.Authenticate(cancelled), context.Canceled)
	assert.Zero(t, auth.hits.Load(), "no login with a cancelled context")

	require.NoError(t, client.Authenticate(context.Background()))
	err := client.SendMessage(cancelled, "u/someone", "subject", "body")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = client.AccountCreatedAt(cancelled, "someone")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, apiHits.Load())
}

func TestClient_Authenticate_BadCredentials(t *testing.T) {
	auth := newTokenServer(t, http.StatusUnauthorized)
	client, err := NewClient(&Config{
		AuthURL: auth.URL, APIURL: "http://oauth.reddit.test",
		ClientID: "client", ClientSecret: "secret", Username: "u", Password: "p", UserAgent: "ua",
	})
	require.NoError(t, err)

	err = client.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_AccountCreatedAt(t *testing.T) {
	var gotPath, gotAuth, gotUA string
	client, _ := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		gotPath = string(ctx.Path())
		gotAuth = string(ctx.Request.Header.Peek("Authorization"))
		gotUA = string(ctx.UserAgent())
		switch string(ctx.Path()) {
		case "/user/testuser123/about":
			ctx.SetBodyString(`{"kind":"t2","data":{"name":"testuser123","created_utc":1577836800.0}}`)
		case "/user/banned/about":
			ctx.SetBodyString(`{"kind":"t2","data":{"name":"banned","is_suspended":true}}`)
		case "/user/broken/about":
			ctx.SetBodyString(`{"kind":"t2","data":{}}`)
		case "/user/busy/about":
			ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	})

	created, err := client.AccountCreatedAt(context.Background(), "u/testuser123")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), created)
	assert.Equal(t, "/user/testuser123/about", gotPath)
	assert.Equal(t, "Bearer tok-matchbot", gotAuth)
	assert.Equal(t, "RedditMatchBot/1.0", gotUA)

	_, err = client.AccountCreatedAt(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = client.AccountCreatedAt(context.Background(), "u/banned")
	assert.ErrorIs(t, err, ErrAccountSuspended)

	_, err = client.AccountCreatedAt(context.Background(), "u/broken")
	assert.ErrorContains(t, err, "created_utc")

	_, err = client.AccountCreatedAt(context.Background(), "u/busy")
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = client.AccountCreatedAt(context.Background(), "u/")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestClient_SendMessage(t *testing.T) {
	var form url.Values
	client, _ := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != "/api/compose" || !ctx.IsPost() {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		form, _ = url.ParseQuery(string(ctx.PostBody()))
		switch form.Get("to") {
		case "ghost":
			ctx.SetBodyString(`{"json":{"errors":[["USER_DOESNT_EXIST","that user doesn't exist","to"]]}}`)
		case "spammy":
			ctx.SetBodyString(`{"json":{"errors":[["RATELIMIT","you are doing that too much","ratelimit"]]}}`)
		default:
			ctx.SetBodyString(`{"json":{"errors":[]}}`)
		}
	})

	err := client.SendMessage(context.Background(), "u/testuser123", "🔐 Your Match Code", "hello")
	require.NoError(t, err)
	assert.Equal(t, "testuser123", form.Get("to"))
	assert.Equal(t, "🔐 Your Match Code", form.Get("subject"))
	assert.Equal(t, "hello", form.Get("text"))
	assert.Equal(t, "json", form.Get("api_type"))

	err = client.SendMessage(context.Background(), "u/ghost", "s", "b")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	err = client.SendMessage(context.Background(), "u/spammy", "s", "b")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestComposeError(t *testing.T) {
	assert.NoError(t, composeError([]byte(`{"json":{"errors":[]}}`)))
	assert.NoError(t, composeError([]byte(`{}`)))

	err := composeError([]byte(`{"json":{"errors":[["BAD_CAPTCHA","care to try these again?","captcha"]]}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_CAPTCHA")
}
