package social

import (
	"context"
	"net/http"
	"strings"

	"github.com/dghubble/oauth1"
	"github.com/dghubble/sling"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/mikequentel/dobby/internal/config"
	"github.com/mikequentel/dobby/internal/model"
)

const (
	defaultAPIBase    = "https://api.twitter.com/"
	defaultUploadBase = "https://upload.twitter.com/"
)

// Client talks to the X/Twitter API. Writes and media uploads are signed with
// the four OAuth1 user-context secrets; reads use the app-only bearer token
// when there is one.
type Client struct {
	user   *http.Client // nil when the OAuth1 secrets are not configured
	reader *http.Client

	apiBase    string
	uploadBase string
	apiVersion string

	timeline timeline
	log      *zap.SugaredLogger
}

type Option func(*Client)

// WithBaseURLs points the client at other API hosts. Both must end in '/'.
func WithBaseURLs(api, upload string) Option {
	return func(c *Client) {
		c.apiBase = api
		c.uploadBase = upload
	}
}

// WithAPIVersion selects the read API: "2" (default) or "1.1".
func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client from creds. No request is made; see Verify. The HTTP
// transport is taken from ctx the way oauth1 and oauth2 do it, so an
// *http.Client stored under oauth1.HTTPClient / oauth2.HTTPClient is honored.
func New(ctx context.Context, creds config.Credentials, opts ...Option) (*Client, error) {
	c := &Client{
		apiBase:    defaultAPIBase,
		uploadBase: defaultUploadBase,
		apiVersion: "2",
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if creds.HasOAuth1() {
		cfg := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
		token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
		c.user = cfg.Client(ctx, token)
	}
	switch {
	case strings.TrimSpace(creds.BearerToken) != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.BearerToken, TokenType: "Bearer"})
		c.reader = oauth2.NewClient(ctx, ts)
	case c.user != nil:
		c.reader = c.user
	default:
		return nil, &model.AuthError{
			Op:  "create client",
			Err: errors.New("neither a bearer token nor the four OAuth1 secrets are configured"),
		}
	}

	switch c.apiVersion {
	case "2":
		c.timeline = newV2Timeline(c.reader, c.apiBase)
	case "1.1":
		if c.user == nil {
			return nil, &model.AuthError{Op: "create client", Err: errors.New("API v1.1 reads need the OAuth1 secrets")}
		}
		c.timeline = newLegacyTimeline(c.user)
	default:
		return nil, &model.ValidationError{Field: "api version", Reason: "must be 2 or 1.1, got " + c.apiVersion}
	}
	return c, nil
}

// CanWrite reports whether posting and uploads are possible.
func (c *Client) CanWrite() bool { return c.user != nil }

func (c *Client) requireUser(op string) error {
	if c.user == nil {
		return &model.AuthError{Op: op, Err: errors.New("OAuth1 user-context secrets are not configured")}
	}
	return nil
}

// Verify checks the user-context credentials against GET /2/users/me.
func (c *Client) Verify(ctx context.Context) (*model.UserData, error) {
	if err := c.requireUser("verify credentials"); err != nil {
		return nil, err
	}
	s := sling.New().Client(c.user).Base(c.apiBase).Get("2/users/me")
	req, err := s.Request()
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	var (
		ok      model.UserResp
		problem model.V2Problem
	)
	resp, err := s.Do(req.WithContext(ctx), &ok, &problem)
	if err != nil {
		return nil, &model.TransportError{Op: "GET /2/users/me", Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &model.AuthError{Op: "verify credentials", Err: problemError(resp.StatusCode, problem)}
	case resp.StatusCode/100 != 2:
		return nil, &model.TransportError{Op: "GET /2/users/me", Err: problemError(resp.StatusCode, problem)}
	case ok.Data == nil:
		return nil, &model.TransportError{Op: "GET /2/users/me", Err: errors.New("response has no user")}
	}
	c.log.Infow("Credentials verified", "username", ok.Data.Username, "id", ok.Data.ID)
	return ok.Data, nil
}
