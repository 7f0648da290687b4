package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dghubble/sling"
	"github.com/pkg/errors"

	"github.com/mikequentel/dobby/internal/model"
)

// Range of posts one FetchUserPosts call may ask for.
const (
	MinFetch = 1
	MaxFetch = 100
)

// The v2 timeline endpoint refuses max_results below this; smaller requests
// are padded and trimmed locally.
const v2MinResults = 5

var tweetFields = []string{
	"created_at", "text", "author_id", "conversation_id", "public_metrics", "referenced_tweets",
}

type FetchQuery struct {
	MaxCount        int
	ExcludeReplies  bool
	IncludeRetweets bool
}

func (q FetchQuery) excludes() []string {
	var ex []string
	if q.ExcludeReplies {
		ex = append(ex, "replies")
	}
	if !q.IncludeRetweets {
		ex = append(ex, "retweets")
	}
	return ex
}

// timeline is the read side of one API generation.
type timeline interface {
	lookupUser(ctx context.Context, username string) (string, error)
	userPosts(ctx context.Context, userID, username string, q FetchQuery) ([]model.SourcePost, error)
}

// FetchUserPosts returns up to q.MaxCount recent posts by username.
//
// An out-of-range MaxCount is the only error returned. Everything else (an
// unknown user, an HTTP or network failure) is logged and comes back as a
// failed Result with no posts, so the caller can carry on.
func (c *Client) FetchUserPosts(ctx context.Context, username string, q FetchQuery) (model.Result[[]model.SourcePost], error) {
	if q.MaxCount < MinFetch || q.MaxCount > MaxFetch {
		return model.Result[[]model.SourcePost]{}, &model.ValidationError{
			Field:  "max_count",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinFetch, MaxFetch, q.MaxCount),
		}
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	id, err := c.timeline.lookupUser(ctx, username)
	if err != nil {
		c.log.Warnw("Error fetching posts", "username", username, "error", err)
		return model.Failed[[]model.SourcePost](err), nil
	}

	posts, err := c.timeline.userPosts(ctx, id, username, q)
	if err != nil {
		c.log.Warnw("Error fetching posts", "username", username, "error", err)
		return model.Failed[[]model.SourcePost](err), nil
	}
	if len(posts) == 0 {
		c.log.Infow("No posts found for user", "username", username)
		return model.Ok([]model.SourcePost{}), nil
	}
	if len(posts) > q.MaxCount {
		posts = posts[:q.MaxCount]
	}
	c.log.Debugw("Fetched posts", "username", username, "count", len(posts))
	return model.Ok(posts), nil
}

// --- API v2 ---

type v2Timeline struct {
	base *sling.Sling
}

type v2TimelineParams struct {
	MaxResults  int    `url:"max_results"`
	TweetFields string `url:"tweet.fields"`
	Exclude     string `url:"exclude,omitempty"`
}

func newV2Timeline(hc *http.Client, apiBase string) *v2Timeline {
	return &v2Timeline{base: sling.New().Client(hc).Base(apiBase)}
}

func (t *v2Timeline) do(ctx context.Context, s *sling.Sling, op string, ok any) (*http.Response, error) {
	req, err := s.Request()
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	var problem model.V2Problem
	resp, err := s.Do(req.WithContext(ctx), ok, &problem)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp, &model.AuthError{Op: op, Err: problemError(resp.StatusCode, problem)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return resp, &model.TransportError{Op: op, Err: problemError(resp.StatusCode, problem)}
	}
	return resp, nil
}

func (t *v2Timeline) lookupUser(ctx context.Context, username string) (string, error) {
	var out model.UserResp
	resp, err := t.do(ctx, t.base.New().Get("2/users/by/username/"+url.PathEscape(username)), "GET /2/users/by/username", &out)
	if err != nil {
		var te *model.TransportError
		if resp != nil && resp.StatusCode == http.StatusNotFound && errors.As(err, &te) {
			return "", &model.NotFoundError{Kind: "user", Name: username}
		}
		return "", err
	}
	if out.Data == nil || out.Data.ID == "" {
		return "", &model.NotFoundError{Kind: "user", Name: username}
	}
	return out.Data.ID, nil
}

func (t *v2Timeline) userPosts(ctx context.Context, userID, username string, q FetchQuery) ([]model.SourcePost, error) {
	params := &v2TimelineParams{
		MaxResults:  max(q.MaxCount, v2MinResults),
		TweetFields: strings.Join(tweetFields, ","),
		Exclude:     strings.Join(q.excludes(), ","),
	}
	var out model.TimelineResp
	s := t.base.New().Get("2/users/" + url.PathEscape(userID) + "/tweets").QueryStruct(params)
	if _, err := t.do(ctx, s, "GET /2/users/:id/tweets", &out); err != nil {
		return nil, err
	}

	posts := make([]model.SourcePost, 0, len(out.Data))
	for _, tw := range out.Data {
		author := username
		if author == "" {
			author = tw.AuthorID
		}
		posts = append(posts, model.SourcePost{
			ID:        tw.ID,
			Text:      tw.Text,
			Author:    author,
			CreatedAt: tw.CreatedAt,
			Likes:     tw.PublicMetrics.LikeCount,
			Retweets:  tw.PublicMetrics.RetweetCount,
			Replies:   tw.PublicMetrics.ReplyCount,
		})
	}
	return posts, nil
}
