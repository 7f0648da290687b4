package social

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dghubble/go-twitter/twitter"
	"github.com/pkg/errors"

	"github.com/mikequentel/dobby/internal/model"
)

// v1.1 error codes that mean the user does not exist or is gone.
var legacyNotFoundCodes = map[int]bool{17: true, 34: true, 50: true, 63: true}

// v1.1 error codes that mean the credentials were refused.
var legacyAuthCodes = map[int]bool{32: true, 89: true, 215: true, 220: true}

// legacyTimeline reads through API v1.1 (users/show, statuses/user_timeline).
// go-twitter takes no context, so ctx is not honored on this path.
type legacyTimeline struct {
	api *twitter.Client
}

func newLegacyTimeline(hc *http.Client) *legacyTimeline {
	return &legacyTimeline{api: twitter.NewClient(hc)}
}

func (t *legacyTimeline) lookupUser(_ context.Context, username string) (string, error) {
	user, resp, err := t.api.Users.Show(&twitter.UserShowParams{ScreenName: username})
	if err != nil {
		return "", legacyError("GET /1.1/users/show.json", username, resp, err)
	}
	if user == nil || user.IDStr == "" {
		return "", &model.NotFoundError{Kind: "user", Name: username}
	}
	return user.IDStr, nil
}

func (t *legacyTimeline) userPosts(_ context.Context, userID, username string, q FetchQuery) ([]model.SourcePost, error) {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "parse user id %q", userID)
	}
	tweets, resp, err := t.api.Timelines.UserTimeline(&twitter.UserTimelineParams{
		UserID:          uid,
		Count:           q.MaxCount,
		ExcludeReplies:  twitter.Bool(q.ExcludeReplies),
		IncludeRetweets: twitter.Bool(q.IncludeRetweets),
		TweetMode:       "extended",
	})
	if err != nil {
		return nil, legacyError("GET /1.1/statuses/user_timeline.json", username, resp, err)
	}

	posts := make([]model.SourcePost, 0, len(tweets))
	for _, tw := range tweets {
		text := tw.FullText
		if text == "" {
			text = tw.Text
		}
		author := username
		if tw.User != nil && tw.User.ScreenName != "" {
			author = tw.User.ScreenName
		}
		created, _ := tw.CreatedAtTime()
		posts = append(posts, model.SourcePost{
			ID:        tw.IDStr,
			Text:      text,
			Author:    author,
			CreatedAt: created,
			Likes:     tw.FavoriteCount,
			Retweets:  tw.RetweetCount,
			Replies:   tw.ReplyCount,
		})
	}
	return posts, nil
}

func legacyError(op, username string, resp *http.Response, err error) error {
	var apiErr twitter.APIError
	if errors.As(err, &apiErr) {
		for _, d := range apiErr.Errors {
			switch {
			case legacyNotFoundCodes[d.Code]:
				return &model.NotFoundError{Kind: "user", Name: username}
			case legacyAuthCodes[d.Code]:
				return &model.AuthError{Op: op, Err: err}
			}
		}
	}
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return &model.NotFoundError{Kind: "user", Name: username}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &model.AuthError{Op: op, Err: err}
		}
	}
	return &model.TransportError{Op: op, Err: err}
}
