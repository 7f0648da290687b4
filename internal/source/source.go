package source

import (
	"context"

	"github.com/mikequentel/dobby/internal/model"
	"github.com/mikequentel/dobby/internal/social"
)

// Source yields candidate triggering posts, newest first.
//
// A returned error is fatal (bad configuration or input). Upstream trouble that
// the run can survive is reported through the Result instead.
type Source interface {
	Name() string
	Posts(ctx context.Context) (model.Result[[]model.SourcePost], error)
}

// PostFetcher is the read side of the social client.
type PostFetcher interface {
	FetchUserPosts(ctx context.Context, username string, q social.FetchQuery) (model.Result[[]model.SourcePost], error)
}

// Live reads the most recent posts of one user from the platform.
type Live struct {
	fetcher  PostFetcher
	username string
	query    social.FetchQuery
}

func NewLive(fetcher PostFetcher, username string, q social.FetchQuery) *Live {
	return &Live{fetcher: fetcher, username: username, query: q}
}

func (l *Live) Name() string { return "live:@" + l.username }

func (l *Live) Posts(ctx context.Context) (model.Result[[]model.SourcePost], error) {
	return l.fetcher.FetchUserPosts(ctx, l.username, l.query)
}
