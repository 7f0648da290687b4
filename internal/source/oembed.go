package source

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dghubble/sling"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikequentel/dobby/internal/model"
)

const DefaultOEmbedBase = "https://publish.twitter.com/"

var (
	statusRe = regexp.MustCompile(`/status(?:es)?/(\d+)`)
	handleRe = regexp.MustCompile(`\(@([A-Za-z0-9_]+)\)`)
)

// embedDateLayout is how publish.twitter.com prints the post date.
const embedDateLayout = "January 2, 2006"

// ParseEmbeds extracts every post from embed markup (the
// blockquote.twitter-tweet elements the oEmbed endpoint and the platform's
// "Embed post" dialog produce). Blockquotes without a paragraph are skipped.
func ParseEmbeds(r io.Reader) ([]model.SourcePost, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse embed html")
	}

	var posts []model.SourcePost
	doc.Find("blockquote.twitter-tweet").Each(func(_ int, bq *goquery.Selection) {
		p := bq.Find("p").First()
		if p.Length() == 0 {
			return
		}
		p.Find("br").ReplaceWithHtml("\n")

		post := model.SourcePost{Text: strings.TrimSpace(p.Text())}
		if m := handleRe.FindStringSubmatch(bq.Text()); m != nil {
			post.Author = m[1]
		}
		link := bq.ChildrenFiltered("a").Last()
		if href, ok := link.Attr("href"); ok {
			if m := statusRe.FindStringSubmatch(href); m != nil {
				post.ID = m[1]
			}
		}
		if t, err := time.Parse(embedDateLayout, strings.TrimSpace(link.Text())); err == nil {
			post.CreatedAt = t
		}
		posts = append(posts, post)
	})
	return posts, nil
}

// ParseEmbed returns the first post in html.
func ParseEmbed(html string) (model.SourcePost, error) {
	posts, err := ParseEmbeds(strings.NewReader(html))
	if err != nil {
		return model.SourcePost{}, err
	}
	if len(posts) == 0 {
		return model.SourcePost{}, &model.NotFoundError{Kind: "post", Name: "embed markup"}
	}
	return posts[0], nil
}

type oembedParams struct {
	URL        string `url:"url"`
	OmitScript bool   `url:"omit_script"`
	DNT        bool   `url:"dnt"`
}

// OEmbed reads one public post through the unauthenticated oEmbed endpoint.
type OEmbed struct {
	base    *sling.Sling
	postURL string
	log     *zap.SugaredLogger
}

// NewOEmbed targets the post at postURL. An empty baseURL means
// DefaultOEmbedBase.
func NewOEmbed(postURL, baseURL string, hc *http.Client, log *zap.SugaredLogger) *OEmbed {
	if baseURL == "" {
		baseURL = DefaultOEmbedBase
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &OEmbed{
		base:    sling.New().Client(hc).Base(baseURL).Set("Accept", "application/json"),
		postURL: postURL,
		log:     log,
	}
}

func (o *OEmbed) Name() string { return "oembed:" + o.postURL }

// Posts never returns an error; endpoint failures are logged and reported
// through the Result.
func (o *OEmbed) Posts(ctx context.Context) (model.Result[[]model.SourcePost], error) {
	fail := func(err error) (model.Result[[]model.SourcePost], error) {
		o.log.Warnw("oEmbed lookup failed", "url", o.postURL, "error", err)
		return model.Failed[[]model.SourcePost](err), nil
	}

	s := o.base.New().Get("oembed").QueryStruct(&oembedParams{URL: o.postURL, OmitScript: true, DNT: true})
	req, err := s.Request()
	if err != nil {
		return fail(errors.Wrap(err, "build request"))
	}
	var out model.OEmbedResp
	resp, err := s.Do(req.WithContext(ctx), &out, nil)
	if err != nil {
		return fail(&model.TransportError{Op: "GET oembed", Err: err})
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return fail(&model.NotFoundError{Kind: "post", Name: o.postURL})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fail(&model.TransportError{Op: "GET oembed", Err: errors.Errorf("HTTP %d", resp.StatusCode)})
	}

	post, err := ParseEmbed(out.HTML)
	if err != nil {
		return fail(err)
	}
	if post.Author == "" {
		post.Author = handleFromURL(out.AuthorURL)
	}
	if post.ID == "" {
		if m := statusRe.FindStringSubmatch(o.postURL); m != nil {
			post.ID = m[1]
		}
	}
	return model.Ok([]model.SourcePost{post}), nil
}

func handleFromURL(u string) string {
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
