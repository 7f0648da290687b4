package media

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikequentel/dobby/internal/model"
)

// Platform is the part of the social client the publisher needs.
type Platform interface {
	AttachMedia(ctx context.Context, localFilePath string) (model.MediaHandle, error)
	CreatePost(ctx context.Context, text string, media ...model.MediaHandle) (*model.PostResult, error)
}

// Publisher posts text together with a generated image.
type Publisher struct {
	platform Platform
	http     *http.Client
	dir      string
	log      *zap.SugaredLogger
}

// NewPublisher stages downloads in dir (os.TempDir() when empty).
func NewPublisher(platform Platform, hc *http.Client, dir string, log *zap.SugaredLogger) *Publisher {
	if dir == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Publisher{platform: platform, http: hc, dir: dir, log: log}
}

// PostWithImage downloads the first image of img, uploads it and posts text
// with it attached. If the download fails nothing is uploaded or posted.
// Once downloaded, the local copy is removed before returning, whatever
// happens next.
func (p *Publisher) PostWithImage(ctx context.Context, text string, img *model.GeneratedImage) (*model.PostResult, error) {
	src := img.FirstURL()
	if src == "" {
		return nil, errors.New("post with image: no image url")
	}

	local, err := Download(ctx, p.http, src, filepath.Join(p.dir, stagingName(src)))
	if err != nil || local == "" {
		p.log.Warnw("Image download failed, nothing posted", "url", src, "error", err)
		return nil, errors.Wrap(err, "download image")
	}
	defer func() {
		if err := os.Remove(local); err != nil && !os.IsNotExist(err) {
			p.log.Warnw("Could not remove staged image", "path", local, "error", err)
		}
	}()

	handle, err := p.platform.AttachMedia(ctx, local)
	if err != nil {
		return nil, errors.Wrap(err, "attach image")
	}
	res, err := p.platform.CreatePost(ctx, text, handle)
	if err != nil {
		return nil, errors.Wrap(err, "post with image")
	}
	p.log.Infow("Posted with image", "id", res.ID, "media_id", handle)
	return res, nil
}

// stagingName is a unique file name keeping the image URL's extension, which
// decides the upload's content type.
func stagingName(rawURL string) string {
	ext := ".png"
	if u, err := url.Parse(rawURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e == ".png" || e == ".jpg" || e == ".jpeg" || e == ".gif" || e == ".webp" {
			ext = e
		}
	}
	return "dobby-" + uuid.NewString() + ext
}
