package image

import (
	"context"
	"net/http"

	"github.com/dghubble/sling"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mikequentel/dobby/internal/config"
	"github.com/mikequentel/dobby/internal/model"
)

// Request describes one generation call.
type Request struct {
	Prompt string
	Width  int
	Height int
	Steps  int
	Count  int
}

// Client calls an images/generations endpoint that answers with result URLs.
type Client struct {
	base  *sling.Sling
	model string
	log   *zap.SugaredLogger
}

// New builds a client. hc may be nil for http.DefaultClient.
func New(cfg config.ImageConfig, apiKey string, hc *http.Client, log *zap.SugaredLogger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		base: sling.New().Client(hc).Base(cfg.BaseURL).
			Set("Authorization", "Bearer "+apiKey).
			Set("Accept", "application/json"),
		model: cfg.Model,
		log:   log,
	}
}

// Generate requests req.Count images for req.Prompt. It never returns an error:
// any failure is logged and reported through the Result, with a nil Value.
func (c *Client) Generate(ctx context.Context, req Request) model.Result[*model.GeneratedImage] {
	const op = "POST images/generations"
	payload := &model.ImageReq{
		Model:          c.model,
		Prompt:         req.Prompt,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		N:              req.Count,
		ResponseFormat: "url",
	}

	fail := func(err error) model.Result[*model.GeneratedImage] {
		c.log.Errorw("Error generating image", "model", c.model, "error", err)
		return model.Failed[*model.GeneratedImage](err)
	}

	s := c.base.New().Post("images/generations").BodyJSON(payload)
	httpReq, err := s.Request()
	if err != nil {
		return fail(errors.Wrap(err, "build request"))
	}

	var (
		out    model.ImageResp
		apiErr model.ImageErrResp
	)
	resp, err := s.Do(httpReq.WithContext(ctx), &out, &apiErr)
	if err != nil {
		return fail(&model.TransportError{Op: op, Err: err})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fail(&model.TransportError{Op: op, Err: errors.Errorf("HTTP %d: %s", resp.StatusCode, msg)})
	}

	img := &model.GeneratedImage{
		Prompt: req.Prompt,
		Width:  req.Width,
		Height: req.Height,
		Steps:  req.Steps,
		Count:  req.Count,
	}
	for _, d := range out.Data {
		if d.URL != "" {
			img.URLs = append(img.URLs, d.URL)
		}
	}
	if len(img.URLs) == 0 {
		return fail(&model.TransportError{Op: op, Err: errors.New("response has no image urls")})
	}

	c.log.Infow("Image generated", "model", c.model, "urls", len(img.URLs), "first", img.URLs[0])
	return model.Ok(img)
}
