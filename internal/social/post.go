package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dghubble/go-twitter/twitter"
	"github.com/pkg/errors"

	"github.com/mikequentel/dobby/internal/model"
)

// CreatePost publishes text, with optional media attached, via POST /2/tweets.
// Text longer than MaxPostLength is rejected with a *model.ValidationError
// before anything is sent. A rejection by the platform comes back as
// *model.PostError; nothing is retried.
func (c *Client) CreatePost(ctx context.Context, text string, media ...model.MediaHandle) (*model.PostResult, error) {
	if n := RuneLen(text); n > MaxPostLength {
		return nil, &model.ValidationError{
			Field:  "text",
			Reason: fmt.Sprintf("post is too long: maximum %d characters, current length %d", MaxPostLength, n),
		}
	}
	if err := c.requireUser("create post"); err != nil {
		return nil, err
	}

	const op = "POST /2/tweets"
	payload := model.TweetReq{Text: text}
	if len(media) > 0 {
		ids := make([]string, 0, len(media))
		for _, m := range media {
			ids = append(ids, string(m))
		}
		payload.Media = &model.TweetMedia{MediaIDs: ids}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode post")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"2/tweets", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.user.Do(req)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := diagnoseHTTPError(resp, respBody, op)
		c.log.Errorw("Error posting", "status", resp.StatusCode, "detail", detail)
		return nil, &model.PostError{Status: resp.StatusCode, Detail: detail}
	}

	var out model.TweetResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &model.TransportError{Op: op, Err: errors.Wrap(err, "decode response")}
	}
	if out.Data.ID == "" {
		return nil, &model.TransportError{Op: op, Err: errors.Errorf("response has no post id: %s", strings.TrimSpace(string(respBody)))}
	}

	echoed := out.Data.Text
	if echoed == "" {
		echoed = text
	}
	c.log.Infow("Post created", "id", out.Data.ID, "text", echoed, "media", len(media))
	return &model.PostResult{ID: out.Data.ID, Text: echoed}, nil
}

// diagnoseHTTPError turns an error response from either API generation into
// one readable line: v2 problem JSON, v1.1 {"errors":[...]}, or the raw body.
func diagnoseHTTPError(resp *http.Response, body []byte, op string) string {
	head := fmt.Sprintf("%s: HTTP %d", op, resp.StatusCode)
	if lvl := resp.Header.Get("X-Access-Level"); lvl != "" {
		head += " (access level " + lvl + ")"
	}

	var problem model.V2Problem
	if err := json.Unmarshal(body, &problem); err == nil && (problem.Title != "" || problem.Detail != "") {
		return fmt.Sprintf("%s: %s: %s", head, problem.Title, problem.Detail)
	}

	var apiErr twitter.APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
		parts := make([]string, 0, len(apiErr.Errors))
		for _, e := range apiErr.Errors {
			parts = append(parts, fmt.Sprintf("code %d: %s", e.Code, e.Message))
		}
		return head + ": " + strings.Join(parts, "; ")
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		raw = http.StatusText(resp.StatusCode)
	}
	return head + ": " + raw
}

func problemError(status int, p model.V2Problem) error {
	if p.Title == "" && p.Detail == "" {
		return errors.Errorf("HTTP %d", status)
	}
	return errors.Errorf("HTTP %d: %s: %s", status, p.Title, p.Detail)
}
