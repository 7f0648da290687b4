package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mikequentel/dobby/internal/model"
)

// AttachMedia uploads the file at path through the v1.1 simple upload endpoint,
// signed with the OAuth1 user-context secrets, and returns the media id to use
// in CreatePost. On a non-2xx status the response body is logged and no
// handle is returned.
func (c *Client) AttachMedia(ctx context.Context, path string) (model.MediaHandle, error) {
	if err := c.requireUser("upload media"); err != nil {
		return "", err
	}

	const op = "POST /1.1/media/upload.json"
	body, contentType, err := multipartImage(path)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBase+"1.1/media/upload.json", body)
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.user.Do(req)
	if err != nil {
		return "", &model.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := diagnoseHTTPError(resp, respBody, op)
		c.log.Errorw("Error uploading media", "status", resp.StatusCode, "body", string(respBody))
		return "", &model.TransportError{Op: op, Err: errors.New(detail)}
	}

	var out model.MediaUploadResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &model.TransportError{Op: op, Err: errors.Wrap(err, "decode response")}
	}
	id := out.MediaIDString
	if id == "" && out.MediaID != 0 {
		id = strconv.FormatInt(out.MediaID, 10)
	}
	if id == "" {
		return "", errors.Errorf("media upload: missing media_id in response: %s", strings.TrimSpace(string(respBody)))
	}

	c.log.Infow("Media uploaded", "media_id", id, "path", path)
	return model.MediaHandle(id), nil
}

func multipartImage(path string) (io.Reader, string, error) {
	data, mimeType, err := readImage(path)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", errors.Wrap(err, "create multipart part")
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", errors.Wrap(err, "write multipart part")
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart writer")
	}
	return &buf, w.FormDataContentType(), nil
}

func readImage(path string) ([]byte, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "read image")
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := "image/jpeg"
	switch ext {
	case ".png":
		mimeType = "image/png"
	case ".gif":
		mimeType = "image/gif"
	case ".webp":
		mimeType = "image/webp"
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	}
	return b, mimeType, nil
}
