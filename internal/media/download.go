package media

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mikequentel/dobby/internal/model"
)

// Download GETs url and, on HTTP 200, writes the body to path and returns it.
// Any other outcome returns "" and leaves no file at path: the body goes to a
// sibling temp file first and is renamed into place only once complete.
func Download(ctx context.Context, hc *http.Client, url, path string) (string, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", &model.TransportError{Op: "GET " + url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &model.TransportError{Op: "GET " + url, Err: errors.Errorf("HTTP %d", resp.StatusCode)}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if copyErr != nil {
			return "", &model.TransportError{Op: "GET " + url, Err: errors.Wrap(copyErr, "read body")}
		}
		return "", errors.Wrap(closeErr, "close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", errors.Wrap(err, "move download into place")
	}
	return path, nil
}
