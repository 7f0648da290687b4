package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mikequentel/dobby/internal/model"
)

// mockPlatform records uploads and posts. AttachMedia also checks that the
// staged file really exists at upload time.
type mockPlatform struct {
	mock.Mock
	uploaded    string
	existedThen bool
}

func (m *mockPlatform) AttachMedia(ctx context.Context, localFilePath string) (model.MediaHandle, error) {
	m.uploaded = localFilePath
	_, err := os.Stat(localFilePath)
	m.existedThen = err == nil
	called := m.Called(localFilePath)
	return called.Get(0).(model.MediaHandle), called.Error(1)
}

func (m *mockPlatform) CreatePost(ctx context.Context, text string, media ...model.MediaHandle) (*model.PostResult, error) {
	called := m.Called(text, media)
	res, _ := called.Get(0).(*model.PostResult)
	return res, called.Error(1)
}

func imageServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

// ===================== Download =====================

func TestDownload_OK(t *testing.T) {
	srv := imageServer(t, http.StatusOK, "png-bytes")
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "img.png")
	got, err := Download(context.Background(), nil, srv.URL+"/y.png", dst)
	require.NoError(t, err)
	assert.Equal(t, dst, got)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	entries, _ := os.ReadDir(filepath.Dir(dst))
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDownload_NotOK(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusNoContent, http.StatusPartialContent} {
		srv := imageServer(t, status, "partial")
		dir := t.TempDir()
		dst := filepath.Join(dir, "img.png")

		got, err := Download(context.Background(), nil, srv.URL+"/y.png", dst)
		srv.Close()
		require.Error(t, err, "status %d", status)
		assert.Empty(t, got)
		_, statErr := os.Stat(dst)
		assert.True(t, os.IsNotExist(statErr), "no file for status %d", status)
		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries)
	}
}

func TestDownload_Unreachable(t *testing.T) {
	srv := imageServer(t, http.StatusOK, "x")
	u := srv.URL
	srv.Close()

	dst := filepath.Join(t.TempDir(), "img.png")
	got, err := Download(context.Background(), nil, u+"/y.png", dst)
	var te *model.TransportError
	require.True(t, errors.As(err, &te))
	assert.Empty(t, got)
}

// ===================== PostWithImage =====================

func TestPostWithImage_Success(t *testing.T) {
	srv := imageServer(t, http.StatusOK, "png-bytes")
	defer srv.Close()

	dir := t.TempDir()
	platform := &mockPlatform{}
	platform.On("AttachMedia", mock.Anything).Return(model.MediaHandle("m-1"), nil)
	platform.On("CreatePost", "roasted", []model.MediaHandle{"m-1"}).Return(&model.PostResult{ID: "p-1", Text: "roasted"}, nil)

	p := NewPublisher(platform, nil, dir, nil)
	res, err := p.PostWithImage(context.Background(), "roasted", &model.GeneratedImage{URLs: []string{srv.URL + "/y.png"}})
	require.NoError(t, err)
	assert.Equal(t, "p-1", res.ID)
	platform.AssertExpectations(t)

	assert.True(t, platform.existedThen, "file must exist while uploading")
	assert.Equal(t, dir, filepath.Dir(platform.uploaded))
	assert.True(t, strings.HasSuffix(platform.uploaded, ".png"))
	_, statErr := os.Stat(platform.uploaded)
	assert.True(t, os.IsNotExist(statErr), "staged file must be removed after the call")
}

func TestPostWithImage_RemovesFileWhenPostFails(t *testing.T) {
	srv := imageServer(t, http.StatusOK, "jpg-bytes")
	defer srv.Close()

	platform := &mockPlatform{}
	platform.On("AttachMedia", mock.Anything).Return(model.MediaHandle("m-1"), nil)
	platform.On("CreatePost", mock.Anything, mock.Anything).Return(nil, &model.PostError{Status: 403, Detail: "Forbidden"})

	p := NewPublisher(platform, nil, t.TempDir(), nil)
	res, err := p.PostWithImage(context.Background(), "text", &model.GeneratedImage{URLs: []string{srv.URL + "/y.jpg"}})
	assert.Nil(t, res)
	var pe *model.PostError
	require.True(t, errors.As(err, &pe))

	assert.True(t, strings.HasSuffix(platform.uploaded, ".jpg"))
	_, statErr := os.Stat(platform.uploaded)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPostWithImage_RemovesFileWhenUploadFails(t *testing.T) {
	srv := imageServer(t, http.StatusOK, "bytes")
	defer srv.Close()

	platform := &mockPlatform{}
	platform.On("AttachMedia", mock.Anything).Return(model.MediaHandle(""), &model.TransportError{Op: "upload", Err: errors.New("HTTP 400")})

	p := NewPublisher(platform, nil, t.TempDir(), nil)
	res, err := p.PostWithImage(context.Background(), "text", &model.GeneratedImage{URLs: []string{srv.URL + "/y.png"}})
	assert.Nil(t, res)
	require.Error(t, err)
	platform.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)

	_, statErr := os.Stat(platform.uploaded)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPostWithImage_DownloadFailureSkipsUploadAndPost(t *testing.T) {
	srv := imageServer(t, http.StatusNotFound, "gone")
	defer srv.Close()

	dir := t.TempDir()
	platform := &mockPlatform{}
	p := NewPublisher(platform, nil, dir, nil)
	res, err := p.PostWithImage(context.Background(), "text", &model.GeneratedImage{URLs: []string{srv.URL + "/y.png"}})
	assert.Nil(t, res)
	require.Error(t, err)
	platform.AssertNotCalled(t, "AttachMedia", mock.Anything)
	platform.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestPostWithImage_NoURL(t *testing.T) {
	platform := &mockPlatform{}
	p := NewPublisher(platform, nil, t.TempDir(), nil)
	_, err := p.PostWithImage(context.Background(), "text", &model.GeneratedImage{})
	require.Error(t, err)
	platform.AssertNotCalled(t, "AttachMedia", mock.Anything)
}

func TestStagingName(t *testing.T) {
	assert.True(t, strings.HasSuffix(stagingName("https://x/y.JPG?sig=1"), ".jpg"))
	assert.True(t, strings.HasSuffix(stagingName("https://x/blob"), ".png"))
	assert.NotEqual(t, stagingName("https://x/y.png"), stagingName("https://x/y.png"))
}
