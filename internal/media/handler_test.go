package media_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/media"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

func newMediaRouter(t *testing.T) chi.Router {
	t.Helper()
	store, err := media.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	handler := media.NewHandler(nil, media.NewService(newMemoryMedia(), store, nil))
	router := chi.NewRouter()
	router.Route("/api/v1/media", handler.MountRoutes)
	return router
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadRequiresLogin(t *testing.T) {
	router := newMediaRouter(t)
	body, contentType := multipartBody(t, "file", "ghost.png", pngHeader)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAndDownload(t *testing.T) {
	router := newMediaRouter(t)
	body, contentType := multipartBody(t, "file", "ghost.png", pngHeader)

	sess := &shared.Session{ID: "sess"}
	sess.SetUser(uuid.NewString(), "ned")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		URLExtension string `json:"url_extension"`
		ContentType  string `json:"content_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "image/png", resp.ContentType)

	// Downloads are public, no session needed.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/media/download/"+resp.URLExtension, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, pngHeader, rec.Body.Bytes())
}

func TestUploadRejectsWrongField(t *testing.T) {
	router := newMediaRouter(t)
	body, contentType := multipartBody(t, "attachment", "ghost.png", pngHeader)

	sess := &shared.Session{ID: "sess"}
	sess.SetUser(uuid.NewString(), "ned")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadUnknown(t *testing.T) {
	router := newMediaRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media/download/doesnotexist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
