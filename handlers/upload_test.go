package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/internal/storage"
)

type recordingUploader struct {
	folder, filename, contentType string
	size                          int
	err                           error
}

func (r *recordingUploader) Upload(ctx context.Context, folder, filename, contentType string, data []byte) (*content.Media, error) {
	r.folder, r.filename, r.contentType, r.size = folder, filename, contentType, len(data)
	if r.err != nil {
		return nil, r.err
	}
	return &content.Media{URL: "https://cdn.example.com/x.pdf", PublicID: folder + "/x", ResourceType: "raw", Size: int64(len(data))}, nil
}

func multipartBody(t *testing.T, folder, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if folder != "" {
		require.NoError(t, mw.WriteField("folder", folder))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadRoute(t *testing.T) {
	up := &recordingUploader{}
	g := newEngine()
	RegisterUploadRoutes(g, up, testAuth)

	body, ct := multipartBody(t, "brochures", "intake.pdf", []byte("%PDF-1.4 sample"))
	w := call(g, http.MethodPost, "/api/upload", "", body, ct)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	body, ct = multipartBody(t, "brochures", "intake.pdf", []byte("%PDF-1.4 sample"))
	w = call(g, http.MethodPost, "/api/upload", "writer", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var m content.Media
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, "brochures/x", m.PublicID)
	assert.Equal(t, "brochures", up.folder)
	assert.Equal(t, "intake.pdf", up.filename)
	assert.Equal(t, "application/pdf", up.contentType)
	assert.Equal(t, 15, up.size)
}

func TestUploadRouteErrors(t *testing.T) {
	up := &recordingUploader{}
	g := newEngine()
	RegisterUploadRoutes(g, up, testAuth)

	body, ct := multipartBody(t, "brochures", "", nil)
	w := call(g, http.MethodPost, "/api/upload", "writer", body, ct)
	require.Equal(t, http.StatusBadRequest, w.Code)

	up.err = storage.ErrInvalidFolder
	body, ct = multipartBody(t, "../x", "a.png", []byte("x"))
	w = call(g, http.MethodPost, "/api/upload", "writer", body, ct)
	require.Equal(t, http.StatusBadRequest, w.Code)

	up.err = errors.New("minio down")
	body, ct = multipartBody(t, "", "a.png", []byte("x"))
	w = call(g, http.MethodPost, "/api/upload", "writer", body, ct)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "minio")
}
