package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/internal/storage"
	"github.com/trackadmission/go-services/pkg/logger"
)

// MaxUploadBytes caps a single media upload.
const MaxUploadBytes = 10 << 20

type MediaUploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, data []byte) (*content.Media, error)
}

// RegisterUploadRoutes mounts POST /api/upload, a multipart form with a "file"
// part and an optional "folder" field.
func RegisterUploadRoutes(r gin.IRouter, up MediaUploader, auth gin.HandlerFunc) {
	r.POST("/api/upload", auth, func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+1<<20)
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
			return
		}
		if fh.Size > MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		m, err := up.Upload(c.Request.Context(), c.PostForm("folder"), fh.Filename, contentType, data)
		if errors.Is(err, storage.ErrInvalidFolder) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			logger.Errorf("media upload %s: %v", fh.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
			return
		}
		c.JSON(http.StatusOK, m)
	})
}
