package storage

import (
	"os"
	"strconv"
	"time"
)

// maxPresign is the longest lifetime S3 allows for a presigned URL.
const maxPresign = 7 * 24 * time.Hour

// MinIOConfig is read from MINIO_* variables. Uploads are disabled when
// Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL prefixes object keys in returned media URLs. Empty means presigned URLs.
	PublicURL  string
	PresignTTL time.Duration
}

func (c *MinIOConfig) Enabled() bool { return c != nil && c.Endpoint != "" }

func LoadMinIOConfig() *MinIOConfig {
	ssl, _ := strconv.ParseBool(os.Getenv("MINIO_USE_SSL"))
	ttl := maxPresign
	if h, err := strconv.Atoi(os.Getenv("MINIO_PRESIGN_HOURS")); err == nil && h > 0 {
		ttl = min(time.Duration(h)*time.Hour, maxPresign)
	}
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "trackadmission-media"
	}
	return &MinIOConfig{
		Endpoint:   os.Getenv("MINIO_ENDPOINT"),
		AccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:     ssl,
		Bucket:     bucket,
		PublicURL:  os.Getenv("MINIO_PUBLIC_URL"),
		PresignTTL: ttl,
	}
}
