package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/minio/madmin-go/v3"
)

// Provider names accepted by NewFactory.
const (
	ProviderMinIO = "minio"
	ProviderS3    = "s3"
)

const (
	// DefaultPresignTTL is used when no lifetime is configured.
	DefaultPresignTTL = 15 * time.Minute
	// MaxPresignTTL is the longest lifetime S3 accepts for a presigned URL.
	MaxPresignTTL = 7 * 24 * time.Hour
)

// ObjectStore is the narrow set of single-object primitives the API exposes.
// Implementations map SDK errors to *errs.Error.
type ObjectStore interface {
	// ListBuckets is used to validate credentials at login.
	ListBuckets(ctx context.Context) ([]string, error)

	// ListObjects returns every object whose key starts with prefix, recursively.
	ListObjects(ctx context.Context, bucket, prefix string) ([]models.ObjectRecord, error)

	// PresignPut returns a URL valid for one PUT of key.
	PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (*url.URL, error)

	// PresignGet returns a URL valid for one GET of key. disposition is sent
	// back as the response Content-Disposition when non-empty.
	PresignGet(ctx context.Context, bucket, key, disposition string, ttl time.Duration) (*url.URL, error)

	// RemoveObject deletes a single key.
	RemoveObject(ctx context.Context, bucket, key string) error
}

// AdminClient is the madmin subset used for bucket usage reporting.
type AdminClient interface {
	DataUsageInfo(ctx context.Context) (madmin.DataUsageInfo, error)
}

// StoreFactory creates authenticated clients
type StoreFactory interface {
	NewAdminClient(creds Credentials) (AdminClient, error)
	NewStore(creds Credentials) (ObjectStore, error)
}

// NewFactory returns the StoreFactory for provider.
func NewFactory(provider string) (StoreFactory, error) {
	switch provider {
	case "", ProviderMinIO:
		return &MinioFactory{}, nil
	case ProviderS3:
		return &S3Factory{}, nil
	default:
		return nil, fmt.Errorf("unknown store provider %q", provider)
	}
}

// ClampTTL bounds a requested presign lifetime to (0, MaxPresignTTL],
// falling back to def for non-positive values.
func ClampTTL(ttl, def time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = def
	}
	if ttl > MaxPresignTTL {
		return MaxPresignTTL
	}
	return ttl
}

// shouldUseSSL determines if SSL should be used based on the endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(endpoint string) bool {
	// Local development endpoints
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// Docker service names (minio:9000, minio1:9000, minio2:9000, etc.)
	// Only match simple hostnames without dots (not domain names like minio.example.com)
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(strings.Split(endpoint, ":")[0], ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}

// endpointURL turns a host[:port] endpoint into a base URL.
func endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if shouldUseSSL(endpoint) {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
