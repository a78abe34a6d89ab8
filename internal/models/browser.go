// Package models contains data structures shared by the API server, the API
// client and the browser core.
package models

import "time"

// ObjectRecord is one object as returned by a listing.
// A zero LastModified means the store did not report one.
type ObjectRecord struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified,omitempty"`
}

// Breadcrumb for navigation
type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListObjectsResponse is the body of GET /api/buckets/:bucket/objects.
type ListObjectsResponse struct {
	Objects []ObjectRecord `json:"objects"`
}

// UploadURLRequest asks for a presigned PUT URL.
type UploadURLRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType,omitempty"`
}

// DownloadURLRequest asks for a presigned GET URL. Inline selects
// Content-Disposition inline (preview) instead of attachment (download).
type DownloadURLRequest struct {
	Key    string `json:"key"`
	Inline bool   `json:"inline"`
}

// PresignedURLResponse carries a time-limited URL.
type PresignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginRequest carries store credentials for POST /api/login.
type LoginRequest struct {
	AccessKey    string `json:"accessKey"`
	SecretKey    string `json:"secretKey"`
	SessionToken string `json:"sessionToken,omitempty"`
}

// LoginResponse carries the bearer token for subsequent API calls.
type LoginResponse struct {
	Token string `json:"token"`
}

// UsageResponse reports the stored size of a bucket.
type UsageResponse struct {
	Bucket        string `json:"bucket"`
	Size          uint64 `json:"size"`
	FormattedSize string `json:"formattedSize"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
