// Package client implements the browser's Backend and Transport over the
// network: APIClient talks to the explorer API server, PresignedTransport
// moves file bodies to presigned URLs and DirectBackend skips the API and
// signs URLs with store credentials held locally.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/models"
)

// DefaultTimeout bounds a single API call. Transfers use PresignedTransport
// and are not subject to it.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns an http.Client with pooled connections and dial
// timeouts. timeout <= 0 leaves the overall request time unbounded.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
}

// APIClient is a browser Backend for one bucket behind the explorer API.
type APIClient struct {
	baseURL string
	bucket  string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPIClient creates a client for bucket at baseURL. A nil httpClient uses
// NewHTTPClient(DefaultTimeout).
func NewAPIClient(baseURL, bucket string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}
	return &APIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		bucket:  bucket,
		http:    httpClient,
	}
}

// Bucket returns the bucket this client addresses.
func (c *APIClient) Bucket() string { return c.bucket }

// SetToken sets the bearer token sent with every request.
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login exchanges store credentials for a session token and keeps it.
func (c *APIClient) Login(ctx context.Context, accessKey, secretKey, sessionToken string) error {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", nil, models.LoginRequest{
		AccessKey:    accessKey,
		SecretKey:    secretKey,
		SessionToken: sessionToken,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return errs.New(errs.ErrKindTransport, "login response carried no token")
	}
	c.SetToken(resp.Token)
	return nil
}

func (c *APIClient) ListObjects(ctx context.Context, prefix string) ([]models.ObjectRecord, error) {
	var resp models.ListObjectsResponse
	q := url.Values{}
	q.Set("prefix", prefix)
	if err := c.do(ctx, http.MethodGet, c.bucketPath("objects"), q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Objects, nil
}

func (c *APIClient) UploadURL(ctx context.Context, key, contentType string) (string, error) {
	var resp models.PresignedURLResponse
	err := c.do(ctx, http.MethodPost, c.bucketPath("upload-url"), nil, models.UploadURLRequest{
		Key:         key,
		ContentType: contentType,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *APIClient) DownloadURL(ctx context.Context, key string, inline bool) (string, error) {
	var resp models.PresignedURLResponse
	err := c.do(ctx, http.MethodPost, c.bucketPath("download-url"), nil, models.DownloadURLRequest{
		Key:    key,
		Inline: inline,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// DeleteObject removes key. A missing key is not an error.
func (c *APIClient) DeleteObject(ctx context.Context, key string) error {
	q := url.Values{}
	q.Set("key", key)
	err := c.do(ctx, http.MethodDelete, c.bucketPath("objects"), q, nil, nil)
	if errs.IsNotFound(err) {
		return nil
	}
	return err
}

// Usage reports the stored size of the bucket. MinIO only.
func (c *APIClient) Usage(ctx context.Context) (*models.UsageResponse, error) {
	var resp models.UsageResponse
	if err := c.do(ctx, http.MethodGet, c.bucketPath("usage"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) bucketPath(op string) string {
	return "/api/buckets/" + url.PathEscape(c.bucket) + "/" + op
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.Wrap(errs.ErrKindValidation, "failed to encode request", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errs.Wrap(errs.ErrKindValidation, "failed to build request", err)
	}
	c.setHeaders(req, in != nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.FromContext(ctx, method+" "+path+" failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.ErrKindTransport, "failed to decode response", err)
	}
	return nil
}

// setHeaders applies common headers to requests
func (c *APIClient) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// decodeError turns a non-2xx response into an *errs.Error, preferring the
// server's own kind and message.
func decodeError(resp *http.Response) error {
	var body models.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}
	if body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}
	kind := errs.ParseKind(body.Kind)
	if kind == errs.ErrKindUnknown {
		kind = kindForStatus(resp.StatusCode)
	}
	return errs.New(kind, fmt.Sprintf("%s (status %d)", body.Message, resp.StatusCode))
}

func kindForStatus(status int) errs.ErrKind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errs.ErrKindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.ErrKindPermissionDenied
	case http.StatusNotFound:
		return errs.ErrKindNotFound
	case http.StatusConflict:
		return errs.ErrKindConflict
	case http.StatusNotImplemented:
		return errs.ErrKindUnsupported
	default:
		return errs.ErrKindTransport
	}
}
