package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/damacus/iron-explorer/internal/errs"
)

// PresignedTransport PUTs file bodies to presigned URLs.
type PresignedTransport struct {
	Client *http.Client
}

// NewPresignedTransport returns a transport without an overall timeout;
// large transfers are bounded by their context instead.
func NewPresignedTransport() *PresignedTransport {
	return &PresignedTransport{Client: NewHTTPClient(0)}
}

func (t *PresignedTransport) Put(ctx context.Context, url string, body io.Reader, size int64, contentType string, progress func(sent, total int64)) error {
	if progress != nil {
		body = &progressReader{r: body, total: size, fn: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return errs.Wrap(errs.ErrKindValidation, "invalid upload URL", err)
	}
	req.ContentLength = size
	if size == 0 {
		req.Body = http.NoBody
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errs.FromContext(ctx, "upload failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.New(kindForStatus(resp.StatusCode), fmt.Sprintf("upload failed with status %d", resp.StatusCode))
	}
	return nil
}

// progressReader reports the running byte count as the body is read.
type progressReader struct {
	r     io.Reader
	total int64
	sent  atomic.Int64
	fn    func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.fn(p.sent.Add(int64(n)), p.total)
	}
	return n, err
}
