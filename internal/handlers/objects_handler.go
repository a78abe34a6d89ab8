package handlers

import (
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/logger"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/labstack/echo/v4"
)

// ObjectsHandler serves the single-object primitives the explorer needs:
// listing, presigned upload and download URLs, deletion and usage.
type ObjectsHandler struct {
	storeFactory services.StoreFactory
	ttl          time.Duration
	log          *logger.Logger
}

func NewObjectsHandler(storeFactory services.StoreFactory, ttl time.Duration, log *logger.Logger) *ObjectsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ObjectsHandler{
		storeFactory: storeFactory,
		ttl:          services.ClampTTL(ttl, services.DefaultPresignTTL),
		log:          log,
	}
}

// ListBuckets returns the names of every bucket the caller can see.
func (h *ObjectsHandler) ListBuckets(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return RespondError(c, err)
	}

	buckets, err := store.ListBuckets(c.Request().Context())
	if err != nil {
		return RespondError(c, err)
	}
	if buckets == nil {
		buckets = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"buckets": buckets})
}

// ListObjects returns every object under ?prefix=, recursively.
func (h *ObjectsHandler) ListObjects(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return RespondError(c, err)
	}

	bucket := c.Param("bucket")
	prefix := c.QueryParam("prefix")

	records, err := store.ListObjects(c.Request().Context(), bucket, prefix)
	if err != nil {
		return RespondError(c, err)
	}
	if records == nil {
		records = []models.ObjectRecord{}
	}

	h.log.Debug().Str("bucket", bucket).Str("prefix", prefix).Int("count", len(records)).Msg("listed objects")
	return c.JSON(http.StatusOK, models.ListObjectsResponse{Objects: records})
}

// UploadURL presigns a PUT for the requested key. A missing content type is
// guessed from the key's extension.
func (h *ObjectsHandler) UploadURL(c echo.Context) error {
	var req models.UploadURLRequest
	if err := c.Bind(&req); err != nil {
		return RespondError(c, errs.Wrap(errs.ErrKindValidation, "invalid upload request", err))
	}
	if req.Key == "" {
		return RespondError(c, errs.New(errs.ErrKindValidation, "key is required"))
	}
	if req.ContentType == "" && !strings.HasSuffix(req.Key, "/") {
		req.ContentType = utils.ContentTypeFromExt(req.Key)
	}

	store, err := h.store(c)
	if err != nil {
		return RespondError(c, err)
	}

	ttl := h.requestTTL(c)
	u, err := store.PresignPut(c.Request().Context(), c.Param("bucket"), req.Key, req.ContentType, ttl)
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.PresignedURLResponse{
		URL:       u.String(),
		ExpiresAt: time.Now().Add(ttl).UTC(),
	})
}

// DownloadURL presigns a GET for the requested key, inline for previews or as
// an attachment for downloads.
func (h *ObjectsHandler) DownloadURL(c echo.Context) error {
	var req models.DownloadURLRequest
	if err := c.Bind(&req); err != nil {
		return RespondError(c, errs.Wrap(errs.ErrKindValidation, "invalid download request", err))
	}
	if req.Key == "" || strings.HasSuffix(req.Key, "/") {
		return RespondError(c, errs.New(errs.ErrKindValidation, "key must name a file"))
	}

	store, err := h.store(c)
	if err != nil {
		return RespondError(c, err)
	}

	ttl := h.requestTTL(c)
	disposition := utils.ContentDisposition(path.Base(req.Key), req.Inline)
	u, err := store.PresignGet(c.Request().Context(), c.Param("bucket"), req.Key, disposition, ttl)
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.PresignedURLResponse{
		URL:       u.String(),
		ExpiresAt: time.Now().Add(ttl).UTC(),
	})
}

// DeleteObject removes ?key=. Deleting a key that is already gone succeeds.
func (h *ObjectsHandler) DeleteObject(c echo.Context) error {
	bucket := c.Param("bucket")
	key := c.QueryParam("key")
	if key == "" {
		return RespondError(c, errs.New(errs.ErrKindValidation, "key is required"))
	}

	store, err := h.store(c)
	if err != nil {
		return RespondError(c, err)
	}

	if err := store.RemoveObject(c.Request().Context(), bucket, key); err != nil && !errs.IsNotFound(err) {
		return RespondError(c, err)
	}

	h.log.Info().Str("bucket", bucket).Str("key", key).Msg("deleted object")
	return c.NoContent(http.StatusNoContent)
}

// Usage reports the bucket size from the MinIO data usage scanner.
func (h *ObjectsHandler) Usage(c echo.Context) error {
	creds, err := GetCredentials(c)
	if err != nil {
		return RespondError(c, err)
	}

	mdm, err := h.storeFactory.NewAdminClient(*creds)
	if err != nil {
		return RespondError(c, err)
	}

	usage, err := mdm.DataUsageInfo(c.Request().Context())
	if err != nil {
		return RespondError(c, errs.Wrap(errs.ErrKindTransport, "failed to fetch data usage", err))
	}

	bucket := c.Param("bucket")
	size := uint64(0)
	if usage.BucketSizes != nil {
		size = usage.BucketSizes[bucket]
	}

	return c.JSON(http.StatusOK, models.UsageResponse{
		Bucket:        bucket,
		Size:          size,
		FormattedSize: utils.FormatBytes(size),
	})
}

func (h *ObjectsHandler) store(c echo.Context) (services.ObjectStore, error) {
	creds, err := GetCredentials(c)
	if err != nil {
		return nil, err
	}
	return h.storeFactory.NewStore(*creds)
}

// requestTTL honours ?expires=<seconds>, capped at the store maximum.
func (h *ObjectsHandler) requestTTL(c echo.Context) time.Duration {
	raw := c.QueryParam("expires")
	if raw == "" {
		return h.ttl
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return h.ttl
	}
	return services.ClampTTL(time.Duration(seconds)*time.Second, h.ttl)
}
