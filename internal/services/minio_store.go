package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioStore implements ObjectStore on top of minio.Client.
type minioStore struct {
	client *minio.Client
}

func (s *minioStore) ListBuckets(ctx context.Context) ([]string, error) {
	buckets, err := s.client.ListBuckets(ctx)
	if err != nil {
		return nil, mapMinioError(err, "failed to list buckets")
	}
	names := make([]string, len(buckets))
	for i, b := range buckets {
		names[i] = b.Name
	}
	return names, nil
}

func (s *minioStore) ListObjects(ctx context.Context, bucket, prefix string) ([]models.ObjectRecord, error) {
	var records []models.ObjectRecord
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, mapMinioError(obj.Err, "failed to list objects")
		}
		records = append(records, models.ObjectRecord{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return records, nil
}

func (s *minioStore) PresignPut(ctx context.Context, bucket, key, _ string, ttl time.Duration) (*url.URL, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, key, ttl)
	if err != nil {
		return nil, mapMinioError(err, "failed to presign upload")
	}
	return u, nil
}

func (s *minioStore) PresignGet(ctx context.Context, bucket, key, disposition string, ttl time.Duration) (*url.URL, error) {
	var params url.Values
	if disposition != "" {
		params = url.Values{}
		params.Set("response-content-disposition", disposition)
	}
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, params)
	if err != nil {
		return nil, mapMinioError(err, "failed to presign download")
	}
	return u, nil
}

func (s *minioStore) RemoveObject(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return mapMinioError(err, "failed to delete object")
	}
	return nil
}

// MinioFactory is the production factory for MinIO endpoints
type MinioFactory struct{}

func (f *MinioFactory) NewAdminClient(creds Credentials) (AdminClient, error) {
	client, err := madmin.NewWithOptions(creds.Endpoint, &madmin.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, ""),
		Secure: shouldUseSSL(creds.Endpoint),
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "failed to create admin client", err)
	}
	return client, nil
}

func (f *MinioFactory) NewStore(creds Credentials) (ObjectStore, error) {
	client, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		Secure: shouldUseSSL(creds.Endpoint),
		Region: creds.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "failed to create minio client", err)
	}
	return &minioStore{client: client}, nil
}

// mapMinioError translates a MinIO SDK error into a *errs.Error.
func mapMinioError(err error, msg string) *errs.Error {
	if errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindCancelled, msg, err)
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket":
			return errs.Wrap(errs.ErrKindBucketNotFound, msg, err)
		case "NoSuchKey":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.ErrKindValidation, msg, err)
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case http.StatusBadRequest:
			return errs.Wrap(errs.ErrKindValidation, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindTransport, msg, err)
}
