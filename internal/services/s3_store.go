package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/models"
)

const defaultRegion = "us-east-1"

// s3Store implements ObjectStore with the AWS SDK, for AWS and other
// S3-compatible services that are not MinIO.
type s3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
}

func (s *s3Store) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, mapS3Error(err, "failed to list buckets")
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

func (s *s3Store) ListObjects(ctx context.Context, bucket, prefix string) ([]models.ObjectRecord, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var records []models.ObjectRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error(err, "failed to list objects")
		}
		for _, obj := range page.Contents {
			records = append(records, models.ObjectRecord{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return records, nil
}

func (s *s3Store) PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (*url.URL, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, mapS3Error(err, "failed to presign upload")
	}
	return url.Parse(req.URL)
}

func (s *s3Store) PresignGet(ctx context.Context, bucket, key, disposition string, ttl time.Duration) (*url.URL, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if disposition != "" {
		input.ResponseContentDisposition = aws.String(disposition)
	}
	req, err := s.presigner.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, mapS3Error(err, "failed to presign download")
	}
	return url.Parse(req.URL)
}

func (s *s3Store) RemoveObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapS3Error(err, "failed to delete object")
	}
	return nil
}

// S3Factory builds AWS SDK clients. The admin API is MinIO-only.
type S3Factory struct{}

func (f *S3Factory) NewAdminClient(Credentials) (AdminClient, error) {
	return nil, errs.New(errs.ErrKindUnsupported, "usage reporting requires a MinIO endpoint")
}

func (f *S3Factory) NewStore(creds Credentials) (ObjectStore, error) {
	region := creds.Region
	if region == "" {
		region = defaultRegion
	}

	awsConfig, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider(
			creds.AccessKey,
			creds.SecretKey,
			creds.SessionToken,
		)),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "failed to load AWS config", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if creds.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(creds.Endpoint))
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		}
	})

	return &s3Store{client: client, presigner: s3.NewPresignClient(client)}, nil
}

// mapS3Error translates an AWS SDK error into a *errs.Error.
func mapS3Error(err error, msg string) *errs.Error {
	if errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindCancelled, msg, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return errs.Wrap(errs.ErrKindBucketNotFound, msg, err)
		case "NoSuchKey", "NotFound":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "Forbidden":
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case "InvalidBucketName", "KeyTooLongError", "InvalidArgument":
			return errs.Wrap(errs.ErrKindValidation, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindTransport, msg, err)
}
