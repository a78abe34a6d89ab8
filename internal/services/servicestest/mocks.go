// Package servicestest provides testify mocks of the services interfaces for
// handler, client and server tests.
package servicestest

import (
	"context"
	"net/url"
	"time"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/minio/madmin-go/v3"
	"github.com/stretchr/testify/mock"
)

// MockObjectStore implements services.ObjectStore for testing
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) ListBuckets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockObjectStore) ListObjects(ctx context.Context, bucket, prefix string) ([]models.ObjectRecord, error) {
	args := m.Called(ctx, bucket, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ObjectRecord), args.Error(1)
}

func (m *MockObjectStore) PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (*url.URL, error) {
	args := m.Called(ctx, bucket, key, contentType, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

func (m *MockObjectStore) PresignGet(ctx context.Context, bucket, key, disposition string, ttl time.Duration) (*url.URL, error) {
	args := m.Called(ctx, bucket, key, disposition, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

func (m *MockObjectStore) RemoveObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

// MockAdminClient implements services.AdminClient for testing
type MockAdminClient struct {
	mock.Mock
}

func (m *MockAdminClient) DataUsageInfo(ctx context.Context) (madmin.DataUsageInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(madmin.DataUsageInfo), args.Error(1)
}

// MockStoreFactory implements services.StoreFactory for testing
type MockStoreFactory struct {
	mock.Mock
}

func (m *MockStoreFactory) NewAdminClient(creds services.Credentials) (services.AdminClient, error) {
	args := m.Called(creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(services.AdminClient), args.Error(1)
}

func (m *MockStoreFactory) NewStore(creds services.Credentials) (services.ObjectStore, error) {
	args := m.Called(creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(services.ObjectStore), args.Error(1)
}

// MustURL parses raw or panics.
func MustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
