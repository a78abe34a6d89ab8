package main

import (
	"context"
	"os"

	"github.com/damacus/iron-explorer/internal/browser"
	"github.com/damacus/iron-explorer/internal/client"
	"github.com/damacus/iron-explorer/internal/config"
	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/logger"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/utils"
)

// connection is what a command needs to reach one bucket.
type connection struct {
	backend   browser.Backend
	transport browser.Transport
	usage     func(ctx context.Context) (*models.UsageResponse, error)
}

type connectFunc func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*connection, error)

// connect logs in to the API server, or talks to the store itself when
// client.direct is set.
func connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (*connection, error) {
	bucket := cfg.Client.Bucket
	if bucket == "" {
		return nil, errs.New(errs.ErrKindValidation, "no bucket given (use --bucket or client.bucket)")
	}
	transport := client.NewPresignedTransport()

	if cfg.Client.Direct {
		factory, err := services.NewFactory(cfg.Store.Provider)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindValidation, "invalid store provider", err)
		}
		creds := cfg.Credentials()
		store, err := factory.NewStore(creds)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("endpoint", creds.Endpoint).Str("bucket", bucket).Msg("using store directly")

		return &connection{
			backend:   client.NewDirectBackend(store, bucket, cfg.Server.PresignTTL),
			transport: transport,
			usage: func(ctx context.Context) (*models.UsageResponse, error) {
				return directUsage(ctx, factory, creds, bucket)
			},
		}, nil
	}

	api := client.NewAPIClient(cfg.Client.APIURL, bucket, client.NewHTTPClient(client.DefaultTimeout))
	if token := os.Getenv(config.EnvPrefix + "_TOKEN"); token != "" {
		api.SetToken(token)
	} else if err := api.Login(ctx, cfg.Store.AccessKey, cfg.Store.SecretKey, cfg.Store.SessionToken); err != nil {
		return nil, err
	}
	log.Debug().Str("api_url", cfg.Client.APIURL).Str("bucket", bucket).Msg("logged in")

	return &connection{backend: api, transport: transport, usage: api.Usage}, nil
}

func directUsage(ctx context.Context, factory services.StoreFactory, creds services.Credentials, bucket string) (*models.UsageResponse, error) {
	mdm, err := factory.NewAdminClient(creds)
	if err != nil {
		return nil, err
	}
	usage, err := mdm.DataUsageInfo(ctx)
	if err != nil {
		return nil, errs.FromContext(ctx, "failed to fetch data usage", err)
	}
	size := uint64(0)
	if usage.BucketSizes != nil {
		size = usage.BucketSizes[bucket]
	}
	return &models.UsageResponse{Bucket: bucket, Size: size, FormattedSize: utils.FormatBytes(size)}, nil
}
