package main

import (
	"context"
	"fmt"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"pataalerta/config"
	"pataalerta/internal/alerts"
	"pataalerta/internal/api"
	"pataalerta/internal/db"
	"pataalerta/internal/device"
	"pataalerta/internal/expiry"
	"pataalerta/internal/kv"
	"pataalerta/internal/metrics"
	"pataalerta/internal/notification"
	"pataalerta/internal/photo"
	"pataalerta/internal/photo/imghost"
	"pataalerta/internal/photo/s3host"
	"pataalerta/internal/quota"
	"pataalerta/internal/siteconfig"
	"pataalerta/internal/store"
)

// app holds every wired component. Push fields are nil when the remote store
// is in memory or no VAPID keys are configured.
type app struct {
	cfg        *config.Config
	gormDB     *gorm.DB
	store      store.Store
	local      kv.Store
	identity   *device.Identity
	limiter    *quota.Limiter
	siteConfig *siteconfig.Cache
	metrics    *metrics.Metrics
	repo       *alerts.Repository
	submitter  *alerts.Submitter
	subs       *notification.Subscriptions
	workers    *notification.WorkerPool
	webpush    *webpush.Options
	expiry     *expiry.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	switch cfg.Database.Driver {
	case "memory":
		logger.Println("remote store: in memory, data is lost on exit")
		a.store = store.NewMemoryStore()
	default:
		gormDB, err := db.Init(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.gormDB = gormDB
		a.store = store.NewGormStore(gormDB)
		logger.Printf("remote store: %s", cfg.Database.Driver)
	}

	a.local = openLocalStore(cfg.LocalStore)
	a.identity = device.New(a.local)

	loc := time.Local
	if cfg.LocalStore.Timezone != "" {
		l, err := time.LoadLocation(cfg.LocalStore.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid local_store.timezone %q: %w", cfg.LocalStore.Timezone, err)
		}
		loc = l
	}
	a.limiter = quota.New(a.local, quota.WithLocation(loc))
	a.siteConfig = siteconfig.NewCache(a.store, a.local)

	host, err := newPhotoHost(ctx, cfg.Photo)
	if err != nil {
		return nil, err
	}
	pipeline := photo.NewPipeline(host, photo.WithTimeout(cfg.Photo.UploadTimeout))

	opts := []alerts.Option{alerts.WithMetrics(a.metrics)}
	if a.gormDB != nil {
		a.subs = notification.NewSubscriptions(a.gormDB)
		if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
			a.webpush = &webpush.Options{
				VAPIDPublicKey:  cfg.Push.PublicKey,
				VAPIDPrivateKey: cfg.Push.PrivateKey,
				Subscriber:      cfg.Push.Subject,
				TTL:             cfg.Push.TTL,
			}
			a.workers = notification.NewWorkerPool(cfg.WorkerPool.Size, a.gormDB, a.store, a.webpush).WithMetrics(a.metrics)
			opts = append(opts, alerts.WithNotifier(a.workers))
		} else {
			logger.Println("VAPID keys are not configured; new-alert notifications are disabled")
		}
	}

	a.repo = alerts.NewRepository(a.store, a.identity, a.limiter, opts...)
	a.submitter = alerts.NewSubmitter(a.repo, pipeline, a.siteConfig)
	a.expiry = expiry.NewService(cfg.Expiry, a.store, a.metrics)
	return a, nil
}

// openLocalStore opens the device-local store. When the file cannot be
// opened the app keeps running without local storage.
func openLocalStore(cfg config.LocalStoreConfig) kv.Store {
	if cfg.Path == "" {
		return kv.NewMemoryStore()
	}
	s, err := kv.OpenFile(cfg.Path)
	if err != nil {
		logger.Printf("Warning: %v. Continuing without local storage.", err)
		return kv.Unavailable{}
	}
	return s
}

func newPhotoHost(ctx context.Context, cfg config.PhotoConfig) (photo.Host, error) {
	switch cfg.Host {
	case "":
		logger.Println("photo host is not configured; new alerts cannot be published")
		return nil, nil
	case "imghost":
		return imghost.New(imghost.Config{
			Endpoint:  cfg.ImgHost.Endpoint,
			APIKey:    cfg.ImgHost.APIKey,
			HTTPProxy: cfg.ImgHost.HTTPProxy,
		}), nil
	case "s3":
		h, err := s3host.New(ctx, s3host.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
			MaxAttempts:     cfg.S3.MaxAttempts,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up s3 photo host: %w", err)
		}
		return h, nil
	}
	return nil, fmt.Errorf("unknown photo host %q", cfg.Host)
}

func (a *app) routerOptions() api.Options {
	return api.Options{
		Repo:          a.repo,
		Submitter:     a.submitter,
		Config:        a.siteConfig,
		Subscriptions: a.subs,
		WebPush:       a.webpush,
		Metrics:       a.metrics,
		PageSize:      a.cfg.Feed.PageSize,
		RecentLimit:   a.cfg.Feed.RecentLimit,
		SessionTTL:    a.cfg.Server.SessionTTL,
		PublicURL:     a.cfg.Server.PublicURL,
		RateLimit:     a.cfg.Server.RateLimitPerSec,
		IPHeader:      a.cfg.Server.RequestIPHeader,
		CacheTTL:      time.Duration(a.cfg.Server.CacheTTLSeconds) * time.Second,
		AdminToken:    a.cfg.Server.AdminToken,
	}
}

func (a *app) Close() {
	if a.gormDB == nil {
		return
	}
	if sqlDB, err := a.gormDB.DB(); err == nil {
		sqlDB.Close()
	}
}
