package api

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"pataalerta/internal/alerts"
	"pataalerta/internal/failure"
	"pataalerta/internal/metrics"
	"pataalerta/internal/notification"
)

// Options carries the gateway's dependencies. Subscriptions and WebPush may
// be nil when push notifications are not set up.
type Options struct {
	Repo          *alerts.Repository
	Submitter     *alerts.Submitter
	Config        alerts.ConfigLoader
	Subscriptions *notification.Subscriptions
	WebPush       *webpush.Options
	Metrics       *metrics.Metrics

	PageSize    int
	RecentLimit int
	SessionTTL  time.Duration
	PublicURL   string

	RateLimit  float64
	RateBurst  int
	IPHeader   string
	CacheTTL   time.Duration
	AdminToken string
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	repo        *alerts.Repository
	submitter   *alerts.Submitter
	config      alerts.ConfigLoader
	sessions    *Sessions
	subs        *notification.Subscriptions
	webpush     *webpush.Options
	recentLimit int
	publicURL   string
}

// NewHandler creates a new API handler.
func NewHandler(o Options) *Handler {
	return &Handler{
		repo:        o.Repo,
		submitter:   o.Submitter,
		config:      o.Config,
		sessions:    NewSessions(o.Repo, o.PageSize, o.SessionTTL),
		subs:        o.Subscriptions,
		webpush:     o.WebPush,
		recentLimit: o.RecentLimit,
		publicURL:   o.PublicURL,
	}
}

// statusFor maps a failure kind to the HTTP status the gateway answers with.
func statusFor(f *failure.Failure) int {
	switch f.Kind {
	case failure.ValidationFailure:
		return http.StatusBadRequest
	case failure.ConfigurationUnavailable:
		return http.StatusServiceUnavailable
	case failure.TimeoutFailure:
		return http.StatusGatewayTimeout
	case failure.QuotaExceeded:
		return http.StatusTooManyRequests
	case failure.BackendRejection:
		if f.NotFound {
			return http.StatusNotFound
		}
	}
	return http.StatusBadGateway
}

func abortWithFailure(c *gin.Context, f *failure.Failure) {
	c.AbortWithStatusJSON(statusFor(f), gin.H{"error": f.UserMessage(), "failure": f})
}
