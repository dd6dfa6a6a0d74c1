package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"pataalerta/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(o Options) *gin.Engine {
	r, _ := newRouter(o)
	return r
}

func newRouter(o Options) (*gin.Engine, *Handler) {
	r := gin.Default()
	r.Use(mw.Metrics(o.Metrics))

	handler := NewHandler(o)

	if o.RateLimit <= 0 {
		o.RateLimit = 10
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 5
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	rateLimiter := mw.RateLimiter(rate.Limit(o.RateLimit), o.RateBurst, o.IPHeader)

	// Config and stats are cached; every successful write flushes the cache.
	cacheStore := cache.New(o.CacheTTL, 2*o.CacheTTL)
	caching := mw.Cache(cacheStore, o.CacheTTL)
	invalidate := mw.Invalidate(cacheStore)

	r.GET("/metrics", gin.WrapH(o.Metrics.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/config", caching, handler.GetConfig)
		api.GET("/stats", caching, handler.GetStats)

		api.GET("/alerts", handler.ListAlerts)
		api.GET("/alerts/recent", handler.RecentAlerts)
		api.GET("/alerts/:id", handler.GetAlert)
		api.POST("/alerts", invalidate, handler.CreateAlert)
		api.POST("/alerts/:id/reports", handler.ReportAlert)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		admin := api.Group("/admin", requireAdmin(o.AdminToken))
		admin.GET("/alerts", handler.ListAdminAlerts)
		admin.GET("/reports", handler.ListReports)
		admin.PATCH("/alerts/:id", invalidate, handler.UpdateAlertStatus)
		admin.DELETE("/alerts/:id", invalidate, handler.DeleteAlert)
	}

	return r, handler
}
