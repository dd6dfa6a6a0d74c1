package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pataalerta/internal/model"
	"pataalerta/internal/notification"
)

type putSubscriptionRequest struct {
	Endpoint      string   `json:"endpoint" binding:"required"`
	P256DH        string   `json:"p256dh" binding:"required"`
	Auth          string   `json:"auth" binding:"required"`
	Neighborhoods []string `json:"neighborhoods"`
}

func (h *Handler) pushUnavailable(c *gin.Context) bool {
	if h.subs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are not configured"})
		return true
	}
	return false
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.pushUnavailable(c) {
		return
	}

	doc := h.siteConfig(c)
	for _, n := range req.Neighborhoods {
		if !doc.HasNeighborhood(n) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown neighborhood: " + n})
			return
		}
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.subs.Put(c.Request.Context(), subscription, req.Neighborhoods); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.pushUnavailable(c) {
		return
	}

	if err := h.subs.Delete(c.Request.Context(), req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam returns key's value without URL decoding; push endpoints are
// stored exactly as the browser reported them.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription returns the neighborhoods a subscription follows.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}
	if h.pushUnavailable(c) {
		return
	}

	subscription, err := h.subs.Get(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, notification.ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	neighborhoods := make([]string, len(subscription.Neighborhoods))
	for i, n := range subscription.Neighborhoods {
		neighborhoods[i] = n.Neighborhood
	}

	c.JSON(http.StatusOK, gin.H{"neighborhoods": neighborhoods})
}

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapid keys are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
