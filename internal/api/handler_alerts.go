package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pataalerta/internal/alerts"
	"pataalerta/internal/failure"
	"pataalerta/internal/model"
	"pataalerta/internal/photo"
	"pataalerta/internal/query"
	"pataalerta/internal/siteconfig"
)

// ListAlerts handles GET /api/alerts. Without more=1 it applies the filters
// in the query string and returns the first page; with more=1 it continues
// the session's current listing.
func (h *Handler) ListAlerts(c *gin.Context) {
	feed := h.session(c)

	var (
		page alerts.Page
		ok   bool
	)
	if c.Query("more") == "1" {
		page, ok = feed.Next(c.Request.Context())
	} else {
		filters := query.Filters{
			Type:         c.DefaultQuery("type", query.All),
			Species:      c.DefaultQuery("species", query.All),
			Neighborhood: c.DefaultQuery("neighborhood", query.All),
		}
		page, ok = feed.First(c.Request.Context(), filters)
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "a page is already loading"})
		return
	}
	if page.Failure != nil {
		abortWithFailure(c, page.Failure)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": page.Records,
		"hasMore": page.HasMore,
		"filters": feed.State().Snapshot().Filters,
	})
}

// RecentAlerts handles GET /api/alerts/recent.
func (h *Handler) RecentAlerts(c *gin.Context) {
	n := h.recentLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		n = v
	}
	c.JSON(http.StatusOK, h.repo.ListRecent(c.Request.Context(), n))
}

type alertResponse struct {
	model.Alert
	ShareText   string `json:"shareText"`
	ContactLink string `json:"contactLink"`
}

// GetAlert handles GET /api/alerts/:id.
func (h *Handler) GetAlert(c *gin.Context) {
	a := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found."})
		return
	}
	link := strings.TrimRight(h.publicURL, "/") + "/#/alert/" + a.ID
	c.JSON(http.StatusOK, alertResponse{
		Alert:       *a,
		ShareText:   alerts.ShareText(*a, link),
		ContactLink: alerts.ContactLink(*a),
	})
}

// CreateAlert handles POST /api/alerts, a multipart form with the alert
// fields and a photo file.
func (h *Handler) CreateAlert(c *gin.Context) {
	var form alerts.NewAlert
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, f := readPhoto(c)
	if f != nil {
		abortWithFailure(c, f)
		return
	}

	res := h.submitter.Submit(c.Request.Context(), alerts.Submission{Alert: form, Photo: file}, nil)
	if res.Failure != nil {
		abortWithFailure(c, res.Failure)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": res.ID})
}

// readPhoto loads the optional "photo" part. A missing part yields a nil
// file, which the submission flow rejects with its own message.
func readPhoto(c *gin.Context) (*photo.File, *failure.Failure) {
	fh, err := c.FormFile("photo")
	if err != nil {
		return nil, nil
	}
	if fh.Size > photo.MaxFileSize {
		return nil, failure.Validation("photo", "Photo too large. Maximum 5MB")
	}
	src, err := fh.Open()
	if err != nil {
		return nil, failure.Validation("photo", "Photo is required")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, failure.Validation("photo", "Photo is required")
	}
	return photo.NewFile(fh.Filename, fh.Header.Get("Content-Type"), data), nil
}

type reportRequest struct {
	Reason string `json:"reason"`
}

// ReportAlert handles POST /api/alerts/:id/reports.
func (h *Handler) ReportAlert(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if res := h.repo.Report(c.Request.Context(), c.Param("id"), req.Reason); res.Failure != nil {
		abortWithFailure(c, res.Failure)
		return
	}
	c.Status(http.StatusCreated)
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.Stats(c.Request.Context()))
}

// GetConfig handles GET /api/config.
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.siteConfig(c))
}

func (h *Handler) siteConfig(c *gin.Context) siteconfig.Document {
	if h.config == nil {
		return siteconfig.Default()
	}
	return h.config.Load(c.Request.Context())
}
