package api

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"pataalerta/internal/alerts"
)

// SessionHeader identifies the UI session a feed request belongs to.
const SessionHeader = "X-Session-ID"

const defaultSessionTTL = 30 * time.Minute

// Sessions keeps one Feed per UI session. A session idle for longer than its
// TTL is forgotten along with its filters and cursor.
type Sessions struct {
	mu       sync.Mutex
	feeds    *cache.Cache
	repo     *alerts.Repository
	pageSize int
}

func NewSessions(repo *alerts.Repository, pageSize int, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{
		feeds:    cache.New(ttl, 2*ttl),
		repo:     repo,
		pageSize: pageSize,
	}
}

// Feed returns the session's feed, creating it on first use. Every access
// restarts the idle timer.
func (s *Sessions) Feed(id string) *alerts.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, found := s.feeds.Get(id); found {
		s.feeds.SetDefault(id, f)
		return f.(*alerts.Feed)
	}
	f := alerts.NewFeed(s.repo, s.pageSize)
	s.feeds.SetDefault(id, f)
	return f
}

func (s *Sessions) Len() int {
	return s.feeds.ItemCount()
}

// session resolves the caller's session id, issuing a new one when the
// header is missing. The id is echoed back so the client can keep it.
func (h *Handler) session(c *gin.Context) *alerts.Feed {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(SessionHeader, id)
	return h.sessions.Feed(id)
}
