package photo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payload is what a Host transmits: the compressed image and its object name.
type Payload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ProgressFunc is called by a Host as bytes reach the wire.
type ProgressFunc func(sent, total int64)

// Host is a remote photo hosting service.
type Host interface {
	// Configured reports whether credentials and endpoint are present.
	Configured() bool
	// Upload transmits p and returns its public URL. Rejections by the
	// service are returned as *BackendError; anything else is treated as a
	// transport failure.
	Upload(ctx context.Context, p Payload, progress ProgressFunc) (string, error)
}

// ObjectName returns a unique object name of the form alerts/<ms>_<6 chars>.jpg.
func ObjectName(now time.Time) string {
	suffix := uuid.NewString()[:6]
	return fmt.Sprintf("alerts/%d_%s.jpg", now.UnixMilli(), suffix)
}
