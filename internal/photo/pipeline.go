package photo

import (
	"context"
	"errors"
	"log"
	"time"

	"pataalerta/internal/failure"
)

// DefaultTimeout bounds the network phase of an upload.
const DefaultTimeout = 30 * time.Second

// Result is the outcome of an upload. Failure is nil on success.
type Result struct {
	Success bool             `json:"success"`
	URL     string           `json:"url,omitempty"`
	Failure *failure.Failure `json:"failure,omitempty"`
}

func failed(f *failure.Failure) Result {
	return Result{Failure: f}
}

// Pipeline validates, compresses and uploads photos to a Host.
type Pipeline struct {
	host    Host
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Pipeline)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithClock sets the clock used for object names.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(host Host, opts ...Option) *Pipeline {
	p := &Pipeline{host: host, timeout: DefaultTimeout, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Upload runs one upload. obs may be nil. There is no retry; the caller
// decides whether to try again.
func (p *Pipeline) Upload(ctx context.Context, f *File, obs Observer) Result {
	if p.host == nil || !p.host.Configured() {
		return failed(failure.Unconfigured("Photo upload is not configured."))
	}
	if vf := Validate(f); vf != nil {
		return failed(vf)
	}

	tr := newTracker(obs)
	defer tr.stop()

	payload := Payload{Name: ObjectName(p.now()), ContentType: "image/jpeg", Data: f.Data}
	if c, err := Compress(f.Data); err != nil {
		log.Printf("photo: sending original bytes of %q: %v", f.Name, err)
		payload.ContentType = f.ContentType
	} else {
		payload.Data = c.Data
	}
	tr.report(PreparedPercent)

	uctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url, err := p.host.Upload(uctx, payload, tr.transfer)
	if err != nil {
		return failed(p.classify(ctx, uctx, err))
	}
	if url == "" {
		return failed(Translate(&BackendError{Code: Unknown, Raw: "missing_url"}))
	}
	tr.complete()
	return Result{Success: true, URL: url}
}

func (p *Pipeline) classify(parent, uctx context.Context, err error) *failure.Failure {
	var be *BackendError
	switch {
	case errors.As(err, &be):
		return Translate(be)
	case parent.Err() != nil && errors.Is(parent.Err(), context.Canceled):
		return failure.Network("Upload canceled.")
	case errors.Is(uctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return failure.Timeout("Upload took too long. Check your connection and try again.")
	default:
		log.Printf("photo: upload failed: %v", err)
		return failure.Network("Network error while uploading photo. Check your connection.")
	}
}
