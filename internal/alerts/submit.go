package alerts

import (
	"context"
	"fmt"
	"sync/atomic"

	"pataalerta/internal/failure"
	"pataalerta/internal/photo"
	"pataalerta/internal/siteconfig"
)

// Uploader turns a raw photo into a hosted URL.
type Uploader interface {
	Upload(ctx context.Context, f *photo.File, obs photo.Observer) photo.Result
}

// ConfigLoader supplies the site configuration.
type ConfigLoader interface {
	Load(ctx context.Context) siteconfig.Document
}

// Submission is a filled-in form plus the selected photo.
type Submission struct {
	Alert NewAlert
	Photo *photo.File
}

// Submitter runs the whole publish flow: form check, daily limit, photo
// upload and insert. Only one submission runs at a time.
type Submitter struct {
	repo     *Repository
	uploader Uploader
	config   ConfigLoader
	pending  atomic.Bool
}

func NewSubmitter(repo *Repository, uploader Uploader, config ConfigLoader) *Submitter {
	return &Submitter{repo: repo, uploader: uploader, config: config}
}

func (s *Submitter) Submit(ctx context.Context, sub Submission, obs photo.Observer) CreateResult {
	form := sub.Alert
	if sub.Photo != nil {
		form.PhotoURL = sub.Photo.Name
	}
	if fs := ValidateNewAlert(form); len(fs) > 0 {
		s.repo.metrics.AlertFailed(string(failure.ValidationFailure))
		return CreateResult{Failure: fs[0]}
	}

	if !s.pending.CompareAndSwap(false, true) {
		s.repo.metrics.QuotaRejected()
		return CreateResult{Failure: failure.Quota("Another alert is still being published. Wait for it to finish.")}
	}
	defer s.pending.Store(false)

	doc := siteconfig.Default()
	if s.config != nil {
		doc = s.config.Load(ctx)
	}
	if s.repo.quota != nil && s.repo.quota.HasReachedDailyLimit(doc.DailyLimit) {
		s.repo.metrics.QuotaRejected()
		return CreateResult{Failure: failure.Quota(
			fmt.Sprintf("You reached the limit of %d alerts per day. Try again tomorrow.", doc.DailyLimit))}
	}

	if s.uploader == nil {
		return CreateResult{Failure: failure.Unconfigured("Photo upload is not configured.")}
	}
	up := s.uploader.Upload(ctx, sub.Photo, obs)
	if !up.Success {
		s.repo.metrics.PhotoUploaded(string(up.Failure.Kind))
		return CreateResult{Failure: up.Failure}
	}
	s.repo.metrics.PhotoUploaded("ok")

	n := sub.Alert
	n.PhotoURL = up.URL
	return s.repo.create(ctx, n, doc.ExpirationDays)
}
