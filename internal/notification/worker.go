package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"pataalerta/internal/metrics"
	"pataalerta/internal/model"
	"pataalerta/internal/parse"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// AlertLookup loads the alert a job refers to.
type AlertLookup interface {
	GetAlert(ctx context.Context, id string) (model.Alert, error)
}

// Message is the JSON payload the service worker receives.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
}

// WorkerPool sends new-alert notifications to the subscribers of the alert's
// neighborhood.
type WorkerPool struct {
	size    int
	jobs    chan string
	subs    *Subscriptions
	alerts  AlertLookup
	webpush *webpush.Options
	sender  NotificationSender
	metrics *metrics.Metrics
}

// NewWorkerPool creates a new worker pool. The job queue holds size*8 alert ids.
func NewWorkerPool(size int, db *gorm.DB, alerts AlertLookup, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*8),
		subs:    NewSubscriptions(db),
		alerts:  alerts,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

func (wp *WorkerPool) WithMetrics(m *metrics.Metrics) *WorkerPool {
	wp.metrics = m
	return wp
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case alertID := <-wp.jobs:
			log.Printf("Worker %d processing alert %s", id, alertID)
			wp.sendNotificationsForAlert(ctx, alertID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an alert for notification without blocking. When the queue
// is full the job is dropped.
func (wp *WorkerPool) Dispatch(alertID string) {
	select {
	case wp.jobs <- alertID:
	default:
		log.Printf("Notification queue full, dropping alert %s", alertID)
		wp.metrics.PushSent("dropped")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

func (wp *WorkerPool) sendNotificationsForAlert(ctx context.Context, alertID string) {
	alert, err := wp.alerts.GetAlert(ctx, alertID)
	if err != nil {
		log.Printf("Error fetching alert %s: %v", alertID, err)
		return
	}
	if alert.Status != model.StatusActive {
		return
	}

	subscriptions, err := wp.subs.ForNeighborhood(ctx, alert.Neighborhood)
	if err != nil {
		log.Printf("Error fetching subscriptions for alert %s: %v", alertID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for alert %s", len(subscriptions), alertID)
	payload, err := json.Marshal(MessageFor(alert))
	if err != nil {
		log.Printf("Error encoding notification for alert %s: %v", alertID, err)
		return
	}
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

var typeLabels = map[model.AlertType]string{
	model.TypeLost:     "Lost",
	model.TypeFound:    "Found",
	model.TypeAdoption: "For adoption",
}

// MessageFor builds the notification shown for a new alert.
func MessageFor(a model.Alert) Message {
	label, ok := typeLabels[a.Type]
	if !ok {
		label = "New alert"
	}
	name := a.PetName
	if name == "" {
		name = parse.Capitalize(a.Species)
	}
	return Message{
		Title: fmt.Sprintf("%s in %s", label, a.Neighborhood),
		Body:  name + ": " + parse.Truncate(a.Description, 80),
		URL:   "#/alert/" + a.ID,
		Image: a.PhotoURL,
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		wp.metrics.PushSent("error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		wp.metrics.PushSent("gone")
		if err := wp.subs.Delete(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		return
	}
	wp.metrics.PushSent("ok")
}
