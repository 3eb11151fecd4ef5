package webhook

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/logger"
	"github.com/feral-file/nft-registry/internal/messaging"
	"github.com/feral-file/nft-registry/internal/metrics"
)

// Delivery headers
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderEventID   = "X-Webhook-Event-ID"
	HeaderEventType = "X-Webhook-Event-Type"
)

// maxBodyLength bounds the response body kept in a delivery result
const maxBodyLength = 4096

// Endpoint is a webhook receiver
type Endpoint struct {
	URL    string
	Secret string
	// EventTypes filters the delivered events. Empty means all.
	EventTypes []string
}

// Matches reports whether the endpoint subscribes to eventType
func (e Endpoint) Matches(eventType string) bool {
	if len(e.EventTypes) == 0 {
		return true
	}
	return slices.Contains(e.EventTypes, EventTypeWildcard) || slices.Contains(e.EventTypes, eventType)
}

// Config holds the notifier settings
type Config struct {
	Endpoints       []Endpoint
	MaxWorkers      int
	QueueSize       int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

type notifier struct {
	config  Config
	client  adapter.HTTPClient
	clock   adapter.Clock
	metrics *metrics.Metrics
	pool    pond.Pool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewNotifier creates a publisher delivering events to webhook endpoints.
// Deliveries run on a worker pool and are retried with exponential backoff.
func NewNotifier(cfg Config, client adapter.HTTPClient, clock adapter.Clock, m *metrics.Metrics) messaging.Publisher {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 5 * time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 80 * time.Second
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger.Info("Webhook notifier initialized",
		zap.Int("endpoints", len(cfg.Endpoints)),
		zap.Int("max_workers", cfg.MaxWorkers),
		zap.Int("queue_size", cfg.QueueSize),
	)

	return &notifier{
		config:  cfg,
		client:  client,
		clock:   clock,
		metrics: m,
		pool:    pond.NewPool(cfg.MaxWorkers, pond.WithQueueSize(cfg.QueueSize)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// PublishEvent queues a delivery to every endpoint subscribed to the event type
func (n *notifier) PublishEvent(ctx context.Context, event *domain.Event) error {
	whEvent := WebhookEvent{
		EventID:   event.ID,
		EventType: EventType(event.Kind),
		Timestamp: n.clock.Now().UTC(),
		Data:      event,
	}

	for _, endpoint := range n.config.Endpoints {
		if !endpoint.Matches(whEvent.EventType) {
			continue
		}

		n.pool.Submit(func() {
			result := n.deliver(n.ctx, endpoint, whEvent)
			if result.Success {
				n.metrics.IncrementDelivery("webhook", "ok")
				return
			}
			n.metrics.IncrementDelivery("webhook", "failed")
			logger.WarnCtx(ctx, "Webhook delivery failed",
				zap.String("url", endpoint.URL),
				zap.String("eventID", whEvent.EventID),
				zap.Int("statusCode", result.StatusCode),
				zap.String("error", result.Error),
			)
		})
	}

	return nil
}

// deliver posts the event to an endpoint, retrying transient failures
func (n *notifier) deliver(ctx context.Context, endpoint Endpoint, event WebhookEvent) DeliveryResult {
	var result DeliveryResult

	operation := func() error {
		payload, signature, timestamp, err := GenerateSignedPayload(endpoint.Secret, event, n.clock.Now())
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := n.client.Do(ctx, http.MethodPost, endpoint.URL, map[string]string{
			"Content-Type":  "application/json",
			HeaderSignature: signature,
			HeaderTimestamp: strconv.FormatInt(timestamp, 10),
			HeaderEventID:   event.EventID,
			HeaderEventType: event.EventType,
		}, payload)
		if err != nil {
			// Network errors are retryable
			result = DeliveryResult{Error: err.Error()}
			return err
		}

		body := resp.Body
		if len(body) > maxBodyLength {
			body = body[:maxBodyLength]
		}
		result = DeliveryResult{StatusCode: resp.StatusCode, Body: string(body)}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result.Success = true
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			result.Error = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
			return fmt.Errorf("%s", result.Error)
		default:
			result.Error = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
			return backoff.Permanent(fmt.Errorf("%s", result.Error))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = n.config.InitialInterval
	b.MaxInterval = n.config.MaxInterval
	b.MaxElapsedTime = n.config.MaxElapsedTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil && result.Error == "" {
		result.Error = err.Error()
	}

	return result
}

// Close waits for queued deliveries to finish
func (n *notifier) Close() {
	n.pool.StopAndWait()
	n.cancel()
}
