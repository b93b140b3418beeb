package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cliniks/academy-notify/internal/domain"
	ws "github.com/cliniks/academy-notify/internal/websocket"
)

const (
	userAgent       = "CliniksAcademy-Webhooks/1.0"
	signatureHeader = "X-Signature"
)

// SubscriptionSource resolves the set of destinations eligible for an
// event. Satisfied by store.PostgresStore; swapped for a fake in tests.
type SubscriptionSource interface {
	ListActiveWebhooks(ctx context.Context, event string) ([]domain.Webhook, error)
}

// DeliveryResult is the outcome of one delivery attempt. A transport
// failure leaves Status zero and carries the error message instead.
type DeliveryResult struct {
	WebhookID string `json:"webhook_id"`
	Status    int    `json:"status"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Result aggregates one dispatch call.
type Result struct {
	Sent    int              `json:"sent"`
	Results []DeliveryResult `json:"results"`
}

// Dispatcher delivers an event to every matching webhook destination.
// Deliveries within one dispatch run concurrently under a fixed cap; each
// outcome is recorded independently and a failed destination never affects
// the others. There is no retry and no delivery history — one attempt per
// destination per dispatch.
type Dispatcher struct {
	subs        SubscriptionSource
	limiter     *RateLimiter
	hub         *ws.Hub
	httpClient  *http.Client
	logger      *slog.Logger
	maxInFlight int
}

// NewDispatcher creates a dispatcher. The timeout bounds each outbound
// delivery call; maxInFlight caps concurrent deliveries within one
// dispatch. limiter and hub may be nil.
func NewDispatcher(subs SubscriptionSource, limiter *RateLimiter, hub *ws.Hub, logger *slog.Logger, timeout time.Duration, maxInFlight int) *Dispatcher {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Dispatcher{
		subs:        subs,
		limiter:     limiter,
		hub:         hub,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		maxInFlight: maxInFlight,
	}
}

// Dispatch sends the event to every active webhook subscribed to it and
// waits for all attempts to finish. A subscription-load failure aborts
// before any outbound call.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, data json.RawMessage) (*Result, error) {
	webhooks, err := d.subs.ListActiveWebhooks(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("loading webhook subscriptions: %w", err)
	}

	if len(webhooks) == 0 {
		d.logger.Info("no matching webhooks", "event", event)
		return &Result{Sent: 0, Results: []DeliveryResult{}}, nil
	}

	results := make([]DeliveryResult, len(webhooks))
	sem := make(chan struct{}, d.maxInFlight)
	var wg sync.WaitGroup

	for i, wh := range webhooks {
		wg.Add(1)
		go func(i int, wh domain.Webhook) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = d.deliver(ctx, event, data, wh)
		}(i, wh)
	}

	wg.Wait()

	d.logger.Info("dispatch complete",
		"event", event,
		"sent", len(webhooks),
	)

	return &Result{Sent: len(webhooks), Results: results}, nil
}

// deliver performs one signed delivery attempt.
func (d *Dispatcher) deliver(ctx context.Context, event string, data json.RawMessage, wh domain.Webhook) DeliveryResult {
	start := time.Now()

	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	env := Envelope{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
		WebhookID: wh.ID,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return d.record(event, wh, start, nil, fmt.Sprintf("marshaling envelope: %v", err))
	}

	if d.limiter != nil && wh.RateLimitPerSecond > 0 {
		if err := d.limiter.Wait(ctx, wh.ID, wh.RateLimitPerSecond); err != nil {
			return d.record(event, wh, start, nil, fmt.Sprintf("waiting for delivery slot: %v", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return d.record(event, wh, start, nil, fmt.Sprintf("creating request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if wh.Secret != "" {
		req.Header.Set(signatureHeader, Sign(body, wh.Secret))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return d.record(event, wh, start, nil, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return d.record(event, wh, start, &resp.StatusCode, "")
}

// record builds the delivery result, logs it, and pushes it to the
// activity hub.
func (d *Dispatcher) record(event string, wh domain.Webhook, start time.Time, statusCode *int, errMsg string) DeliveryResult {
	elapsed := time.Since(start).Milliseconds()

	result := DeliveryResult{WebhookID: wh.ID}
	if statusCode != nil {
		result.Status = *statusCode
		result.Success = *statusCode >= 200 && *statusCode < 300
	}
	if errMsg != "" {
		result.Error = errMsg
		result.Success = false
	}

	activityType := ws.ActivityWebhookDelivered
	if result.Success {
		d.logger.Info("webhook delivered",
			"event", event,
			"webhook_id", wh.ID,
			"status_code", result.Status,
			"response_time_ms", elapsed,
		)
	} else {
		activityType = ws.ActivityWebhookFailed
		d.logger.Warn("webhook delivery failed",
			"event", event,
			"webhook_id", wh.ID,
			"status_code", result.Status,
			"error", errMsg,
			"response_time_ms", elapsed,
		)
	}

	if d.hub != nil {
		d.hub.Broadcast(ws.ActivityEvent{
			Type:       activityType,
			Event:      event,
			WebhookID:  wh.ID,
			URL:        wh.URL,
			StatusCode: statusCode,
			Error:      errMsg,
			Timestamp:  time.Now().UTC(),
		})
	}

	return result
}
