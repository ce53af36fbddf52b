package messaging

import (
	"context"

	"github.com/academykit/intake-bot/internal/observability/metrics"
	"github.com/academykit/intake-bot/pkg/logging"
)

// Per-recipient broadcast outcomes.
const (
	BroadcastStatusSent   = "sent"
	BroadcastStatusFailed = "failed"
)

// BroadcastResult is the outcome for one recipient.
type BroadcastResult struct {
	Number string `json:"number"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BroadcastSummary aggregates one broadcast run. Results holds exactly one
// entry per requested recipient, in request order.
type BroadcastSummary struct {
	Sent    int               `json:"sent"`
	Total   int               `json:"total"`
	Results []BroadcastResult `json:"results"`
}

// Dispatcher pushes one message to a batch of recipients, at most once
// each: no retry, no backoff. One recipient failing never stops the rest.
type Dispatcher struct {
	messenger Messenger
	channel   string
	logger    *logging.Logger
	metrics   *metrics.IntakeMetrics
}

// NewDispatcher builds a dispatcher sending through the given messenger.
// channel prefixes recipient numbers for outbound addressing, e.g. "whatsapp".
func NewDispatcher(messenger Messenger, channel string, logger *logging.Logger, m *metrics.IntakeMetrics) *Dispatcher {
	if messenger == nil {
		panic("messaging: messenger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{messenger: messenger, channel: channel, logger: logger, metrics: m}
}

// Broadcast sends the message to every recipient in order.
func (d *Dispatcher) Broadcast(ctx context.Context, numbers []string, message string) BroadcastSummary {
	summary := BroadcastSummary{
		Total:   len(numbers),
		Results: make([]BroadcastResult, 0, len(numbers)),
	}
	for _, number := range numbers {
		// The result echoes the number as requested; only the outbound
		// address is normalized.
		to := NormalizeE164(number)
		if to == "" {
			to = number
		}
		err := d.messenger.Send(ctx, OutboundMessage{
			To:   JoinChannel(d.channel, to),
			Body: message,
		})
		if err != nil {
			d.metrics.ObserveBroadcastSend(BroadcastStatusFailed)
			d.logger.Warn("broadcast send failed", "number", number, "error", err)
			summary.Results = append(summary.Results, BroadcastResult{
				Number: number,
				Status: BroadcastStatusFailed,
				Error:  err.Error(),
			})
			continue
		}
		d.metrics.ObserveBroadcastSend(BroadcastStatusSent)
		d.logger.Info("broadcast sent", "number", number)
		summary.Sent++
		summary.Results = append(summary.Results, BroadcastResult{
			Number: number,
			Status: BroadcastStatusSent,
		})
	}
	return summary
}
