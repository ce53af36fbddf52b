package messaging

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/academykit/intake-bot/internal/conversation"
	"github.com/academykit/intake-bot/internal/leads"
	"github.com/academykit/intake-bot/internal/observability/metrics"
	"github.com/academykit/intake-bot/internal/session"
	"github.com/academykit/intake-bot/pkg/logging"
)

var webhookTracer = otel.Tracer("intakebot.internal.messaging.webhook")

// Handler serves the inbound conversation webhook and the operator
// broadcast endpoint.
type Handler struct {
	webhookSecret string
	sessions      session.Store
	engine        *conversation.Engine
	submitter     *leads.Submitter
	dispatcher    *Dispatcher
	logger        *logging.Logger
	metrics       *metrics.IntakeMetrics
}

// NewHandler wires the conversational core behind HTTP.
func NewHandler(
	webhookSecret string,
	sessions session.Store,
	engine *conversation.Engine,
	submitter *leads.Submitter,
	dispatcher *Dispatcher,
	logger *logging.Logger,
	m *metrics.IntakeMetrics,
) *Handler {
	if sessions == nil {
		panic("messaging: session store required")
	}
	if engine == nil {
		panic("messaging: engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		webhookSecret: webhookSecret,
		sessions:      sessions,
		engine:        engine,
		submitter:     submitter,
		dispatcher:    dispatcher,
		logger:        logger,
		metrics:       m,
	}
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// WhatsAppWebhook handles POST /webhooks/whatsapp. A malformed
// conversational turn never produces an HTTP error; only requests missing
// the transport fields do.
func (h *Handler) WhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := webhookTracer.Start(r.Context(), "messaging.whatsapp.webhook")
	defer span.End()

	if h.webhookSecret != "" {
		if !ValidateSignature(r, h.webhookSecret, buildAbsoluteURL(r)) {
			h.logger.Warn("invalid twilio signature")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			span.RecordError(errors.New("invalid twilio signature"))
			return
		}
	}

	webhook, err := ParseWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	_, sender := SplitChannel(webhook.From)
	if sender == "" {
		err := errors.New("missing sender address")
		h.logger.Error("invalid webhook payload", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		h.metrics.ObserveWebhookLatency("bad_request", time.Since(start).Seconds())
		return
	}
	span.SetAttributes(
		attribute.String("intakebot.sender", sender),
		attribute.String("intakebot.message_sid", webhook.MessageSid),
	)

	var (
		res         conversation.Result
		handledStep session.Step
	)
	if err := h.sessions.Update(ctx, sender, func(s *session.Session) error {
		handledStep = s.Step
		res = h.engine.Step(s, webhook.Body)
		return nil
	}); err != nil {
		h.logger.Error("session update failed", "error", err, "sender", sender)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		span.RecordError(err)
		h.metrics.ObserveInbound(handledStep.String(), "error")
		h.metrics.ObserveWebhookLatency("error", time.Since(start).Seconds())
		return
	}

	if res.Completed != nil {
		rec := leads.NewRecord(sender, res.Completed.Name, res.Completed.Email, res.Completed.Phone, res.Completed.Course)
		if h.submitter != nil {
			// Off the critical path: the reply goes out whether or not
			// the lead store is reachable.
			h.submitter.SubmitAsync(rec)
		}
		h.logger.Info("intake completed", "sender", sender, "course", rec.CourseName)
	}

	h.metrics.ObserveInbound(handledStep.String(), "ok")
	h.metrics.ObserveWebhookLatency("ok", time.Since(start).Seconds())
	writeTwiML(w, res.Reply)
}

// BroadcastRequest is the operator-facing JSON body.
type BroadcastRequest struct {
	Numbers []string `json:"numbers"`
	Message string   `json:"message"`
}

// Broadcast handles POST /broadcast.
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		http.Error(w, "broadcast not configured", http.StatusServiceUnavailable)
		return
	}

	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode broadcast request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary := h.dispatcher.Broadcast(r.Context(), req.Numbers, req.Message)
	h.logger.Info("broadcast finished", "sent", summary.Sent, "total", summary.Total)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func writeTwiML(w http.ResponseWriter, reply string) {
	body, err := xml.Marshal(twimlResponse{Message: reply})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, xml.Header+string(body))
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
