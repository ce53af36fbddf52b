package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"

	"github.com/academykit/intake-bot/internal/catalog"
	"github.com/academykit/intake-bot/internal/conversation"
	"github.com/academykit/intake-bot/internal/leads"
	"github.com/academykit/intake-bot/internal/messaging"
	"github.com/academykit/intake-bot/internal/session"
	"github.com/academykit/intake-bot/pkg/logging"
)

type noopMessenger struct{}

func (noopMessenger) Send(ctx context.Context, msg messaging.OutboundMessage) error {
	if msg.To == "" {
		return errors.New("missing recipient")
	}
	return nil
}

func newTestRouter(t *testing.T, operatorToken string) http.Handler {
	t.Helper()
	logger := logging.Default()
	engine := conversation.NewEngine(catalog.Default(), "Academy")
	store := session.NewMemoryStore()
	repo := leads.NewInMemoryRepository()
	submitter := leads.NewSubmitter(repo, logger, nil)
	dispatcher := messaging.NewDispatcher(noopMessenger{}, "whatsapp", logger, nil)
	handler := messaging.NewHandler("", store, engine, submitter, dispatcher, logger, nil)

	reg := prometheus.NewRegistry()
	return New(&Config{
		Logger:           logger,
		MessagingHandler: handler,
		LeadsHandler:     leads.NewHandler(repo, logger),
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		OperatorToken:    operatorToken,
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t, "tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouterWebhookIsPublic(t *testing.T) {
	r := newTestRouter(t, "tok")

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("Body", "hi")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<Response>")
}

func TestRouterBroadcastRequiresToken(t *testing.T) {
	r := newTestRouter(t, "tok")

	req := httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader(`{"numbers":["+911"],"message":"hi"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader(`{"numbers":["+911"],"message":"hi"}`))
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sent":1`)
}

func TestRouterAdminLeadsRequiresToken(t *testing.T) {
	r := newTestRouter(t, "tok")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterOperatorDisabledWithoutToken(t *testing.T) {
	r := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterMetrics(t *testing.T) {
	r := newTestRouter(t, "tok")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
