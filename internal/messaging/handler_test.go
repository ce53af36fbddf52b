package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academykit/intake-bot/internal/catalog"
	"github.com/academykit/intake-bot/internal/conversation"
	"github.com/academykit/intake-bot/internal/leads"
	"github.com/academykit/intake-bot/internal/session"
	"github.com/academykit/intake-bot/pkg/logging"
)

func newTestHandler(t *testing.T, repo leads.Repository) (*Handler, *session.MemoryStore) {
	t.Helper()
	logger := logging.Default()
	store := session.NewMemoryStore()
	engine := conversation.NewEngine(catalog.Default(), "Commerce Excellence Academy")

	var submitter *leads.Submitter
	if repo != nil {
		submitter = leads.NewSubmitter(repo, logger, nil)
	}
	dispatcher := NewDispatcher(&fakeMessenger{}, "whatsapp", logger, nil)

	return NewHandler("", store, engine, submitter, dispatcher, logger, nil), store
}

func postTurn(t *testing.T, h *Handler, from, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	form := url.Values{}
	form.Set("MessageSid", "SM-test")
	form.Set("From", from)
	form.Set("To", "whatsapp:+14155238886")
	form.Set("Body", body)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.WhatsAppWebhook(w, req)

	if w.Code != http.StatusOK {
		return w, ""
	}
	var reply twimlResponse
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &reply))
	return w, reply.Message
}

func TestWebhookFirstContact(t *testing.T) {
	h, store := newTestHandler(t, nil)

	w, reply := postTurn(t, h, "whatsapp:+919876543210", "hello there")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.Contains(t, reply, "Commerce Excellence Academy")
	assert.Contains(t, reply, "1. CA Foundation")

	// The session key is the bare number, channel prefix stripped.
	sess, found := store.Peek(context.Background(), "+919876543210")
	require.True(t, found)
	assert.Equal(t, session.StepCourseSelect, sess.Step)
}

func TestWebhookMissingSender(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	form := url.Values{}
	form.Set("Body", "hi")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.WhatsAppWebhook(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookInvalidCourseIsNotAnHTTPError(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	const from = "whatsapp:+919876543210"

	postTurn(t, h, from, "hi")
	w, reply := postTurn(t, h, from, "99")

	assert.Equal(t, http.StatusOK, w.Code, "bad input re-prompts, never errors")
	assert.Contains(t, reply, "between 1 and 5")
}

func TestWebhookFullIntakeFlow(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h, store := newTestHandler(t, repo)
	const from = "whatsapp:+919876543210"

	_, reply := postTurn(t, h, from, "hi")
	require.Contains(t, reply, "course number")

	_, reply = postTurn(t, h, from, "2")
	require.Contains(t, reply, "CA Intermediate")

	_, reply = postTurn(t, h, from, "1")
	require.Contains(t, reply, "full name")

	_, reply = postTurn(t, h, from, "Asha")
	require.Contains(t, reply, "email")

	_, reply = postTurn(t, h, from, "a@x.com")
	require.Contains(t, reply, "phone number")

	_, reply = postTurn(t, h, from, "9999999999")
	require.Contains(t, reply, "Thank you, Asha!")

	// Exactly one lead lands, with the fields entered during the flow.
	require.Eventually(t, func() bool { return repo.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	recent, err := repo.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	rec := recent[0]
	assert.Equal(t, "+919876543210", rec.Sender)
	assert.Equal(t, "Asha", rec.Name)
	assert.Equal(t, "a@x.com", rec.Email)
	assert.Equal(t, "9999999999", rec.Phone)
	assert.Equal(t, "CA Intermediate", rec.CourseName)
	assert.Equal(t, "₹35,000", rec.CourseFee)
	assert.Equal(t, leads.StatusNewLead, rec.Status)

	// Session reset: next message starts over.
	sess, found := store.Peek(context.Background(), "+919876543210")
	require.True(t, found)
	assert.Equal(t, session.Session{}, sess)
}

type blockedRepository struct {
	mu    sync.Mutex
	calls int
}

func (r *blockedRepository) Append(ctx context.Context, rec *leads.LeadRecord) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return errors.New("lead store offline")
}

func (r *blockedRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestWebhookLeadStoreFailureInvisibleToSender(t *testing.T) {
	repo := &blockedRepository{}
	h, store := newTestHandler(t, repo)
	const from = "whatsapp:+917000000000"

	for _, input := range []string{"hi", "3", "1", "Ravi", "r@x.com"} {
		postTurn(t, h, from, input)
	}
	w, reply := postTurn(t, h, from, "8888888888")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, reply, "Thank you, Ravi!", "confirmation goes out despite the store outage")

	sess, _ := store.Peek(context.Background(), "+917000000000")
	assert.Equal(t, session.Session{}, sess, "session still resets")

	require.Eventually(t, func() bool { return repo.callCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebhookSignatureEnforcedWhenConfigured(t *testing.T) {
	logger := logging.Default()
	store := session.NewMemoryStore()
	engine := conversation.NewEngine(catalog.Default(), "Academy")
	h := NewHandler("auth-token", store, engine, nil, nil, logger, nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+91999")
	form.Set("Body", "hi")
	req := httptest.NewRequest(http.MethodPost, "https://bot.example.com/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.WhatsAppWebhook(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	signed := signedRequest(t, "https://bot.example.com/webhooks/whatsapp", "auth-token", form)
	w = httptest.NewRecorder()
	h.WhatsAppWebhook(w, signed)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookDistinctSendersAreIsolated(t *testing.T) {
	h, store := newTestHandler(t, nil)

	postTurn(t, h, "whatsapp:+911111111111", "hi")
	postTurn(t, h, "whatsapp:+911111111111", "2")

	postTurn(t, h, "whatsapp:+922222222222", "hi")

	one, _ := store.Peek(context.Background(), "+911111111111")
	two, _ := store.Peek(context.Background(), "+922222222222")
	assert.Equal(t, session.StepCourseReply, one.Step)
	assert.Equal(t, "2", one.CourseCode)
	assert.Equal(t, session.StepCourseSelect, two.Step)
	assert.Empty(t, two.CourseCode)
}

func TestBroadcastEndpoint(t *testing.T) {
	logger := logging.Default()
	messenger := &fakeMessenger{failFor: map[string]error{
		"whatsapp:+912": errors.New("blocked"),
	}}
	dispatcher := NewDispatcher(messenger, "whatsapp", logger, nil)
	store := session.NewMemoryStore()
	engine := conversation.NewEngine(catalog.Default(), "Academy")
	h := NewHandler("", store, engine, nil, dispatcher, logger, nil)

	body, _ := json.Marshal(BroadcastRequest{
		Numbers: []string{"+911", "+912", "+913"},
		Message: "Admissions open!",
	})
	req := httptest.NewRequest(http.MethodPost, "/broadcast", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Broadcast(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var summary BroadcastSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 3, summary.Total)
	require.Len(t, summary.Results, 3)
	assert.Equal(t, BroadcastStatusFailed, summary.Results[1].Status)
	assert.Equal(t, "blocked", summary.Results[1].Error)
}

func TestBroadcastEndpointBadJSON(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.Broadcast(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
