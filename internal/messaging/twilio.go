package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// WebhookRequest is one inbound message as Twilio delivers it: form-encoded
// Body plus channel-prefixed From/To addresses.
type WebhookRequest struct {
	MessageSid string
	From       string
	To         string
	Body       string
}

// ParseWebhook reads the form fields of an inbound message webhook.
func ParseWebhook(r *http.Request) (*WebhookRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: parse form: %w", err)
	}
	return &WebhookRequest{
		MessageSid: r.FormValue("MessageSid"),
		From:       r.FormValue("From"),
		To:         r.FormValue("To"),
		Body:       r.FormValue("Body"),
	}, nil
}

// ValidateSignature checks the X-Twilio-Signature header: HMAC-SHA1 over
// the webhook URL concatenated with the sorted form parameters.
func ValidateSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	expected := computeSignature(signaturePayload(webhookURL, r.PostForm), authToken)
	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}

func signaturePayload(url string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
