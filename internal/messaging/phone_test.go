package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChannel(t *testing.T) {
	tests := []struct {
		address     string
		wantChannel string
		wantNumber  string
	}{
		{"whatsapp:+919876543210", "whatsapp", "+919876543210"},
		{"sms:+15550001111", "sms", "+15550001111"},
		{"+919876543210", "", "+919876543210"},
		{"  whatsapp:+91999  ", "whatsapp", "+91999"},
		{"", "", ""},
	}
	for _, tt := range tests {
		channel, number := SplitChannel(tt.address)
		assert.Equal(t, tt.wantChannel, channel, "address %q", tt.address)
		assert.Equal(t, tt.wantNumber, number, "address %q", tt.address)
	}
}

func TestJoinChannel(t *testing.T) {
	assert.Equal(t, "whatsapp:+91999", JoinChannel("whatsapp", "+91999"))
	assert.Equal(t, "+91999", JoinChannel("", "+91999"))
}

func TestNormalizeE164(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizeE164("+91 98765 43210"))
	assert.Equal(t, "+5550001111", NormalizeE164("(555) 000-1111"))
	assert.Equal(t, "", NormalizeE164("   "))
	assert.Equal(t, "", NormalizeE164("no digits"))
}
