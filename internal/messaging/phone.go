package messaging

import "strings"

// SplitChannel separates a channel-prefixed address like "whatsapp:+91..."
// into the channel and the bare number. Addresses without a prefix come
// back with an empty channel.
func SplitChannel(address string) (channel, number string) {
	address = strings.TrimSpace(address)
	if i := strings.IndexByte(address, ':'); i >= 0 {
		return address[:i], address[i+1:]
	}
	return "", address
}

// JoinChannel re-applies a channel prefix for outbound addressing.
func JoinChannel(channel, number string) string {
	if channel == "" {
		return number
	}
	return channel + ":" + number
}

// NormalizeE164 ensures the value begins with + and only contains digits afterward.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	digits := sanitizePhone(value)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

func sanitizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
