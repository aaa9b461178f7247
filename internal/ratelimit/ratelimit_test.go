package ratelimit

import (
	"testing"
	"time"
)

func TestAllowBurstThenDeny(t *testing.T) {
	l := NewInMemoryLimiter(1, time.Hour, 2)

	if !l.Allow("10.0.0.1") {
		t.Error("first request should be allowed")
	}
	if !l.Allow("10.0.0.1") {
		t.Error("second request within burst should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Error("third request should be denied until tokens refill")
	}
}

func TestAllowTracksClientsIndependently(t *testing.T) {
	l := NewInMemoryLimiter(1, time.Hour, 1)

	if !l.Allow("10.0.0.1") {
		t.Error("first client should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Error("first client should be exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second client has its own bucket")
	}
}
