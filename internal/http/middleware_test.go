package http

import (
	"fmt"
	"testing"
	"time"
)

func TestRateLimiterLimit(t *testing.T) {
	rl := newRateLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied within limit", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("request over the limit allowed")
	}
	// Other clients have their own window.
	if !rl.allow("10.0.0.2") {
		t.Fatal("separate client denied")
	}
}

func TestRateLimiterSweepsStaleClients(t *testing.T) {
	rl := newRateLimiter(60)

	stale := time.Now().Add(-5 * time.Minute)
	for i := 0; i < 100; i++ {
		rl.clients[fmt.Sprintf("10.0.%d.1", i)] = &clientInfo{lastRequest: stale, requests: 1}
	}
	rl.lastSweep = stale

	if !rl.allow("10.0.200.1") {
		t.Fatal("fresh client denied")
	}
	if len(rl.clients) != 1 {
		t.Fatalf("stale clients not swept, map holds %d entries", len(rl.clients))
	}
	if _, ok := rl.clients["10.0.200.1"]; !ok {
		t.Fatal("fresh client missing after sweep")
	}
}
