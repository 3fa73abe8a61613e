// Package notifier implements the update-notifier transport (C9): a
// websocket hub that pushes per-asset updates to connected clients after
// each successful rebuild.
package notifier

import (
	"sync"
	"time"

	"github.com/coder/websocket"
)

// client represents one connected websocket client.
type client struct {
	conn         *websocket.Conn
	send         chan []byte
	lastActivity time.Time
	limiter      *slidingWindowLimiter
}

// updateMessage is the wire format of spec.md §6:
//
//	{"type":"update","assets":[{"id":<int>,"generated":{...},"deps":{...}}]}
type updateMessage struct {
	Type   string          `json:"type"`
	Assets []assetUpdate   `json:"assets"`
}

type assetUpdate struct {
	ID        uint64            `json:"id"`
	Generated map[string]string `json:"generated"`
	Deps      map[string]uint64 `json:"deps"`
}

// slidingWindowLimiter caps messages-per-window for one client or IP,
// grounded on the teacher's per-IP IPConnectionTracker message-rate idea
// but simplified to one counter reset on a ticking window.
type slidingWindowLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	count     int
	windowEnd time.Time
}

func newSlidingWindowLimiter(limit int, window time.Duration) *slidingWindowLimiter {
	return &slidingWindowLimiter{limit: limit, window: window, windowEnd: time.Now().Add(window)}
}

func (l *slidingWindowLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.windowEnd) {
		l.count = 0
		l.windowEnd = now.Add(l.window)
	}
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}

// OriginValidator validates the Origin header of an incoming websocket
// upgrade request.
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// AllowAllOrigins is the permissive default, suitable for local
// development where the bundler's dev server and the browser share a
// single trusted origin space.
type AllowAllOrigins struct{}

// IsAllowedOrigin implements OriginValidator.
func (AllowAllOrigins) IsAllowedOrigin(string) bool { return true }
