package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/hanhtrang/lop1-engine/internal/leaderboard"
)

const feedWriteTimeout = 5 * time.Second

// FeedEvent is one message on the live feed.
type FeedEvent struct {
	Type    string              `json:"type"` // "leaderboard"
	Summary leaderboard.Summary `json:"summary"`
}

// Feed fans leaderboard updates out to connected teacher dashboards over
// websockets. A subscriber that cannot keep up gets dropped rather than
// blocking the rest.
type Feed struct {
	mu   sync.Mutex
	subs map[chan FeedEvent]struct{}
}

// NewFeed creates an empty feed hub.
func NewFeed() *Feed {
	return &Feed{subs: make(map[chan FeedEvent]struct{})}
}

// Broadcast publishes one event to every subscriber.
func (f *Feed) Broadcast(ev FeedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber: close its channel, the serve loop exits
			delete(f.subs, ch)
			close(ch)
		}
	}
}

func (f *Feed) subscribe() chan FeedEvent {
	ch := make(chan FeedEvent, 16)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *Feed) unsubscribe(ch chan FeedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
}

// ServeHTTP upgrades the request to a websocket and streams feed events
// until the client goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ch := f.subscribe()
	defer f.unsubscribe(ch)

	// read loop exists only to notice the client closing
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusPolicyViolation, "too slow")
				return
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				slog.Debug("feed write failed", "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev FeedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
