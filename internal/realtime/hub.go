package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

const (
	outboundBuffer    = 32
	heartbeatInterval = 15 * time.Second
)

type SSEHub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	subscriptions map[string]map[*SSEClient]bool
}

func NewSSEHub(log *logger.Logger) *SSEHub {
	return &SSEHub{
		logger:        log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*SSEClient]bool),
	}
}

func (hub *SSEHub) NewSSEClient(sessionID string) *SSEClient {
	id := uuid.New()
	return &SSEClient{
		ID:        id,
		SessionID: sessionID,
		Channels:  make(map[string]bool),
		Outbound:  make(chan SSEMessage, outboundBuffer),
		done:      make(chan struct{}),
		Logger:    hub.logger.With("client_id", id),
	}
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()

	client.Channels[channel] = true
	clients, ok := hub.subscriptions[channel]
	if !ok {
		clients = make(map[*SSEClient]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true
	hub.logger.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for ch := range client.Channels {
		hub.unsubscribeLocked(client, ch)
	}
	client.Channels = make(map[string]bool)
}

func (hub *SSEHub) unsubscribeLocked(client *SSEClient, channel string) {
	if subMap, ok := hub.subscriptions[channel]; ok {
		delete(subMap, client)
		if len(subMap) == 0 {
			delete(hub.subscriptions, channel)
		}
	}
}

// Subscribers reports how many clients listen on channel.
func (hub *SSEHub) Subscribers(channel string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscriptions[channel])
}

func (hub *SSEHub) Broadcast(msg SSEMessage) {
	if msg.Channel == "" {
		return
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for c := range hub.subscriptions[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			hub.logger.Warn("Dropping SSE message; outbound buffer full", "client_id", c.ID, "event", msg.Event)
		}
	}
}

func (hub *SSEHub) Emit(channel string, event SSEEvent, data any) {
	hub.Broadcast(SSEMessage{Channel: channel, Event: event, Data: data})
}

func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.logger.Debug("SSE client context done", "client_id", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			// Flush what was queued before the close, typically the
			// SessionChanged event that caused it.
			for {
				select {
				case msg, ok := <-client.Outbound:
					if !ok {
						return
					}
					hub.write(w, msg)
				default:
					flusher.Flush()
					return
				}
			}
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			hub.write(w, msg)
			flusher.Flush()
		}
	}
}

// write frames one message. The data line carries only the payload; the
// event line names it.
func (hub *SSEHub) write(w http.ResponseWriter, msg SSEMessage) {
	raw, err := json.Marshal(msg.Data)
	if err != nil {
		hub.logger.Warn("Failed to marshal SSE message", "event", msg.Event, "error", err)
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, raw)
}

// CloseClient detaches the client and closes its outbound channel. Safe to
// call more than once.
func (hub *SSEHub) CloseClient(client *SSEClient) {
	client.closeOnce.Do(func() {
		close(client.done)
		hub.RemoveClient(client)
		close(client.Outbound)
	})
}

// CloseChannel disconnects every client subscribed to channel and reports
// how many there were.
func (hub *SSEHub) CloseChannel(channel string) int {
	hub.mu.RLock()
	clients := make([]*SSEClient, 0, len(hub.subscriptions[channel]))
	for c := range hub.subscriptions[channel] {
		clients = append(clients, c)
	}
	hub.mu.RUnlock()
	for _, c := range clients {
		hub.CloseClient(c)
	}
	return len(clients)
}

// CloseAll disconnects every client. The server calls it on shutdown so
// open streams do not hold the drain open.
func (hub *SSEHub) CloseAll() {
	hub.mu.RLock()
	seen := map[*SSEClient]bool{}
	for _, clients := range hub.subscriptions {
		for c := range clients {
			seen[c] = true
		}
	}
	hub.mu.RUnlock()
	for c := range seen {
		hub.CloseClient(c)
	}
}
