package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/realtime"
)

const publishTimeout = 2 * time.Second

// redisBus publishes each SSE channel on its own Redis channel under a shared
// prefix ("dubmyyt:sse:session:<sid>") and forwards with a pattern
// subscription, so redis-cli MONITOR output maps straight to browser sessions.
type redisBus struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string

	mu   sync.Mutex
	subs []*goredis.PubSub
}

// NewRedisBus shares rdb with the session store; Close does not close it.
func NewRedisBus(rdb goredis.UniversalClient, prefix string, log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "dubmyyt:sse"
	}
	return &redisBus{log: log.With("service", "RedisSSEBus"), rdb: rdb, prefix: prefix}, nil
}

func (b *redisBus) topic(channel string) string { return b.prefix + ":" + channel }

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if msg.Channel == "" {
		return fmt.Errorf("sse message without channel")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode sse message: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return b.rdb.Publish(ctx, b.topic(msg.Channel), raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	sub := b.rdb.PSubscribe(ctx, b.topic("*"))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go b.forward(ctx, sub, onMsg)
	return nil
}

func (b *redisBus) forward(ctx context.Context, sub *goredis.PubSub, onMsg func(realtime.SSEMessage)) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var msg realtime.SSEMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.log.Warn("dropping malformed sse payload", "topic", m.Channel, "error", err)
				continue
			}
			if msg.Channel == "" {
				msg.Channel = strings.TrimPrefix(m.Channel, b.prefix+":")
			}
			onMsg(msg)
		}
	}
}

// Close ends every forwarder started on this bus.
func (b *redisBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	var first error
	for _, s := range subs {
		if err := s.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) && first == nil {
			first = err
		}
	}
	return first
}
