package bus

import (
	"context"

	"github.com/yungbote/dubmyyt/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

// Emitter publishes through the bus, falling back to local delivery when the
// publish fails so the current instance's clients still see the message.
type Emitter struct {
	Bus   Bus
	Local realtime.Emitter
	OnErr func(error)
}

func (e Emitter) Emit(channel string, event realtime.SSEEvent, data any) {
	msg := realtime.SSEMessage{Channel: channel, Event: event, Data: data}
	if e.Bus == nil {
		e.Local.Emit(channel, event, data)
		return
	}
	if err := e.Bus.Publish(context.Background(), msg); err != nil {
		if e.OnErr != nil {
			e.OnErr(err)
		}
		e.Local.Emit(channel, event, data)
	}
}
