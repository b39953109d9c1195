package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

type SSEClient struct {
	ID        uuid.UUID
	SessionID string
	Channels  map[string]bool
	Outbound  chan SSEMessage
	done      chan struct{}
	closeOnce sync.Once
	Logger    *logger.Logger
}

func (c *SSEClient) Done() <-chan struct{} { return c.done }
