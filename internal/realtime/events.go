package realtime

type SSEEvent string

const (
	SSEEventProgress         SSEEvent = "ProgressUpdated"
	SSEEventSubmissionState  SSEEvent = "SubmissionStateChanged"
	SSEEventSubmissionDone   SSEEvent = "SubmissionSucceeded"
	SSEEventSubmissionFailed SSEEvent = "SubmissionFailed"
	SSEEventNoticeShown      SSEEvent = "NoticeShown"
	SSEEventNoticeDismissed  SSEEvent = "NoticeDismissed"
	SSEEventHistoryChanged   SSEEvent = "HistoryChanged"
	SSEEventSessionChanged   SSEEvent = "SessionChanged"
	SSEEventPreviewChanged   SSEEvent = "PreviewChanged"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// SessionChannel names the channel a browser session listens on.
func SessionChannel(sessionID string) string { return "session:" + sessionID }

// Emitter is what domain components publish through. The hub implements it
// directly; with a bus configured the message is routed through the bus so
// every instance sees it.
type Emitter interface {
	Emit(channel string, event SSEEvent, data any)
}

type EmitterFunc func(channel string, event SSEEvent, data any)

func (f EmitterFunc) Emit(channel string, event SSEEvent, data any) { f(channel, event, data) }

// Discard drops every message.
var Discard Emitter = EmitterFunc(func(string, SSEEvent, any) {})
