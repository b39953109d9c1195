package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/backend"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/notice"
	"github.com/yungbote/dubmyyt/internal/pkg/dbctx"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/preview"
	"github.com/yungbote/dubmyyt/internal/realtime"
)

var (
	ErrConfirmationRequired = errors.New("delete requires confirmation")
	ErrActivityCleanup      = errors.New("activity log cleanup failed")
	ErrDeleteFailed         = errors.New("history delete failed")
	ErrNotListed            = errors.New("video is not in the history list")
)

const (
	msgActivityCleanup  = "Failed to delete video from history - activity log cleanup failed"
	msgDeleteFailed     = "Failed to delete video from history"
	msgDownloadSubtitle = "Failed to download subtitle"
	msgDownloadSummary  = "Failed to download summary"
	msgNotListed        = "Failed to load video details: Video not found"

	DefaultLimit = 10
)

type VideoStore interface {
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.VideoRecord, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID, id int64) (*types.VideoRecord, error)
	Delete(dbc dbctx.Context, userID uuid.UUID, id int64) (int64, error)
}

type ActivityStore interface {
	DeleteByVideo(dbc dbctx.Context, userID uuid.UUID, videoID int64) (int64, error)
}

// Artifacts is the part of the processing backend the panel reads from.
type Artifacts interface {
	BaseURL() string
	VideoDetails(ctx context.Context, userID string, videoID int64) (*types.VideoDetails, error)
	DownloadSubtitle(ctx context.Context, userID string, videoID int64, lang string) (*types.Download, error)
	DownloadSummary(ctx context.Context, userID string, videoID int64) (*types.Download, error)
}

// UserError pairs a failure with the text the panel showed for it.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Err }

type Item struct {
	ID           int64     `json:"id"`
	VideoURL     string    `json:"video_url"`
	Title        string    `json:"title"`
	DisplayTitle string    `json:"display_title"`
	IsYouTube    bool      `json:"is_youtube"`
	CreatedAt    time.Time `json:"created_at"`
}

type State struct {
	Items    []Item              `json:"items"`
	Selected *int64              `json:"selected,omitempty"`
	Details  *types.VideoDetails `json:"details,omitempty"`
}

// Panel is one session's view of its recent jobs.
type Panel struct {
	log       *logger.Logger
	videos    VideoStore
	activity  ActivityStore
	artifacts Artifacts
	board     *notice.Board
	slot      *preview.Slot
	emit      func(realtime.SSEEvent, any)
	limit     int

	mu       sync.Mutex
	items    []Item
	selected *int64
	details  *types.VideoDetails
}

func NewPanel(videos VideoStore, activity ActivityStore, artifacts Artifacts, board *notice.Board, slot *preview.Slot, emit func(realtime.SSEEvent, any), log *logger.Logger) *Panel {
	if emit == nil {
		emit = func(realtime.SSEEvent, any) {}
	}
	return &Panel{
		log:       log.With("component", "HistoryPanel"),
		videos:    videos,
		activity:  activity,
		artifacts: artifacts,
		board:     board,
		slot:      slot,
		emit:      emit,
		limit:     DefaultLimit,
		items:     []Item{},
	}
}

func (p *Panel) SetLimit(n int) {
	if n > 0 {
		p.limit = n
	}
}

// List reloads the most recent jobs. On failure the list is emptied.
func (p *Panel) List(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	recs, err := p.videos.ListRecent(dbctx.New(ctx), userID, p.limit)
	if err != nil {
		p.log.Error("history load failed", "user_id", userID, "error", err)
		p.setItems([]Item{})
		return []Item{}, err
	}
	items := make([]Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, Item{
			ID:           r.ID,
			VideoURL:     r.VideoURL,
			Title:        r.Title,
			DisplayTitle: Title(r.VideoURL, r.Title),
			IsYouTube:    types.IsYouTubeURL(r.VideoURL),
			CreatedAt:    r.CreatedAt,
		})
	}
	p.setItems(items)
	return items, nil
}

func (p *Panel) publish(ev realtime.SSEEvent, data any) {
	p.mu.Lock()
	emit := p.emit
	p.mu.Unlock()
	emit(ev, data)
}

func (p *Panel) setItems(items []Item) {
	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
}

// Lookup finds a listed entry by id.
func (p *Panel) Lookup(id int64) (Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Select loads the backend's details for a job and makes it the selection.
// The preview follows the entry's URL. An id outside the loaded page must
// still belong to the user.
func (p *Panel) Select(ctx context.Context, userID uuid.UUID, videoID int64) (*types.VideoDetails, error) {
	videoURL, err := p.ownedURL(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if p.slot != nil {
		p.publish(realtime.SSEEventPreviewChanged, p.slot.SetURL(videoURL))
	}
	details, err := p.artifacts.VideoDetails(ctx, userID.String(), videoID)
	if err != nil {
		p.log.Error("video details failed", "user_id", userID, "video_id", videoID, "error", err)
		msg := p.detailsMessage(err)
		p.board.Show("history", msg)
		return nil, &UserError{Message: msg, Err: err}
	}
	p.mu.Lock()
	id := videoID
	p.selected = &id
	p.details = details
	p.mu.Unlock()
	return details, nil
}

func (p *Panel) ownedURL(ctx context.Context, userID uuid.UUID, videoID int64) (string, error) {
	if it, ok := p.Lookup(videoID); ok {
		return it.VideoURL, nil
	}
	rec, err := p.videos.GetByID(dbctx.New(ctx), userID, videoID)
	if err != nil {
		p.log.Error("history lookup failed", "user_id", userID, "video_id", videoID, "error", err)
		msg := "Failed to load video details: " + err.Error()
		p.board.Show("history", msg)
		return "", &UserError{Message: msg, Err: err}
	}
	if rec == nil {
		p.board.Show("history", msgNotListed)
		return "", &UserError{Message: msgNotListed, Err: ErrNotListed}
	}
	return rec.VideoURL, nil
}

func (p *Panel) detailsMessage(err error) string {
	var te *backend.TransportError
	if errors.As(err, &te) {
		return "Network error: Cannot connect to server at " + p.artifacts.BaseURL()
	}
	var he *backend.HTTPError
	if errors.As(err, &he) {
		if he.StatusCode == 0 {
			return "CORS error: Server is blocking the request"
		}
		if he.Message != "" {
			return "Failed to load video details: " + he.Message
		}
		return fmt.Sprintf("Failed to load video details: Request failed with status code %d", he.StatusCode)
	}
	return "Failed to load video details: " + err.Error()
}

// ClearSelection returns the panel to the main view.
func (p *Panel) ClearSelection() {
	p.mu.Lock()
	p.selected = nil
	p.details = nil
	p.mu.Unlock()
}

// Delete removes a job and its activity rows. The activity rows go first;
// the local list only changes once both deletes succeeded.
func (p *Panel) Delete(ctx context.Context, userID uuid.UUID, videoID int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	dbc := dbctx.New(ctx)
	if _, err := p.activity.DeleteByVideo(dbc, userID, videoID); err != nil {
		p.log.Error("activity log cleanup failed", "user_id", userID, "video_id", videoID, "error", err)
		p.board.Show("history", msgActivityCleanup)
		return &UserError{Message: msgActivityCleanup, Err: fmt.Errorf("%w: %w", ErrActivityCleanup, err)}
	}
	if _, err := p.videos.Delete(dbc, userID, videoID); err != nil {
		p.log.Error("video delete failed", "user_id", userID, "video_id", videoID, "error", err)
		p.board.Show("history", msgDeleteFailed)
		return &UserError{Message: msgDeleteFailed, Err: fmt.Errorf("%w: %w", ErrDeleteFailed, err)}
	}

	p.mu.Lock()
	kept := make([]Item, 0, len(p.items))
	for _, it := range p.items {
		if it.ID != videoID {
			kept = append(kept, it)
		}
	}
	p.items = kept
	if p.selected != nil && *p.selected == videoID {
		p.selected = nil
		p.details = nil
	}
	p.mu.Unlock()

	p.log.Info("video deleted from history", "user_id", userID, "video_id", videoID)
	p.publish(realtime.SSEEventHistoryChanged, map[string]any{"deleted": videoID})
	return nil
}

func (p *Panel) DownloadSubtitle(ctx context.Context, userID uuid.UUID, videoID int64, lang string) (*types.Download, error) {
	dl, err := p.artifacts.DownloadSubtitle(ctx, userID.String(), videoID, lang)
	if err != nil {
		p.log.Error("subtitle download failed", "user_id", userID, "video_id", videoID, "error", err)
		p.board.Show("download", msgDownloadSubtitle)
		return nil, &UserError{Message: msgDownloadSubtitle, Err: err}
	}
	return dl, nil
}

func (p *Panel) DownloadSummary(ctx context.Context, userID uuid.UUID, videoID int64) (*types.Download, error) {
	dl, err := p.artifacts.DownloadSummary(ctx, userID.String(), videoID)
	if err != nil {
		p.log.Error("summary download failed", "user_id", userID, "video_id", videoID, "error", err)
		p.board.Show("download", msgDownloadSummary)
		return nil, &UserError{Message: msgDownloadSummary, Err: err}
	}
	return dl, nil
}

func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := State{Items: append([]Item(nil), p.items...), Details: p.details}
	if s.Items == nil {
		s.Items = []Item{}
	}
	if p.selected != nil {
		id := *p.selected
		s.Selected = &id
	}
	return s
}

// Close drops all session state held by the panel.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = []Item{}
	p.selected = nil
	p.details = nil
	p.emit = func(realtime.SSEEvent, any) {}
}
