package preview

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/dubmyyt/internal/domain"
)

type Kind string

const (
	KindYouTube Kind = "youtube"
	KindFile    Kind = "file"
)

// Preview describes the media shown behind the submission form. YouTube
// previews are an embed URL and hold nothing; file previews own a temp file.
type Preview struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	EmbedURL    string `json:"embed_url,omitempty"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type,omitempty"`

	path       string
	revokeOnce sync.Once
}

func (p *Preview) Path() string { return p.path }

// EmbedURL builds the muted, looping nocookie player URL for a video id.
func EmbedURL(videoID string) string {
	id := url.PathEscape(videoID)
	return "https://www.youtube-nocookie.com/embed/" + id +
		"?autoplay=1&mute=1&controls=1&disablekb=1&modestbranding=1&playlist=" + url.QueryEscape(videoID)
}

// Slot keeps the single live preview of one browser session. Replacing or
// clearing the preview revokes the old one exactly once.
type Slot struct {
	dir      string
	onRevoke func(*Preview)

	mu      sync.Mutex
	current *Preview
	closed  bool
}

func NewSlot(dir string, onRevoke func(*Preview)) *Slot {
	if onRevoke == nil {
		onRevoke = func(*Preview) {}
	}
	return &Slot{dir: dir, onRevoke: onRevoke}
}

// SetURL installs a YouTube preview for rawURL. Any other URL, or a YouTube
// URL without a recognizable video id, clears the slot and returns nil.
func (s *Slot) SetURL(rawURL string) *Preview {
	id := ""
	if types.IsYouTubeURL(rawURL) {
		id = types.YouTubeVideoID(rawURL)
	}
	if id == "" {
		s.Clear()
		return nil
	}
	p := &Preview{ID: uuid.NewString(), Kind: KindYouTube, EmbedURL: EmbedURL(id)}
	if !s.swap(p) {
		return nil
	}
	return p
}

// SetFile copies a video upload into a temp file. Non-video content clears
// the slot and returns nil.
func (s *Slot) SetFile(name, contentType string, src io.Reader) (*Preview, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "video/") {
		s.Clear()
		return nil, nil
	}
	f, err := os.CreateTemp(s.dir, "dubmyyt-preview-*")
	if err != nil {
		return nil, fmt.Errorf("preview temp file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("preview copy: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, err
	}
	p := &Preview{ID: uuid.NewString(), Kind: KindFile, Name: name, ContentType: contentType, path: f.Name()}
	if !s.swap(p) {
		s.revoke(p)
		return nil, nil
	}
	return p, nil
}

func (s *Slot) swap(next *Preview) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	prev := s.current
	s.current = next
	s.mu.Unlock()
	if prev != nil {
		s.revoke(prev)
	}
	return true
}

func (s *Slot) Current() *Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Slot) Clear() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()
	if prev != nil {
		s.revoke(prev)
	}
}

// Close clears the slot and refuses further previews.
func (s *Slot) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Clear()
}

func (s *Slot) revoke(p *Preview) {
	p.revokeOnce.Do(func() {
		if p.path != "" {
			_ = os.Remove(p.path)
		}
		s.onRevoke(p)
	})
}
