package submission

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/dubmyyt/internal/backend"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/notice"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/preview"
	"github.com/yungbote/dubmyyt/internal/realtime"
)

const testUser = "3f1c2a9e-6a53-4c1e-9d5b-2f4c1b7e8a10"

type fakeBackend struct {
	calls   atomic.Int32
	release chan struct{}
	result  *types.JobResult
	err     error
	lastURL string
}

func (f *fakeBackend) BaseURL() string { return "http://localhost:5000" }

func (f *fakeBackend) wait() {
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeBackend) SubmitURL(_ context.Context, _, url string, _ types.Language, _ types.Action) (*types.JobResult, error) {
	f.calls.Add(1)
	f.lastURL = url
	f.wait()
	return f.result, f.err
}

func (f *fakeBackend) SubmitFile(_ context.Context, _ string, up backend.Upload, _ types.Language, _ types.Action) (*types.JobResult, error) {
	f.calls.Add(1)
	_, _ = io.ReadAll(up.Body)
	f.wait()
	return f.result, f.err
}

func (f *fakeBackend) VideoDetails(context.Context, string, int64) (*types.VideoDetails, error) {
	return nil, errors.New("unused")
}
func (f *fakeBackend) DownloadSubtitle(context.Context, string, int64, string) (*types.Download, error) {
	return nil, errors.New("unused")
}
func (f *fakeBackend) DownloadSummary(context.Context, string, int64) (*types.Download, error) {
	return nil, errors.New("unused")
}

type recorded struct {
	event realtime.SSEEvent
	data  any
}

type recorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *recorder) emit(ev realtime.SSEEvent, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{ev, data})
}

func (r *recorder) snapshot() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.events...)
}

func newTestFlow(t *testing.T, fb *fakeBackend, onRevoke func(*preview.Preview)) (*Flow, *notice.Board, *recorder) {
	t.Helper()
	rec := &recorder{}
	board := notice.NewBoard(time.Minute, nil, nil)
	slot := preview.NewSlot(t.TempDir(), onRevoke)
	f := NewFlow(fb, board, slot, rec.emit, Options{
		Tick:         time.Millisecond,
		SnapHold:     5 * time.Millisecond,
		CompleteHold: 5 * time.Millisecond,
	}, logger.Nop())
	t.Cleanup(func() {
		f.Close()
		board.Close()
	})
	return f, board, rec
}

func waitState(t *testing.T, f *Flow, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s := f.Snapshot(); s.State == want {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state never became %s (now %s)", want, f.Snapshot().State)
	return Snapshot{}
}

func TestSubmitWithoutSourceNeverCallsBackend(t *testing.T) {
	fb := &fakeBackend{}
	f, board, _ := newTestFlow(t, fb, nil)

	accepted, err := f.Submit(context.Background(), Request{UserID: testUser, Action: "subtitles"})
	if accepted || !errors.Is(err, ErrMissingSource) {
		t.Fatalf("Submit: accepted=%v err=%v", accepted, err)
	}
	if fb.calls.Load() != 0 {
		t.Fatalf("backend calls: got=%d want=0", fb.calls.Load())
	}
	n, ok := board.Current()
	if !ok || n.Message != "Please enter a YouTube URL or upload a file to generate subtitles." {
		t.Fatalf("notice: got=%+v ok=%v", n, ok)
	}
	if f.Snapshot().State != StateIdle {
		t.Fatalf("state changed on validation failure")
	}
}

func TestSubmitRejectsNonCanonicalIdentity(t *testing.T) {
	fb := &fakeBackend{}
	f, board, _ := newTestFlow(t, fb, nil)

	_, err := f.Submit(context.Background(), Request{URL: "https://youtu.be/abc123", UserID: "temp-user-id"})
	if !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("err: got=%v want ErrInvalidIdentity", err)
	}
	if n, _ := board.Current(); n.Message != "Invalid or missing user ID. Please log in again." {
		t.Fatalf("notice: got=%q", n.Message)
	}
	if fb.calls.Load() != 0 {
		t.Fatalf("backend contacted")
	}
}

func TestResubmitWhileInFlightIsIgnored(t *testing.T) {
	fb := &fakeBackend{release: make(chan struct{}), result: &types.JobResult{OriginalSummary: "s"}}
	f, _, _ := newTestFlow(t, fb, nil)
	req := Request{URL: "https://youtu.be/abc123", UserID: testUser}

	if ok, err := f.Submit(context.Background(), req); !ok || err != nil {
		t.Fatalf("first Submit: ok=%v err=%v", ok, err)
	}
	if ok, err := f.Submit(context.Background(), req); ok || err != nil {
		t.Fatalf("second Submit: ok=%v err=%v want false,nil", ok, err)
	}
	if f.Reset() {
		t.Fatalf("Reset must be ignored in flight")
	}
	close(fb.release)
	waitState(t, f, StateSucceeded)
	if n := fb.calls.Load(); n != 1 {
		t.Fatalf("backend calls: got=%d want=1", n)
	}
}

func TestProgressReachesCompleteBeforeResults(t *testing.T) {
	fb := &fakeBackend{
		release: make(chan struct{}),
		result:  &types.JobResult{OriginalSubtitles: "1\n00:00:00,000 --> 00:00:01,000\nhola\n", TargetLanguage: "es"},
	}
	f, _, rec := newTestFlow(t, fb, nil)

	if ok, err := f.Submit(context.Background(), Request{URL: "https://youtu.be/abc123", Language: "es", Action: "subtitles", UserID: testUser}); !ok || err != nil {
		t.Fatalf("Submit: ok=%v err=%v", ok, err)
	}
	time.Sleep(20 * time.Millisecond)
	close(fb.release)
	snap := waitState(t, f, StateSucceeded)
	f.Wait()

	var last float64 = -1
	sawDone := false
	for _, ev := range rec.snapshot() {
		if ev.event == realtime.SSEEventSubmissionDone {
			sawDone = true
			break
		}
		if ev.event != realtime.SSEEventProgress {
			continue
		}
		v := ev.data.(map[string]any)["progress"].(float64)
		if v < last {
			t.Fatalf("progress decreased while in flight: %v -> %v", last, v)
		}
		last = v
	}
	if !sawDone {
		t.Fatalf("no completion event")
	}
	if last != 100 {
		t.Fatalf("last progress before results: got=%v want=100", last)
	}

	if snap.View == nil || snap.View.Subtitles == nil || snap.View.Summary != nil {
		t.Fatalf("view: got=%+v", snap.View)
	}
	if snap.View.Subtitles.Original.Label != "Original Subtitles" || snap.View.Subtitles.Translated != nil {
		t.Fatalf("subtitles section: got=%+v", snap.View.Subtitles)
	}
	if p := f.Snapshot().Progress; p != 0 {
		t.Fatalf("progress after success: got=%v want=0", p)
	}
	if pv := f.Snapshot().Preview; pv == nil || pv.Kind != preview.KindYouTube {
		t.Fatalf("preview: got=%+v", pv)
	}
}

func TestBackendFailureShowsOneClassifiedNotice(t *testing.T) {
	fb := &fakeBackend{err: &backend.HTTPError{StatusCode: 500, Message: "ERROR: Video unavailable"}}
	shown := atomic.Int32{}
	rec := &recorder{}
	board := notice.NewBoard(time.Minute, func(notice.Notice) { shown.Add(1) }, nil)
	defer board.Close()
	f := NewFlow(fb, board, nil, rec.emit, Options{Tick: time.Millisecond}, logger.Nop())
	defer f.Close()

	if ok, _ := f.Submit(context.Background(), Request{URL: "https://youtu.be/x", UserID: testUser}); !ok {
		t.Fatalf("not accepted")
	}
	snap := waitState(t, f, StateFailed)
	if snap.Error == nil || snap.Error.Kind != KindVideoUnavailable {
		t.Fatalf("error: got=%+v", snap.Error)
	}
	if snap.Progress != 0 {
		t.Fatalf("progress: got=%v want=0", snap.Progress)
	}
	if shown.Load() != 1 {
		t.Fatalf("notices shown: got=%d want=1", shown.Load())
	}
}

func TestCloseDuringFlightDiscardsOutcomeAndRevokesPreviewOnce(t *testing.T) {
	var revoked, released atomic.Int32
	fb := &fakeBackend{release: make(chan struct{}), result: &types.JobResult{OriginalSummary: "s"}}
	f, _, _ := newTestFlow(t, fb, func(*preview.Preview) { revoked.Add(1) })

	file := &FileInput{
		Name:        "clip.mp4",
		ContentType: "video/mp4",
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("video")), nil },
		Release:     func() { released.Add(1) },
	}
	if ok, err := f.Submit(context.Background(), Request{File: file, UserID: testUser}); !ok || err != nil {
		t.Fatalf("Submit: ok=%v err=%v", ok, err)
	}
	if f.Snapshot().Preview == nil {
		t.Fatalf("file preview missing while in flight")
	}
	f.Close()
	close(fb.release)
	f.Wait()
	f.Close()

	if s := f.Snapshot().State; s != StateInFlight {
		t.Fatalf("closed flow updated to %s", s)
	}
	if f.Result() != nil {
		t.Fatalf("closed flow stored a result")
	}
	if n := revoked.Load(); n != 1 {
		t.Fatalf("revocations: got=%d want=1", n)
	}
	if n := released.Load(); n != 1 {
		t.Fatalf("upload releases: got=%d want=1", n)
	}
	if ok, err := f.Submit(context.Background(), Request{URL: "https://youtu.be/x", UserID: testUser}); ok || !errors.Is(err, ErrClosed) {
		t.Fatalf("Submit after Close: ok=%v err=%v", ok, err)
	}
}
