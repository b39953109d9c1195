package backend

import (
	"context"
	"time"

	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/observability"
)

// Instrument records the latency and outcome of every call on m.
func Instrument(c Client, m *observability.Metrics) Client {
	if m == nil {
		return c
	}
	return &instrumented{next: c, m: m}
}

type instrumented struct {
	next Client
	m    *observability.Metrics
}

func (i *instrumented) BaseURL() string { return i.next.BaseURL() }

func (i *instrumented) SubmitURL(ctx context.Context, userID, youtubeURL string, lang types.Language, action types.Action) (*types.JobResult, error) {
	start := time.Now()
	res, err := i.next.SubmitURL(ctx, userID, youtubeURL, lang, action)
	i.m.ObserveBackendCall("upload_url", err, time.Since(start))
	return res, err
}

func (i *instrumented) SubmitFile(ctx context.Context, userID string, file Upload, lang types.Language, action types.Action) (*types.JobResult, error) {
	start := time.Now()
	res, err := i.next.SubmitFile(ctx, userID, file, lang, action)
	i.m.ObserveBackendCall("upload_file", err, time.Since(start))
	return res, err
}

func (i *instrumented) VideoDetails(ctx context.Context, userID string, videoID int64) (*types.VideoDetails, error) {
	start := time.Now()
	res, err := i.next.VideoDetails(ctx, userID, videoID)
	i.m.ObserveBackendCall("video_details", err, time.Since(start))
	return res, err
}

func (i *instrumented) DownloadSubtitle(ctx context.Context, userID string, videoID int64, lang string) (*types.Download, error) {
	start := time.Now()
	res, err := i.next.DownloadSubtitle(ctx, userID, videoID, lang)
	i.m.ObserveBackendCall("download_subtitle", err, time.Since(start))
	return res, err
}

func (i *instrumented) DownloadSummary(ctx context.Context, userID string, videoID int64) (*types.Download, error) {
	start := time.Now()
	res, err := i.next.DownloadSummary(ctx, userID, videoID)
	i.m.ObserveBackendCall("download_summary", err, time.Since(start))
	return res, err
}
