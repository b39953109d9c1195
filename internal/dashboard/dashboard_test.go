package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/pkg/dbctx"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

type fakeActivity struct {
	recent []*types.ActivityLog
	window []*types.ActivityLog
	since  time.Time
	err    error
}

func (f *fakeActivity) ListRecent(_ dbctx.Context, _ uuid.UUID, limit int) ([]*types.ActivityLog, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], f.err
	}
	return f.recent, f.err
}

func (f *fakeActivity) ListSince(_ dbctx.Context, _ uuid.UUID, since time.Time) ([]*types.ActivityLog, error) {
	f.since = since
	return f.window, nil
}

type fakeAnalytics struct {
	row *types.UserAnalytics
}

func (f fakeAnalytics) Get(dbctx.Context, uuid.UUID) (*types.UserAnalytics, error) {
	return f.row, nil
}

type fakeVideos struct {
	n   int64
	err error
}

func (f fakeVideos) CountByUser(dbctx.Context, uuid.UUID) (int64, error) {
	return f.n, f.err
}

var now = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

func row(kind, lang string, at time.Time) *types.ActivityLog {
	return &types.ActivityLog{ActivityType: kind, Language: lang, CreatedAt: at}
}

func TestSeriesIsDenseAndLabelled(t *testing.T) {
	rows := []*types.ActivityLog{
		row(types.ActivitySubtitleGenerated, "fr", now.Add(-time.Hour)),
		row(types.ActivitySubtitleGenerated, "fr", now.Add(-2*time.Hour)),
		row(types.ActivitySummaryGenerated, "en", now.AddDate(0, 0, -29)),
		row(types.ActivitySummaryGenerated, "en", now.AddDate(0, 0, -30)),
		row(types.ActivityVideoProcessed, "", now.AddDate(0, 0, -3)),
	}
	pts := Series(rows, now, 30)
	if len(pts) != 30 {
		t.Fatalf("len: got=%d want=30", len(pts))
	}
	if pts[0].Label != "Feb 9" || pts[29].Label != "Mar 10" {
		t.Fatalf("labels: got=%q..%q", pts[0].Label, pts[29].Label)
	}
	if pts[29].Subtitles != 2 {
		t.Fatalf("today subtitles: got=%d want=2", pts[29].Subtitles)
	}
	if pts[0].Summaries != 1 {
		t.Fatalf("first-day summaries: got=%d want=1", pts[0].Summaries)
	}
	if pts[26].Videos != 1 {
		t.Fatalf("videos: got=%d want=1", pts[26].Videos)
	}
	total := 0
	for _, p := range pts {
		total += p.Subtitles + p.Summaries + p.Videos
	}
	if total != 4 {
		t.Fatalf("out-of-window row counted: total=%d want=4", total)
	}
}

func TestRelativeTime(t *testing.T) {
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "Just now"},
		{90 * time.Second, "Just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
		{10 * 24 * time.Hour, "2/28/2026"},
	}
	for _, c := range cases {
		if got := RelativeTime(now, now.Add(-c.ago)); got != c.want {
			t.Fatalf("RelativeTime(-%v): got=%q want=%q", c.ago, got, c.want)
		}
	}
}

func TestActivityText(t *testing.T) {
	if got := ActivityText(types.ActivitySummaryGenerated, "es"); got != "Generated summary in ES" {
		t.Fatalf("got=%q", got)
	}
	if got := ActivityText(types.ActivitySubtitleGenerated, ""); got != "Created subtitles" {
		t.Fatalf("got=%q", got)
	}
	if got := ActivityText("other", "fr"); got != "Performed an action" {
		t.Fatalf("got=%q", got)
	}
	if got := ActivityIcon("other"); got != "⚡" {
		t.Fatalf("got=%q", got)
	}
}

func TestAchievementThresholds(t *testing.T) {
	unlocked := func(t Totals) map[string]bool {
		out := map[string]bool{}
		for _, a := range Achievements(t) {
			out[a.Name] = a.Unlocked
		}
		return out
	}
	got := unlocked(Totals{VideosProcessed: 10, LanguagesUsed: 4, SummariesGenerated: 25})
	want := map[string]bool{"First Video": true, "Video Pro": true, "Video Master": false, "Polyglot": false, "Summary Expert": true}
	for name, w := range want {
		if got[name] != w {
			t.Fatalf("%s: got=%v want=%v", name, got[name], w)
		}
	}
	if got := unlocked(Totals{LanguagesUsed: 5}); !got["Polyglot"] || got["First Video"] {
		t.Fatalf("polyglot-only: got=%v", got)
	}
}

func TestOverview(t *testing.T) {
	act := &fakeActivity{
		recent: []*types.ActivityLog{row(types.ActivitySubtitleGenerated, "fr", now.Add(-5*time.Minute))},
		window: []*types.ActivityLog{row(types.ActivitySubtitleGenerated, "fr", now.Add(-5*time.Minute))},
	}
	stats := fakeAnalytics{row: &types.UserAnalytics{
		VideosProcessed:    1,
		SubtitlesGenerated: 1,
		LanguagesUsed:      datatypes.JSON([]byte(`["fr","en"]`)),
	}}
	svc := NewService(act, stats, fakeVideos{n: 4}, 30, logger.Nop())

	ov, err := svc.Overview(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.Totals.LanguagesUsed != 2 || ov.Totals.VideosProcessed != 1 {
		t.Fatalf("totals: got=%+v", ov.Totals)
	}
	if len(ov.Series) != 30 || ov.Series[29].Subtitles != 1 {
		t.Fatalf("series tail: got=%+v", ov.Series[len(ov.Series)-1])
	}
	if len(ov.Recent) != 1 || ov.Recent[0].Text != "Created subtitles in FR" || ov.Recent[0].When != "5m ago" {
		t.Fatalf("recent: got=%+v", ov.Recent)
	}
	if want := time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC); !act.since.Equal(want) {
		t.Fatalf("since: got=%v want=%v", act.since, want)
	}
	if !ov.Achievements[0].Unlocked {
		t.Fatalf("first video should be unlocked")
	}
}

func TestOverviewWithoutAnalyticsRow(t *testing.T) {
	svc := NewService(&fakeActivity{}, fakeAnalytics{}, fakeVideos{}, 0, logger.Nop())
	ov, err := svc.Overview(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.Totals.VideosProcessed != 0 || ov.Totals.Languages == nil {
		t.Fatalf("totals: got=%+v", ov.Totals)
	}
	for _, a := range ov.Achievements {
		if a.Unlocked {
			t.Fatalf("%s unlocked with no activity", a.Name)
		}
	}
}

func TestOverviewCountsJobsBeforeAnalyticsExist(t *testing.T) {
	svc := NewService(&fakeActivity{}, fakeAnalytics{}, fakeVideos{n: 3}, 30, logger.Nop())
	ov, err := svc.Overview(context.Background(), uuid.New(), now)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.Totals.VideosProcessed != 3 {
		t.Fatalf("videos: got=%d want=3", ov.Totals.VideosProcessed)
	}
	if !ov.Achievements[0].Unlocked {
		t.Fatalf("first video should be unlocked")
	}

	boom := errors.New("count failed")
	svc = NewService(&fakeActivity{}, fakeAnalytics{}, fakeVideos{err: boom}, 30, logger.Nop())
	if _, err := svc.Overview(context.Background(), uuid.New(), now); !errors.Is(err, boom) {
		t.Fatalf("got=%v want=%v", err, boom)
	}
}

func TestOverviewPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&fakeActivity{err: boom}, fakeAnalytics{}, fakeVideos{}, 30, logger.Nop())
	if _, err := svc.Overview(context.Background(), uuid.New(), now); !errors.Is(err, boom) {
		t.Fatalf("got=%v want=%v", err, boom)
	}
}
