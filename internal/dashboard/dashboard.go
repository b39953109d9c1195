package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/pkg/dbctx"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

const (
	DefaultDays  = 30
	RecentLimit  = 10
	seriesLayout = "Jan 2"
)

type ActivitySource interface {
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ActivityLog, error)
	ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.ActivityLog, error)
}

// VideoCounter counts the job records a user still has.
type VideoCounter interface {
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type AnalyticsSource interface {
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserAnalytics, error)
}

type Totals struct {
	VideosProcessed     int        `json:"videos_processed"`
	SummariesGenerated  int        `json:"summaries_generated"`
	SubtitlesGenerated  int        `json:"subtitles_generated"`
	LanguagesUsed       int        `json:"languages_used"`
	Languages           []string   `json:"languages"`
	TotalProcessingTime int        `json:"total_processing_time"`
	LastActivity        *time.Time `json:"last_activity,omitempty"`
}

type Point struct {
	Date      time.Time `json:"date"`
	Label     string    `json:"label"`
	Subtitles int       `json:"subtitles"`
	Summaries int       `json:"summaries"`
	Videos    int       `json:"videos"`
}

type Overview struct {
	Totals       Totals          `json:"totals"`
	Series       []Point         `json:"series"`
	Recent       []ActivityEntry `json:"recent"`
	Achievements []Achievement   `json:"achievements"`
}

type Service interface {
	Overview(ctx context.Context, userID uuid.UUID, now time.Time) (*Overview, error)
}

type service struct {
	log       *logger.Logger
	activity  ActivitySource
	analytics AnalyticsSource
	videos    VideoCounter
	days      int
}

func NewService(activity ActivitySource, analytics AnalyticsSource, videos VideoCounter, days int, baseLog *logger.Logger) Service {
	if days <= 0 {
		days = DefaultDays
	}
	return &service{
		log:       baseLog.With("service", "DashboardService"),
		activity:  activity,
		analytics: analytics,
		videos:    videos,
		days:      days,
	}
}

func (s *service) Overview(ctx context.Context, userID uuid.UUID, now time.Time) (*Overview, error) {
	start := startOfDay(now).AddDate(0, 0, -(s.days - 1))

	var (
		stats  *types.UserAnalytics
		recent []*types.ActivityLog
		window []*types.ActivityLog
		jobs   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.analytics.Get(dbctx.New(gctx), userID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.activity.ListRecent(dbctx.New(gctx), userID, RecentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		window, err = s.activity.ListSince(dbctx.New(gctx), userID, start)
		return err
	})
	g.Go(func() error {
		var err error
		jobs, err = s.videos.CountByUser(dbctx.New(gctx), userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("dashboard load failed", "user_id", userID, "error", err)
		return nil, err
	}

	totals := totalsFrom(stats)
	// The analytics row is only written once the backend has counted a job.
	if stats == nil {
		totals.VideosProcessed = int(jobs)
	}
	return &Overview{
		Totals:       totals,
		Series:       Series(window, now, s.days),
		Recent:       entries(recent, now),
		Achievements: Achievements(totals),
	}, nil
}

func totalsFrom(a *types.UserAnalytics) Totals {
	if a == nil {
		return Totals{Languages: []string{}}
	}
	langs := a.Languages()
	if langs == nil {
		langs = []string{}
	}
	return Totals{
		VideosProcessed:     a.VideosProcessed,
		SummariesGenerated:  a.SummariesGenerated,
		SubtitlesGenerated:  a.SubtitlesGenerated,
		LanguagesUsed:       len(langs),
		Languages:           langs,
		TotalProcessingTime: a.TotalProcessingTime,
		LastActivity:        a.LastActivity,
	}
}

// Series buckets rows into one point per calendar day ending today, in
// now's location. Days without activity are zero.
func Series(rows []*types.ActivityLog, now time.Time, days int) []Point {
	if days <= 0 {
		days = DefaultDays
	}
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(days - 1))
	points := make([]Point, days)
	index := make(map[string]int, days)
	for i := range points {
		d := first.AddDate(0, 0, i)
		points[i] = Point{Date: d, Label: d.Format(seriesLayout)}
		index[d.Format(time.DateOnly)] = i
	}
	for _, r := range rows {
		if r == nil {
			continue
		}
		i, ok := index[r.CreatedAt.In(now.Location()).Format(time.DateOnly)]
		if !ok {
			continue
		}
		switch r.ActivityType {
		case types.ActivitySubtitleGenerated:
			points[i].Subtitles++
		case types.ActivitySummaryGenerated:
			points[i].Summaries++
		case types.ActivityVideoProcessed:
			points[i].Videos++
		}
	}
	return points
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
