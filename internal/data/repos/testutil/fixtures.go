package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/dubmyyt/internal/domain"
)

func SeedVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, url, title string, at time.Time) *types.VideoRecord {
	tb.Helper()
	rec := &types.VideoRecord{
		UserID:    userID,
		VideoURL:  url,
		Title:     title,
		CreatedAt: at.UTC(),
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return rec
}

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, videoID *int64, kind, lang string, at time.Time) *types.ActivityLog {
	tb.Helper()
	row := &types.ActivityLog{
		UserID:       userID,
		VideoID:      videoID,
		ActivityType: kind,
		Language:     lang,
		CreatedAt:    at.UTC(),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return row
}

func SeedAnalytics(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, videos, summaries, subtitles int, langs string) *types.UserAnalytics {
	tb.Helper()
	row := &types.UserAnalytics{
		UserID:             userID,
		VideosProcessed:    videos,
		SummariesGenerated: summaries,
		SubtitlesGenerated: subtitles,
		LanguagesUsed:      datatypes.JSON([]byte(langs)),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed analytics: %v", err)
	}
	return row
}
