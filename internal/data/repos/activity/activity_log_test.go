package activity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/data/repos/testutil"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/pkg/dbctx"
)

func TestActivityLogRepoDeleteByVideo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewActivityLogRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := uuid.New()
	now := time.Now().UTC()
	vid := testutil.SeedVideo(t, ctx, tx, user, "https://youtu.be/abc", "x", now).ID
	otherVid := vid + 1000
	testutil.SeedActivity(t, ctx, tx, user, &vid, types.ActivityVideoProcessed, "fr", now)
	testutil.SeedActivity(t, ctx, tx, user, &vid, types.ActivitySubtitleGenerated, "fr", now)
	testutil.SeedActivity(t, ctx, tx, user, &otherVid, types.ActivitySummaryGenerated, "fr", now)
	testutil.SeedActivity(t, ctx, tx, uuid.New(), &vid, types.ActivityVideoProcessed, "fr", now)

	n, err := repo.DeleteByVideo(dbc, user, vid)
	if err != nil {
		t.Fatalf("DeleteByVideo: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows: got=%d want=2", n)
	}
	left, err := repo.ListRecent(dbc, user, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(left) != 1 || *left[0].VideoID != otherVid {
		t.Fatalf("remaining: got=%d rows", len(left))
	}
}

func TestActivityLogRepoListSince(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewActivityLogRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := uuid.New()
	now := time.Date(2026, 5, 30, 10, 0, 0, 0, time.UTC)
	testutil.SeedActivity(t, ctx, tx, user, nil, types.ActivitySummaryGenerated, "es", now.AddDate(0, 0, -40))
	testutil.SeedActivity(t, ctx, tx, user, nil, types.ActivitySummaryGenerated, "es", now.AddDate(0, 0, -3))
	testutil.SeedActivity(t, ctx, tx, user, nil, types.ActivitySubtitleGenerated, "es", now.AddDate(0, 0, -1))

	got, err := repo.ListSince(dbc, user, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len: got=%d want=2", len(got))
	}
	if got[0].ActivityType != types.ActivitySummaryGenerated {
		t.Fatalf("order: got=%q first", got[0].ActivityType)
	}
}

func TestUserAnalyticsRepoGet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUserAnalyticsRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := uuid.New()
	if got, err := repo.Get(dbc, user); err != nil || got != nil {
		t.Fatalf("missing row: got=%v err=%v", got, err)
	}
	testutil.SeedAnalytics(t, ctx, tx, user, 12, 3, 9, `["fr","es"]`)
	got, err := repo.Get(dbc, user)
	if err != nil || got == nil {
		t.Fatalf("Get: got=%v err=%v", got, err)
	}
	if got.VideosProcessed != 12 || len(got.Languages()) != 2 {
		t.Fatalf("row: videos=%d langs=%v", got.VideosProcessed, got.Languages())
	}
}
