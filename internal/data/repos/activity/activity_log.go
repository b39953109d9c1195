package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dubmyyt/internal/data/dberr"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/pkg/dbctx"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

type ActivityLogRepo interface {
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ActivityLog, error)
	ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.ActivityLog, error)
	DeleteByVideo(dbc dbctx.Context, userID uuid.UUID, videoID int64) (int64, error)
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	return &activityLogRepo{
		db:  db,
		log: baseLog.With("repo", "ActivityLogRepo"),
	}
}

func (r *activityLogRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ActivityLog, error) {
	out := []*types.ActivityLog{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 10
	}
	err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, dberr.Map("user_activity_log.list", err)
	}
	return out, nil
}

func (r *activityLogRepo) ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.ActivityLog, error) {
	out := []*types.ActivityLog{}
	if userID == uuid.Nil {
		return out, nil
	}
	err := dbc.Conn(r.db).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, dberr.Map("user_activity_log.since", err)
	}
	return out, nil
}

// DeleteByVideo removes the activity rows that reference a job record. It has
// to run before the job record itself is deleted.
func (r *activityLogRepo) DeleteByVideo(dbc dbctx.Context, userID uuid.UUID, videoID int64) (int64, error) {
	res := dbc.Conn(r.db).
		Where("video_id = ? AND user_id = ?", videoID, userID).
		Delete(&types.ActivityLog{})
	if res.Error != nil {
		return 0, dberr.Map("user_activity_log.delete", res.Error)
	}
	return res.RowsAffected, nil
}
