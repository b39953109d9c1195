package history

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dubmyyt/internal/data/dberr"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/pkg/dbctx"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

// VideoRecordRepo reads and deletes rows of the video_url table. Rows are
// written by the processing backend. Every query is scoped by user id.
type VideoRecordRepo interface {
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.VideoRecord, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID, id int64) (*types.VideoRecord, error)
	Delete(dbc dbctx.Context, userID uuid.UUID, id int64) (int64, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type videoRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRecordRepo(db *gorm.DB, baseLog *logger.Logger) VideoRecordRepo {
	return &videoRecordRepo{
		db:  db,
		log: baseLog.With("repo", "VideoRecordRepo"),
	}
}

func (r *videoRecordRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.VideoRecord, error) {
	out := []*types.VideoRecord{}
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
		return nil, dberr.Map("video_url.list", err)
	}
	return out, nil
}

func (r *videoRecordRepo) GetByID(dbc dbctx.Context, userID uuid.UUID, id int64) (*types.VideoRecord, error) {
	var rec types.VideoRecord
	err := dbc.Conn(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, dberr.Map("video_url.get", err)
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (r *videoRecordRepo) Delete(dbc dbctx.Context, userID uuid.UUID, id int64) (int64, error) {
	res := dbc.Conn(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.VideoRecord{})
	if res.Error != nil {
		return 0, dberr.Map("video_url.delete", res.Error)
	}
	r.log.Debug("deleted video record", "video_id", id, "user_id", userID, "rows", res.RowsAffected)
	return res.RowsAffected, nil
}

func (r *videoRecordRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.Conn(r.db).Model(&types.VideoRecord{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, dberr.Map("video_url.count", err)
	}
	return n, nil
}
