package activity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dubmyyt/internal/data/dberr"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/pkg/dbctx"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

// UserAnalyticsRepo is read-only; the counters are maintained by the
// processing backend.
type UserAnalyticsRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserAnalytics, error)
}

type userAnalyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) UserAnalyticsRepo {
	return &userAnalyticsRepo{
		db:  db,
		log: baseLog.With("repo", "UserAnalyticsRepo"),
	}
}

func (r *userAnalyticsRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserAnalytics, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.UserAnalytics
	err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, dberr.Map("user_analytics.get", err)
	}
	if row.UserID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
