package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/dubmyyt/internal/data/repos/activity"
	"github.com/yungbote/dubmyyt/internal/data/repos/history"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

type VideoRecordRepo = history.VideoRecordRepo
type ActivityLogRepo = activity.ActivityLogRepo
type UserAnalyticsRepo = activity.UserAnalyticsRepo

type Repos struct {
	Videos    VideoRecordRepo
	Activity  ActivityLogRepo
	Analytics UserAnalyticsRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Videos:    history.NewVideoRecordRepo(db, log),
		Activity:  activity.NewActivityLogRepo(db, log),
		Analytics: activity.NewUserAnalyticsRepo(db, log),
	}
}
