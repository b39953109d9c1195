package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VideoRecord is one processed job as stored by the storage collaborator.
// video_url holds either the submitted YouTube URL or the upload's file hash.
type VideoRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	VideoURL  string    `gorm:"column:video_url;not null" json:"video_url"`
	Title     string    `gorm:"column:title" json:"title"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (VideoRecord) TableName() string { return "video_url" }

const (
	ActivityVideoProcessed    = "video_processed"
	ActivitySummaryGenerated  = "summary_generated"
	ActivitySubtitleGenerated = "subtitle_generated"
)

// ActivityLog rows reference video_url through video_id, which is why a job
// cannot be deleted before its activity rows are gone.
type ActivityLog struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	VideoID        *int64    `gorm:"index" json:"video_id,omitempty"`
	ActivityType   string    `gorm:"column:activity_type;not null" json:"activity_type"`
	Language       string    `gorm:"column:language" json:"language,omitempty"`
	ProcessingTime int       `gorm:"column:processing_time;not null;default:0" json:"processing_time"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "user_activity_log" }

type UserAnalytics struct {
	UserID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	VideosProcessed     int            `gorm:"not null;default:0" json:"videos_processed"`
	SummariesGenerated  int            `gorm:"not null;default:0" json:"summaries_generated"`
	SubtitlesGenerated  int            `gorm:"not null;default:0" json:"subtitles_generated"`
	LanguagesUsed       datatypes.JSON `gorm:"column:languages_used" json:"languages_used"`
	TotalProcessingTime int            `gorm:"not null;default:0" json:"total_processing_time"`
	LastActivity        *time.Time     `gorm:"column:last_activity" json:"last_activity,omitempty"`
}

func (UserAnalytics) TableName() string { return "user_analytics" }

// Languages decodes languages_used, tolerating an empty or malformed column.
func (a UserAnalytics) Languages() []string {
	if len(a.LanguagesUsed) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(a.LanguagesUsed, &out); err != nil {
		return nil
	}
	return out
}
