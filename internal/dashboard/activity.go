package dashboard

import (
	"fmt"
	"strings"
	"time"

	types "github.com/yungbote/dubmyyt/internal/domain"
)

type ActivityEntry struct {
	ID             int64     `json:"id"`
	Type           string    `json:"activity_type"`
	Icon           string    `json:"icon"`
	Text           string    `json:"text"`
	When           string    `json:"when"`
	ProcessingTime int       `json:"processing_time"`
	CreatedAt      time.Time `json:"created_at"`
}

func ActivityIcon(activityType string) string {
	switch activityType {
	case types.ActivityVideoProcessed:
		return "🎬"
	case types.ActivitySummaryGenerated:
		return "📝"
	case types.ActivitySubtitleGenerated:
		return "📄"
	default:
		return "⚡"
	}
}

func ActivityText(activityType, language string) string {
	in := ""
	if language != "" {
		in = " in " + strings.ToUpper(language)
	}
	switch activityType {
	case types.ActivityVideoProcessed:
		return "Processed a new video"
	case types.ActivitySummaryGenerated:
		return "Generated summary" + in
	case types.ActivitySubtitleGenerated:
		return "Created subtitles" + in
	default:
		return "Performed an action"
	}
}

// RelativeTime renders t relative to now: minutes, hours and days up to a
// week, then a plain month/day/year date.
func RelativeTime(now, t time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = -d
	}
	minutes := int(d / time.Minute)
	hours := int(d / time.Hour)
	days := int(d / (24 * time.Hour))
	switch {
	case minutes < 60:
		if minutes <= 1 {
			return "Just now"
		}
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.In(now.Location()).Format("1/2/2006")
	}
}

func entries(rows []*types.ActivityLog, now time.Time) []ActivityEntry {
	out := make([]ActivityEntry, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, ActivityEntry{
			ID:             r.ID,
			Type:           r.ActivityType,
			Icon:           ActivityIcon(r.ActivityType),
			Text:           ActivityText(r.ActivityType, r.Language),
			When:           RelativeTime(now, r.CreatedAt),
			ProcessingTime: r.ProcessingTime,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out
}
