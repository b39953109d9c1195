package dashboard

type Achievement struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type rule struct {
	id, icon, name, description string
	met                         func(Totals) bool
}

var rules = []rule{
	{"first_video", "🎬", "First Video", "Processed your first video", func(t Totals) bool { return t.VideosProcessed >= 1 }},
	{"video_pro", "🚀", "Video Pro", "Processed 10 videos", func(t Totals) bool { return t.VideosProcessed >= 10 }},
	{"video_master", "👑", "Video Master", "Processed 50 videos", func(t Totals) bool { return t.VideosProcessed >= 50 }},
	{"polyglot", "🌍", "Polyglot", "Used 5 different languages", func(t Totals) bool { return t.LanguagesUsed >= 5 }},
	{"summary_expert", "📚", "Summary Expert", "Generated 25 summaries", func(t Totals) bool { return t.SummariesGenerated >= 25 }},
}

// Achievements evaluates every badge against the totals, locked ones included.
func Achievements(t Totals) []Achievement {
	out := make([]Achievement, 0, len(rules))
	for _, r := range rules {
		out = append(out, Achievement{
			ID:          r.id,
			Icon:        r.icon,
			Name:        r.name,
			Description: r.description,
			Unlocked:    r.met(t),
		})
	}
	return out
}
