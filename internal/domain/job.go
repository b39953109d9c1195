package domain

import "strings"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguageSpanish Language = "es"
	LanguageGerman  Language = "de"
	LanguageHindi   Language = "hi"

	DefaultLanguage = LanguageFrench
)

var languageLabels = map[Language]string{
	LanguageEnglish: "English",
	LanguageFrench:  "French",
	LanguageSpanish: "Spanish",
	LanguageGerman:  "German",
	LanguageHindi:   "Hindi",
}

// Languages lists the selectable output languages in menu order.
func Languages() []Language {
	return []Language{LanguageEnglish, LanguageFrench, LanguageSpanish, LanguageGerman, LanguageHindi}
}

func ParseLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	_, ok := languageLabels[l]
	return l, ok
}

func (l Language) Label() string { return languageLabels[l] }

type Action string

const (
	ActionSubtitles Action = "subtitles"
	ActionSummarize Action = "summarize"
	ActionBoth      Action = "both"
)

func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionSubtitles, ActionSummarize, ActionBoth:
		return a, true
	default:
		return "", false
	}
}

// JobResult is the artifact bundle returned by POST /upload. Every field is
// optional; which ones are present depends on the requested action.
type JobResult struct {
	OriginalSubtitles   string `json:"original_subtitles,omitempty"`
	TranslatedSubtitles string `json:"translated_subtitles,omitempty"`
	OriginalSummary     string `json:"original_summary,omitempty"`
	TranslatedSummary   string `json:"translated_summary,omitempty"`
	TargetLanguage      string `json:"target_language,omitempty"`
}

type VideoInfo struct {
	Title     string `json:"title"`
	VideoURL  string `json:"video_url"`
	CreatedAt string `json:"created_at"`
}

type VideoDetails struct {
	VideoInfo          VideoInfo `json:"video_info"`
	HasSummary         bool      `json:"has_summary"`
	AvailableSubtitles []string  `json:"available_subtitles"`
}

// Download is a stored artifact as served by the download endpoints.
type Download struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}
