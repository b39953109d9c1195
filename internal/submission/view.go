package submission

import (
	"strings"

	types "github.com/yungbote/dubmyyt/internal/domain"
)

const (
	subtitlePreviewLines = 10
	summaryPreviewRunes  = 300
)

type Part struct {
	Label       string `json:"label"`
	Preview     string `json:"preview"`
	Truncated   bool   `json:"truncated"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

// Section groups one artifact kind. Translated is nil unless the backend
// returned a non-empty translation.
type Section struct {
	Title      string `json:"title"`
	Original   Part   `json:"original"`
	Translated *Part  `json:"translated,omitempty"`
}

type View struct {
	Subtitles      *Section `json:"subtitles,omitempty"`
	Summary        *Section `json:"summary,omitempty"`
	TargetLanguage string   `json:"target_language,omitempty"`
}

const downloadBase = "/api/submissions/current/download/"

// BuildView renders a result bundle. A section exists only when its original
// text does.
func BuildView(res *types.JobResult) *View {
	if res == nil {
		return nil
	}
	lang := res.TargetLanguage
	upper := strings.ToUpper(lang)
	v := &View{TargetLanguage: lang}

	if res.OriginalSubtitles != "" {
		preview, cut := firstLines(res.OriginalSubtitles, subtitlePreviewLines)
		sec := &Section{
			Title: "Subtitles Generated",
			Original: Part{
				Label:       "Original Subtitles",
				Preview:     preview,
				Truncated:   cut,
				Filename:    "subtitles_original.srt",
				DownloadURL: downloadBase + "subtitles/original",
			},
		}
		if res.TranslatedSubtitles != "" {
			preview, cut := firstLines(res.TranslatedSubtitles, subtitlePreviewLines)
			sec.Translated = &Part{
				Label:       "Translated Subtitles (" + upper + ")",
				Preview:     preview,
				Truncated:   cut,
				Filename:    "subtitles_translated_" + lang + ".srt",
				DownloadURL: downloadBase + "subtitles/translated",
			}
		}
		v.Subtitles = sec
	}

	if res.OriginalSummary != "" {
		preview, cut := firstRunes(res.OriginalSummary, summaryPreviewRunes)
		sec := &Section{
			Title: "Summary Generated",
			Original: Part{
				Label:       "Original Summary",
				Preview:     preview,
				Truncated:   cut,
				Filename:    "summary_original.txt",
				DownloadURL: downloadBase + "summary/original",
			},
		}
		if res.TranslatedSummary != "" {
			preview, cut := firstRunes(res.TranslatedSummary, summaryPreviewRunes)
			sec.Translated = &Part{
				Label:       "Translated Summary (" + upper + ")",
				Preview:     preview,
				Truncated:   cut,
				Filename:    "summary_translated_" + lang + ".txt",
				DownloadURL: downloadBase + "summary/translated",
			}
		}
		v.Summary = sec
	}
	return v
}

func firstLines(s string, n int) (string, bool) {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s, false
	}
	return strings.Join(lines[:n], "\n") + "\n...", true
}

func firstRunes(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]) + "...", true
}

// Artifact is a downloadable piece of the current result.
type Artifact struct {
	Content     string
	Filename    string
	ContentType string
}

// ArtifactFor picks the text for kind ("subtitles" or "summary") and variant
// ("original" or "translated"). ok is false when that text is absent.
func ArtifactFor(res *types.JobResult, kind, variant string) (Artifact, bool) {
	if res == nil {
		return Artifact{}, false
	}
	lang := res.TargetLanguage
	var a Artifact
	switch kind + "/" + variant {
	case "subtitles/original":
		a = Artifact{res.OriginalSubtitles, "subtitles_original.srt", "text/srt"}
	case "subtitles/translated":
		a = Artifact{res.TranslatedSubtitles, "subtitles_translated_" + lang + ".srt", "text/srt"}
	case "summary/original":
		a = Artifact{res.OriginalSummary, "summary_original.txt", "text/plain"}
	case "summary/translated":
		a = Artifact{res.TranslatedSummary, "summary_translated_" + lang + ".txt", "text/plain"}
	default:
		return Artifact{}, false
	}
	return a, a.Content != ""
}
