package history

import (
	"strings"
	"unicode/utf8"

	types "github.com/yungbote/dubmyyt/internal/domain"
)

const titleMaxRunes = 30

// Title is the label shown for a history entry. Stored titles win unless
// they are the backend's "Untitled" placeholder; otherwise the label is
// derived from the URL or upload token.
func Title(videoURL, title string) string {
	if title != "" && title != "Untitled" {
		return truncate(title, titleMaxRunes)
	}
	if strings.Contains(videoURL, "youtube.com") || strings.Contains(videoURL, "youtu.be") {
		if id := types.YouTubeVideoID(videoURL); id != "" {
			return "YouTube: " + prefix(id, 8) + "..."
		}
		return "YouTube Video"
	}
	return "Uploaded File: " + prefix(videoURL, 8) + "..."
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return prefix(s, n) + "..."
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ConfirmPrompt is the question asked before a history entry is deleted.
func ConfirmPrompt(title string) string {
	return `Are you sure you want to delete "` + title + `" from your history? This action cannot be undone.`
}
