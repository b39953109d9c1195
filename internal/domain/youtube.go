package domain

import (
	"regexp"
	"strings"
)

var youtubeURL = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+$`)

func IsYouTubeURL(s string) bool { return youtubeURL.MatchString(strings.TrimSpace(s)) }

// YouTubeVideoID pulls the id from a watch?v= or youtu.be/ URL. It returns
// "" when neither form is present.
func YouTubeVideoID(s string) string {
	if i := strings.Index(s, "v="); i >= 0 {
		id := s[i+2:]
		if j := strings.Index(id, "&"); j >= 0 {
			id = id[:j]
		}
		if id != "" {
			return id
		}
	}
	if i := strings.Index(s, "youtu.be/"); i >= 0 {
		return s[i+len("youtu.be/"):]
	}
	return ""
}
