package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/dubmyyt/internal/backend"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindDownloadBlocked   ErrorKind = "download_blocked"
	KindFormatUnavailable ErrorKind = "format_unavailable"
	KindVideoUnavailable  ErrorKind = "video_unavailable"
	KindBackend           ErrorKind = "backend"
	KindNetwork           ErrorKind = "network"
	KindCORS              ErrorKind = "cors"
	KindUnknown           ErrorKind = "unknown"
)

type Classified struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Classify maps a failed submission to the single notice the user sees.
// baseURL is named in connectivity failures.
func Classify(err error, baseURL string) Classified {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return Classified{Kind: KindValidation, Message: ve.Message}
	}

	var he *backend.HTTPError
	if errors.As(err, &he) && he.Message != "" {
		msg := he.Message
		switch {
		case strings.Contains(msg, "HTTP Error 403") || strings.Contains(msg, "Forbidden"):
			return Classified{KindDownloadBlocked, "YouTube download blocked. This video may be restricted or have anti-bot protection. Try a different video or try again later."}
		case strings.Contains(msg, "Requested format is not available"):
			return Classified{KindFormatUnavailable, "Video format not available. YouTube may have changed their format restrictions. Try a different video."}
		case strings.Contains(msg, "Video unavailable"):
			return Classified{KindVideoUnavailable, "Video is unavailable or private. Please check the URL and try again."}
		default:
			return Classified{KindBackend, msg}
		}
	}

	var te *backend.TransportError
	if errors.As(err, &te) {
		base := te.BaseURL
		if base == "" {
			base = baseURL
		}
		return Classified{KindNetwork, fmt.Sprintf("Network error: Unable to connect to server at %s. Check if server is running and accessible.", base)}
	}

	if he != nil {
		if he.StatusCode == 0 {
			return Classified{KindCORS, "CORS error: Server rejecting requests. Check server CORS configuration."}
		}
		return Classified{KindUnknown, fmt.Sprintf("Error processing request: Request failed with status code %d", he.StatusCode)}
	}

	msg := "Unknown error"
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		msg = err.Error()
	}
	return Classified{KindUnknown, "Error processing request: " + msg}
}
