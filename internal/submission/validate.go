package submission

import (
	"errors"
	"fmt"
	"io"
	"strings"

	types "github.com/yungbote/dubmyyt/internal/domain"
)

var (
	ErrMissingSource       = errors.New("missing source")
	ErrAmbiguousSource     = errors.New("both url and file given")
	ErrInvalidIdentity     = errors.New("invalid user id")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrUnsupportedAction   = errors.New("unsupported action")
)

// FileInput is an uploaded file. Open may be called more than once. Once a
// submission is accepted the flow owns the file and calls Release after the
// backend call returns.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
	Release     func()
}

// Free calls Release, if any. It is safe on a nil FileInput.
func (fi *FileInput) Free() {
	if fi != nil && fi.Release != nil {
		fi.Release()
	}
}

type Request struct {
	URL      string
	File     *FileInput
	Language string
	Action   string
	UserID   string
}

// Normalized is a Request that passed Validate.
type Normalized struct {
	URL      string
	File     *FileInput
	Language types.Language
	Action   types.Action
	UserID   string
}

// ValidationError carries the text shown to the user next to the sentinel
// that identifies the failure.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

func Validate(req Request) (Normalized, error) {
	url := strings.TrimSpace(req.URL)
	hasFile := req.File != nil && req.File.Open != nil

	action := types.ActionBoth
	if strings.TrimSpace(req.Action) != "" {
		a, ok := types.ParseAction(req.Action)
		if !ok {
			return Normalized{}, &ValidationError{Err: ErrUnsupportedAction, Message: fmt.Sprintf("Unsupported action: %s", req.Action)}
		}
		action = a
	}

	switch {
	case url == "" && !hasFile:
		return Normalized{}, &ValidationError{Err: ErrMissingSource, Message: missingSourceMessage(action)}
	case url != "" && hasFile:
		return Normalized{}, &ValidationError{Err: ErrAmbiguousSource, Message: "Please provide either a YouTube URL or a file, not both."}
	}

	if !types.IsCanonicalUserID(req.UserID) {
		return Normalized{}, &ValidationError{Err: ErrInvalidIdentity, Message: "Invalid or missing user ID. Please log in again."}
	}

	lang := types.DefaultLanguage
	if strings.TrimSpace(req.Language) != "" {
		l, ok := types.ParseLanguage(req.Language)
		if !ok {
			return Normalized{}, &ValidationError{Err: ErrUnsupportedLanguage, Message: fmt.Sprintf("Unsupported language: %s", req.Language)}
		}
		lang = l
	}

	n := Normalized{Language: lang, Action: action, UserID: req.UserID}
	if url != "" {
		n.URL = req.URL
	} else {
		n.File = req.File
	}
	return n, nil
}

func missingSourceMessage(a types.Action) string {
	switch a {
	case types.ActionSubtitles:
		return "Please enter a YouTube URL or upload a file to generate subtitles."
	case types.ActionSummarize:
		return "Please enter a YouTube URL or upload a file to generate summary."
	default:
		return "Please enter a YouTube URL or upload a file."
	}
}
