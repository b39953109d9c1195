package submission

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/dubmyyt/internal/backend"
	types "github.com/yungbote/dubmyyt/internal/domain"
)

func TestBuildViewSections(t *testing.T) {
	subsOnly := BuildView(&types.JobResult{OriginalSubtitles: "1\nhola", TargetLanguage: "es"})
	if subsOnly.Subtitles == nil || subsOnly.Summary != nil {
		t.Fatalf("subtitles only: got=%+v", subsOnly)
	}
	if subsOnly.Subtitles.Translated != nil {
		t.Fatalf("translated part should be absent")
	}

	sumOnly := BuildView(&types.JobResult{OriginalSummary: "s", TranslatedSummary: "z", TargetLanguage: "de"})
	if sumOnly.Summary == nil || sumOnly.Subtitles != nil {
		t.Fatalf("summary only: got=%+v", sumOnly)
	}
	tr := sumOnly.Summary.Translated
	if tr == nil || tr.Label != "Translated Summary (DE)" || tr.Filename != "summary_translated_de.txt" {
		t.Fatalf("translated summary: got=%+v", tr)
	}

	translationOnly := BuildView(&types.JobResult{TranslatedSubtitles: "x"})
	if translationOnly.Subtitles != nil {
		t.Fatalf("section without original text must not exist")
	}
}

func TestBuildViewPreviews(t *testing.T) {
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	v := BuildView(&types.JobResult{
		OriginalSubtitles: strings.Join(lines, "\n"),
		OriginalSummary:   strings.Repeat("é", 301),
	})
	if !v.Subtitles.Original.Truncated || !strings.HasSuffix(v.Subtitles.Original.Preview, "line 9\n...") {
		t.Fatalf("subtitle preview: %q", v.Subtitles.Original.Preview)
	}
	if got := []rune(v.Summary.Original.Preview); len(got) != 303 || !v.Summary.Original.Truncated {
		t.Fatalf("summary preview runes: got=%d", len(got))
	}
}

func TestArtifactFor(t *testing.T) {
	res := &types.JobResult{OriginalSubtitles: "a", TranslatedSubtitles: "b", TargetLanguage: "hi"}
	a, ok := ArtifactFor(res, "subtitles", "translated")
	if !ok || a.Filename != "subtitles_translated_hi.srt" || a.Content != "b" {
		t.Fatalf("artifact: got=%+v ok=%v", a, ok)
	}
	if _, ok := ArtifactFor(res, "summary", "original"); ok {
		t.Fatalf("absent summary should not be downloadable")
	}
	if _, ok := ArtifactFor(res, "video", "original"); ok {
		t.Fatalf("unknown artifact accepted")
	}
}

func TestClassify(t *testing.T) {
	base := "http://localhost:5000"
	cases := []struct {
		err  error
		kind ErrorKind
		msg  string
	}{
		{&backend.HTTPError{StatusCode: 500, Message: "ERROR: unable to download video data: HTTP Error 403: Forbidden"}, KindDownloadBlocked, ""},
		{&backend.HTTPError{StatusCode: 500, Message: "Requested format is not available"}, KindFormatUnavailable, ""},
		{&backend.HTTPError{StatusCode: 500, Message: "Video unavailable. This video is private"}, KindVideoUnavailable, ""},
		{&backend.HTTPError{StatusCode: 400, Message: "Invalid language"}, KindBackend, "Invalid language"},
		{&backend.TransportError{BaseURL: base, Err: errors.New("connection refused")}, KindNetwork, "Network error: Unable to connect to server at http://localhost:5000. Check if server is running and accessible."},
		{&backend.HTTPError{StatusCode: 0}, KindCORS, "CORS error: Server rejecting requests. Check server CORS configuration."},
		{&backend.HTTPError{StatusCode: 502}, KindUnknown, "Error processing request: Request failed with status code 502"},
		{errors.New("decode /upload response: EOF"), KindUnknown, "Error processing request: decode /upload response: EOF"},
	}
	for _, tc := range cases {
		got := Classify(tc.err, base)
		if got.Kind != tc.kind {
			t.Errorf("Classify(%v): kind got=%s want=%s", tc.err, got.Kind, tc.kind)
		}
		if tc.msg != "" && got.Message != tc.msg {
			t.Errorf("Classify(%v): msg got=%q want=%q", tc.err, got.Message, tc.msg)
		}
	}
}

func TestValidateDefaultsAndAmbiguity(t *testing.T) {
	n, err := Validate(Request{URL: " https://youtu.be/abc ", UserID: testUser})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if n.Language != types.LanguageFrench || n.Action != types.ActionBoth {
		t.Fatalf("defaults: got=%s/%s", n.Language, n.Action)
	}
	file := &FileInput{Name: "a.mp4", Open: func() (io.ReadCloser, error) { return nil, nil }}
	if _, err := Validate(Request{URL: "https://youtu.be/abc", File: file, UserID: testUser}); !errors.Is(err, ErrAmbiguousSource) {
		t.Fatalf("ambiguous: got=%v", err)
	}
	if _, err := Validate(Request{URL: "https://youtu.be/abc", Language: "it", UserID: testUser}); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("language: got=%v", err)
	}
	if _, err := Validate(Request{URL: "https://youtu.be/abc", Action: "dub", UserID: testUser}); !errors.Is(err, ErrUnsupportedAction) {
		t.Fatalf("action: got=%v", err)
	}
}
