package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/pkg/httpx"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

// Client talks to the processing backend. Every call carries the caller's
// user id in X-User-Id. Calls are never retried.
type Client interface {
	BaseURL() string
	SubmitURL(ctx context.Context, userID, youtubeURL string, lang types.Language, action types.Action) (*types.JobResult, error)
	SubmitFile(ctx context.Context, userID string, file Upload, lang types.Language, action types.Action) (*types.JobResult, error)
	VideoDetails(ctx context.Context, userID string, videoID int64) (*types.VideoDetails, error)
	DownloadSubtitle(ctx context.Context, userID string, videoID int64, lang string) (*types.Download, error)
	DownloadSummary(ctx context.Context, userID string, videoID int64) (*types.Download, error)
}

// Upload is a file to forward as the multipart "file" part.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("backend base url: %w", err)
	}
	return &client{
		log:        log.With("service", "ProcessingBackend"),
		baseURL:    baseURL,
		httpClient: httpx.NewClient(timeout),
	}, nil
}

func (c *client) BaseURL() string { return c.baseURL }

type urlSubmission struct {
	YoutubeURL string `json:"youtube_url"`
	Language   string `json:"language"`
	Action     string `json:"action"`
}

func (c *client) SubmitURL(ctx context.Context, userID, youtubeURL string, lang types.Language, action types.Action) (*types.JobResult, error) {
	raw, err := json.Marshal(urlSubmission{YoutubeURL: youtubeURL, Language: string(lang), Action: string(action)})
	if err != nil {
		return nil, err
	}
	var out types.JobResult
	if err := c.do(ctx, http.MethodPost, "/upload", userID, "application/json", bytes.NewReader(raw), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) SubmitFile(ctx context.Context, userID string, file Upload, lang types.Language, action types.Action) (*types.JobResult, error) {
	if file.Body == nil {
		return nil, fmt.Errorf("upload body required")
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeMultipart(mw, file, lang, action))
	}()

	var out types.JobResult
	if err := c.do(ctx, http.MethodPost, "/upload", userID, mw.FormDataContentType(), pr, &out); err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	return &out, nil
}

func writeMultipart(mw *multipart.Writer, file Upload, lang types.Language, action types.Action) error {
	name := file.Name
	if name == "" {
		name = "upload"
	}
	part, err := mw.CreatePart(filePartHeader(name, file.ContentType))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return err
	}
	if err := mw.WriteField("language", string(lang)); err != nil {
		return err
	}
	if err := mw.WriteField("action", string(action)); err != nil {
		return err
	}
	return mw.Close()
}

func (c *client) VideoDetails(ctx context.Context, userID string, videoID int64) (*types.VideoDetails, error) {
	var out types.VideoDetails
	path := "/video-details/" + strconv.FormatInt(videoID, 10)
	if err := c.do(ctx, http.MethodGet, path, userID, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) DownloadSubtitle(ctx context.Context, userID string, videoID int64, lang string) (*types.Download, error) {
	var out types.Download
	path := "/download-subtitle/" + strconv.FormatInt(videoID, 10) + "/" + url.PathEscape(lang)
	if err := c.do(ctx, http.MethodGet, path, userID, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) DownloadSummary(ctx context.Context, userID string, videoID int64) (*types.Download, error) {
	var out types.Download
	path := "/download-summary/" + strconv.FormatInt(videoID, 10)
	if err := c.do(ctx, http.MethodGet, path, userID, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *client) do(ctx context.Context, method, path, userID, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.log.Warn("processing backend unreachable", "path", path, "error", err)
		return &TransportError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{BaseURL: c.baseURL, Err: err}
	}
	c.log.Debug("processing backend call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(eb.Error), Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
