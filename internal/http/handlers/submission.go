package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dubmyyt/internal/http/response"
	"github.com/yungbote/dubmyyt/internal/platform/apierr"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/submission"
	"github.com/yungbote/dubmyyt/internal/workspace"
)

type SubmissionHandler struct {
	log       *logger.Logger
	workspace *workspace.Registry
	spoolDir  string
	maxUpload int64
}

func NewSubmissionHandler(log *logger.Logger, reg *workspace.Registry, spoolDir string, maxUpload int64) *SubmissionHandler {
	return &SubmissionHandler{
		log:       log.With("handler", "SubmissionHandler"),
		workspace: reg,
		spoolDir:  spoolDir,
		maxUpload: maxUpload,
	}
}

type submitJSON struct {
	YoutubeURL string `json:"youtube_url"`
	Language   string `json:"language"`
	Action     string `json:"action"`
}

// Create starts a job for the caller's session. A JSON body carries a URL; a
// multipart body carries the "file" part. The response says whether the
// submission was accepted; a session with a job in flight gets accepted=false.
func (h *SubmissionHandler) Create(c *gin.Context) {
	sess, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}

	req := submission.Request{UserID: sess.UserID.String()}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if h.maxUpload > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
		}
		req.URL = c.PostForm("youtube_url")
		req.Language = c.PostForm("language")
		req.Action = c.PostForm("action")
		if fh, err := c.FormFile("file"); err == nil {
			in, err := h.spool(fh)
			if err != nil {
				h.log.Error("upload spool failed", "error", err)
				response.RespondError(c, http.StatusBadRequest, "upload_failed", err)
				return
			}
			req.File = in
		} else if !errors.Is(err, http.ErrMissingFile) {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	} else {
		var body submitJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		req.URL, req.Language, req.Action = body.YoutubeURL, body.Language, body.Action
	}

	accepted, err := ws.Flow.Submit(c.Request.Context(), req)
	if !accepted {
		req.File.Free()
	}
	switch {
	case errors.Is(err, submission.ErrClosed):
		response.RespondError(c, http.StatusServiceUnavailable, "session_closed", err)
		return
	case err != nil:
		code := "invalid_request"
		var ve *submission.ValidationError
		if errors.As(err, &ve) {
			code = string(submission.KindValidation)
		}
		response.RespondError(c, http.StatusBadRequest, code, err)
		return
	}

	status := http.StatusOK
	if accepted {
		status = http.StatusAccepted
		ws.History.ClearSelection()
	}
	c.JSON(status, gin.H{"accepted": accepted, "submission": ws.Flow.Snapshot()})
}

// spool copies the upload somewhere that outlives the request; the flow
// removes it once the backend call returns.
func (h *SubmissionHandler) spool(fh *multipart.FileHeader) (*submission.FileInput, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	dst, err := os.CreateTemp(h.spoolDir, "dubmyyt-upload-*")
	if err != nil {
		return nil, err
	}
	path := dst.Name()
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return &submission.FileInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
		Release:     func() { _ = os.Remove(path) },
	}, nil
}

func (h *SubmissionHandler) Current(c *gin.Context) {
	_, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	response.RespondOK(c, ws.Flow.Snapshot())
}

// Reset returns the session to the submission form. It is refused while a
// job is in flight.
func (h *SubmissionHandler) Reset(c *gin.Context) {
	_, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	if !ws.Flow.Reset() {
		response.RespondAPIError(c, apierr.Conflict("in_flight", errors.New("a submission is still being processed")), "reset_failed")
		return
	}
	response.RespondOK(c, ws.Flow.Snapshot())
}

func (h *SubmissionHandler) Download(c *gin.Context) {
	_, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	art, found := submission.ArtifactFor(ws.Flow.Result(), c.Param("artifact"), c.Param("variant"))
	if !found {
		response.RespondAPIError(c, apierr.NotFound("not_found", errors.New("no such result")), "download_failed")
		return
	}
	attachment(c, art.Filename, art.ContentType, []byte(art.Content))
}

// Preview streams the uploaded file behind the submission form.
func (h *SubmissionHandler) Preview(c *gin.Context) {
	_, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	p := ws.Slot.Current()
	if p == nil || p.Path() == "" {
		response.RespondAPIError(c, apierr.NotFound("not_found", errors.New("no file preview")), "preview_failed")
		return
	}
	c.Header("Content-Type", p.ContentType)
	c.Header("Cache-Control", "no-store")
	c.File(p.Path())
}
