// Package share exposes shared files and their download sessions over HTTP.
package share

import (
	"context"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/registry"
	"burnbin/internal/domain/session"
	"burnbin/internal/pkg/clientip"
	"burnbin/internal/pkg/response"
)

type Files interface {
	List(kind registry.Kind) []registry.FileEntry
	GetKind(id string, kind registry.Kind) (registry.FileEntry, error)
}

type Sessions interface {
	CreateSession(fileID string, fileSize int64) string
	Claim(id, fileID string) (session.DownloadSession, error)
	Query(id string) (session.DownloadSession, error)
}

type Streamer interface {
	Stream(ctx context.Context, w io.Writer, entry registry.FileEntry, sess session.DownloadSession) (int64, error)
}

type Handler struct {
	files    Files
	sessions Sessions
	streamer Streamer
	activity activity.Sink
}

func NewHandler(files Files, sessions Sessions, streamer Streamer, sink activity.Sink) *Handler {
	return &Handler{files: files, sessions: sessions, streamer: streamer, activity: sink}
}

// ListFiles handles GET /api/files.
func (h *Handler) ListFiles(c *gin.Context) {
	entries := h.files.List(registry.KindShared)
	files := make([]SharedFileDTO, 0, len(entries))
	for _, e := range entries {
		files = append(files, toSharedFileDTO(e))
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// TrackDownload handles POST /api/track-download. It only records intent.
func (h *Handler) TrackDownload(c *gin.Context) {
	var req TrackDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if e, err := h.files.GetKind(req.FileID, registry.KindShared); err == nil && h.activity != nil {
		h.activity.Append("Download clicked: " + e.DisplayName)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StartDownload handles GET /api/start-download/:id.
func (h *Handler) StartDownload(c *gin.Context) {
	e, err := h.files.GetKind(c.Param("id"), registry.KindShared)
	if err != nil {
		response.Error(c, http.StatusNotFound, "File not found")
		return
	}

	sid := h.sessions.CreateSession(e.ID, e.Size)
	c.JSON(http.StatusOK, StartDownloadResponse{
		SessionID:   sid,
		FileSize:    e.Size,
		DownloadURL: DownloadURL(e.ID, sid),
	})
}

// Progress handles GET /api/download-progress/:sessionId.
func (h *Handler) Progress(c *gin.Context) {
	s, err := h.sessions.Query(c.Param("sessionId"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	c.JSON(http.StatusOK, session.ToProgressResponse(s))
}

// Download handles GET /download/:id?session=<sid>. A session id that is
// unknown, finished or issued for another file is replaced by a new one.
func (h *Handler) Download(c *gin.Context) {
	e, err := h.files.GetKind(c.Param("id"), registry.KindShared)
	if err != nil {
		response.NotFoundText(c)
		return
	}

	sess := h.resolveSession(c.Query("session"), e)

	header := c.Writer.Header()
	header.Set("Content-Type", "application/octet-stream")
	header.Set("Content-Disposition", contentDisposition(e.DisplayName))
	header.Set("Content-Length", strconv.FormatInt(sess.FileSize, 10))
	header.Set("X-Session-Id", sess.ID)
	header.Set("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	sent, err := h.streamer.Stream(c.Request.Context(), c.Writer, e, sess)
	if err != nil {
		log.Printf("download_failed file_id=%s session=%s sent=%d client_ip=%s error=%q",
			e.ID, sess.ID, sent, clientip.FromRequest(c.Request), err)
		_ = c.Error(err)
		if !c.Writer.Written() {
			for _, k := range []string{"Content-Type", "Content-Disposition", "Content-Length", "Cache-Control"} {
				header.Del(k)
			}
			if errors.Is(err, registry.ErrIO) {
				response.NotFoundText(c)
			} else {
				c.String(http.StatusInternalServerError, "Download failed")
			}
		}
		c.Abort()
		return
	}
	c.Writer.WriteHeaderNow()
}

// resolveSession reuses the requested session only if it is still Pending;
// any other request gets a session of its own.
func (h *Handler) resolveSession(requested string, e registry.FileEntry) session.DownloadSession {
	if requested != "" {
		if s, err := h.sessions.Claim(requested, e.ID); err == nil {
			return s
		}
	}
	sid := h.sessions.CreateSession(e.ID, e.Size)
	if s, err := h.sessions.Query(sid); err == nil {
		return s
	}
	return session.DownloadSession{ID: sid, FileID: e.ID, Status: session.StatusPending, FileSize: e.Size}
}

func contentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
