package upload

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/registry"
	"burnbin/internal/pkg/clientip"
	"burnbin/internal/pkg/response"
)

// Lister is the read side of the registry used by the handler.
type Lister interface {
	List(kind registry.Kind) []registry.FileEntry
	GetKind(id string, kind registry.Kind) (registry.FileEntry, error)
}

// Handler serves anonymous uploads and the listing/download of uploaded files.
type Handler struct {
	service  *Service
	registry Lister
	activity activity.Sink
}

func NewHandler(service *Service, reg Lister, sink activity.Sink) *Handler {
	return &Handler{service: service, registry: reg, activity: sink}
}

// Upload handles POST /api/upload (multipart field "file").
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "No file provided")
		return
	}

	id, err := h.service.Save(c.Request.Context(), fileHeader, clientip.FromRequest(c.Request))
	if err != nil {
		switch {
		case errors.Is(err, ErrRejected):
			response.Error(c, http.StatusBadRequest, "No file selected")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "Upload failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"file_id": id,
		"message": "File uploaded successfully",
	})
}

// ListUploaded handles GET /api/uploaded-files.
func (h *Handler) ListUploaded(c *gin.Context) {
	entries := h.registry.List(registry.KindUploaded)
	files := make([]UploadedFileDTO, 0, len(entries))
	for _, e := range entries {
		files = append(files, toUploadedFileDTO(e))
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Download handles GET /download-upload/:id. No session is tracked and the
// download counter is not touched.
func (h *Handler) Download(c *gin.Context) {
	e, err := h.registry.GetKind(c.Param("id"), registry.KindUploaded)
	if err != nil {
		response.NotFoundText(c)
		return
	}

	if h.activity != nil {
		h.activity.Append("Uploaded file downloaded: " + e.DisplayName)
	}
	log.Printf("upload_download id=%s name=%q client_ip=%s", e.ID, e.DisplayName, clientip.FromRequest(c.Request))
	c.FileAttachment(e.Path, e.DisplayName)
}
