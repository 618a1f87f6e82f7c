package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"burnbin/internal/domain/registry"
	"burnbin/internal/pkg/response"
)

type Handler struct {
	service   *Service
	publicURL string
}

// NewHandler builds the operator handler. publicURL prefixes returned
// download links; empty keeps them relative.
func NewHandler(service *Service, publicURL string) *Handler {
	return &Handler{service: service, publicURL: publicURL}
}

// Login handles POST /api/admin/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.service.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrLoginDisabled):
			response.Error(c, http.StatusServiceUnavailable, "Operator login is disabled")
		case errors.Is(err, ErrInvalidPassword):
			response.Error(c, http.StatusUnauthorized, "Invalid password")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "Login failed")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Share handles POST /api/admin/shared.
func (h *Handler) Share(c *gin.Context) {
	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	e, err := h.service.ShareFile(req.Path)
	if err != nil {
		h.writeRegistryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toSharedFileResponse(e))
}

// RemoveShared handles DELETE /api/admin/shared/:id.
func (h *Handler) RemoveShared(c *gin.Context) {
	if err := h.service.RemoveShared(c.Param("id")); err != nil {
		h.writeRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// RemoveUpload handles DELETE /api/admin/uploads/:id.
func (h *Handler) RemoveUpload(c *gin.Context) {
	if err := h.service.RemoveUpload(c.Param("id")); err != nil {
		h.writeRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// PromoteUpload handles POST /api/admin/uploads/:id/share.
func (h *Handler) PromoteUpload(c *gin.Context) {
	e, err := h.service.PromoteUpload(c.Param("id"))
	if err != nil {
		h.writeRegistryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toSharedFileResponse(e))
}

// Activity handles GET /api/admin/activity?since=N.
func (h *Handler) Activity(c *gin.Context) {
	since, err := strconv.Atoi(c.DefaultQuery("since", "0"))
	if err != nil || since < 0 {
		response.Error(c, http.StatusBadRequest, "since must be a non-negative integer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": toActivityDTOs(h.service.Activity(since))})
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Stats())
}

// Persist handles POST /api/admin/persist.
func (h *Handler) Persist(c *gin.Context) {
	if err := h.service.Persist(c.Request.Context()); err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Could not save shared files")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (h *Handler) writeRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyPath):
		response.Error(c, http.StatusBadRequest, "Path is required")
	case errors.Is(err, registry.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Path does not exist")
	case errors.Is(err, registry.ErrUnknownID), errors.Is(err, registry.ErrFileMissing):
		response.Error(c, http.StatusNotFound, "File not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Operation failed")
	}
}
