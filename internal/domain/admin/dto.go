package admin

import (
	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/registry"
	"burnbin/internal/domain/transfer"
)

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type ShareRequest struct {
	Path string `json:"path" binding:"required"`
}

type SharedFileResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        string `json:"size"`
	DownloadURL string `json:"download_url"`
}

type ActivityEntryDTO struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

func toActivityDTOs(entries []activity.Entry) []ActivityEntryDTO {
	out := make([]ActivityEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityEntryDTO{Time: e.At.Format("15:04:05"), Message: e.Message})
	}
	return out
}

type SessionStats struct {
	Pending     int `json:"pending"`
	Downloading int `json:"downloading"`
	Completed   int `json:"completed"`
	Failed      int `json:"failed"`
}

type StatsResponse struct {
	SharedFiles   int            `json:"shared_files"`
	UploadedFiles int            `json:"uploaded_files"`
	ActivityLines int            `json:"activity_lines"`
	Sessions      SessionStats   `json:"sessions"`
	Transfers     transfer.Stats `json:"transfers"`
}

func (h *Handler) toSharedFileResponse(e registry.FileEntry) SharedFileResponse {
	return SharedFileResponse{
		ID:          e.ID,
		Name:        e.DisplayName,
		Size:        e.SizeLabel,
		DownloadURL: h.publicURL + "/download/" + e.ID,
	}
}
