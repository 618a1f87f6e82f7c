package share

import "burnbin/internal/domain/registry"

type SharedFileDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	UploadTime string `json:"upload_time"`
	Downloads  int64  `json:"downloads"`
}

func toSharedFileDTO(e registry.FileEntry) SharedFileDTO {
	return SharedFileDTO{
		ID:         e.ID,
		Name:       e.DisplayName,
		Size:       e.SizeLabel,
		UploadTime: e.UploadTime(),
		Downloads:  e.DownloadCount,
	}
}

type StartDownloadResponse struct {
	SessionID   string `json:"session_id"`
	FileSize    int64  `json:"file_size"`
	DownloadURL string `json:"download_url"`
}

type TrackDownloadRequest struct {
	FileID string `json:"file_id"`
}

// DownloadURL is the streaming path for a shared file within a session.
func DownloadURL(fileID, sessionID string) string {
	if sessionID == "" {
		return "/download/" + fileID
	}
	return "/download/" + fileID + "?session=" + sessionID
}
