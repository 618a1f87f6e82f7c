package session

// ProgressResponse is the body of GET /api/download-progress/:sessionId and
// of every live progress event.
type ProgressResponse struct {
	SessionID string  `json:"session_id,omitempty"`
	Progress  float64 `json:"progress"`
	Status    Status  `json:"status"`
	BytesSent int64   `json:"bytes_sent"`
	FileSize  int64   `json:"file_size"`
}

func ToProgressResponse(s DownloadSession) ProgressResponse {
	return ProgressResponse{
		Progress:  s.ProgressPercent,
		Status:    s.Status,
		BytesSent: s.BytesSent,
		FileSize:  s.FileSize,
	}
}
