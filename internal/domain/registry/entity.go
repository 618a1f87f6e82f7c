package registry

import "time"

// Kind distinguishes files offered by the operator from files received from
// remote clients. Both share the FileEntry shape.
type Kind string

const (
	KindShared   Kind = "shared"
	KindUploaded Kind = "uploaded"
)

// TimeLayout is how registration times are rendered to clients and snapshots.
const TimeLayout = "2006-01-02 15:04:05"

// FileEntry is one registered file.
type FileEntry struct {
	ID          string
	Kind        Kind
	Path        string // absolute location on disk, not guaranteed to still exist
	DisplayName string
	// SizeLabel is computed when the entry is registered or restored.
	SizeLabel    string
	Size         int64 // on-disk size as of the last Get
	RegisteredAt time.Time
	// DownloadCount is only maintained for shared entries.
	DownloadCount int64
	// UploaderAddress is only set for uploaded entries.
	UploaderAddress string
}

// UploadTime renders RegisteredAt in TimeLayout.
func (e FileEntry) UploadTime() string {
	return e.RegisteredAt.Format(TimeLayout)
}
