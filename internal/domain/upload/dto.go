package upload

import "burnbin/internal/domain/registry"

type UploadedFileDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	UploadTime string `json:"upload_time"`
	UploaderIP string `json:"uploader_ip"`
}

func toUploadedFileDTO(e registry.FileEntry) UploadedFileDTO {
	ip := e.UploaderAddress
	if ip == "" {
		ip = "Unknown"
	}
	return UploadedFileDTO{
		ID:         e.ID,
		Name:       e.DisplayName,
		Size:       e.SizeLabel,
		UploadTime: e.UploadTime(),
		UploaderIP: ip,
	}
}
