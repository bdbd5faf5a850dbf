package models

// ResumeFile describes an uploaded resume after it has been stored on disk.
type ResumeFile struct {
	FileName   string `json:"file_name"`
	StoredPath string `json:"-"`
	MimeType   string `json:"mime"`
	Size       int64  `json:"size"`
}
