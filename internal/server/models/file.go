package models

import "time"

// File describes an attachment of a page. Which payload fields are set
// depends on the blob backend that stored it:
//   - inline: FileData carries the base64 payload, StorageKey is empty;
//   - disk/s3: StorageKey points at the blob, FileData is empty.
type File struct {
	ID          string
	PageName    string
	Name        string
	Backend     string
	StorageKey  string
	FileData    string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}
