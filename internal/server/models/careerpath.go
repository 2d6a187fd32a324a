package models

import "time"

// CareerPath is a standalone PDF keyed by a unique label. PdfData is base64.
type CareerPath struct {
	ID          string
	CareerPath  string
	PdfData     string
	ContentType string
	UploadedBy  string
	CreatedAt   time.Time
}
