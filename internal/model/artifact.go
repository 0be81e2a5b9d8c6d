package model

import (
	"time"
)

// ArtifactType distinguishes inline-rendered images from generic files.
type ArtifactType string

const (
	ArtifactTypeImage ArtifactType = "image"
	ArtifactTypeFile  ArtifactType = "file"
)

// Artifact is a file produced by the remote code interpreter. Before
// download only the remote file id is known; after download the local
// fields are populated.
type Artifact struct {
	FileID         string       `json:"file_id"`
	Type           ArtifactType `json:"type"`
	AnnotationText string       `json:"annotation_text,omitempty"`
	Extension      string       `json:"extension,omitempty"`

	// Populated by the file handler after a successful download.
	LocalName   string `json:"local_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	MIMEType    string `json:"mime_type,omitempty"`
	Downloaded  bool   `json:"downloaded"`
	Error       string `json:"error,omitempty"`
}

// IsImage reports whether the artifact renders inline.
func (a Artifact) IsImage() bool {
	return a.Type == ArtifactTypeImage
}

// FileInfo describes a downloadable file on disk, for UI listing.
type FileInfo struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
}
