package files

import (
	"path"
	"strings"

	"github.com/foundry-demos/code-interpreter-chat/internal/model"
)

// ExtensionFor determines the local file extension for an artifact.
// Explicit metadata wins; otherwise images are PNG and data files are
// sniffed from the annotation text, defaulting to CSV.
func ExtensionFor(a model.Artifact) string {
	if a.Extension != "" {
		return a.Extension
	}

	switch a.Type {
	case model.ArtifactTypeImage:
		return ".png"
	case model.ArtifactTypeFile:
		text := strings.ToLower(a.AnnotationText)
		switch {
		case strings.Contains(text, "csv"):
			return ".csv"
		case strings.Contains(text, "json"):
			return ".json"
		case strings.Contains(text, "txt"), strings.Contains(text, "text"):
			return ".txt"
		}
		return ".csv"
	}
	return ".dat"
}

// MIMETypeFor maps an artifact to the content type used for downloads.
func MIMETypeFor(a model.Artifact) string {
	ext := ExtensionFor(a)
	if a.Type == model.ArtifactTypeImage || ext == ".png" {
		return "image/png"
	}
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	}
	return "application/octet-stream"
}

// DisplayNameFor derives a user-facing name for an artifact, preferring
// the basename of a path-like annotation.
func DisplayNameFor(a model.Artifact) string {
	if a.IsImage() {
		return "Generated Chart"
	}
	if a.AnnotationText != "" {
		text := a.AnnotationText
		if strings.ContainsAny(text, "/\\") {
			return path.Base(strings.ReplaceAll(text, "\\", "/"))
		}
		return "Data File (" + text + ")"
	}
	return "Generated File"
}

// LocalNameFor builds the collision-free on-disk name: the remote file id
// plus the inferred extension.
func LocalNameFor(a model.Artifact) string {
	return a.FileID + ExtensionFor(a)
}
