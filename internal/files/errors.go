package files

import (
	"fmt"
)

// DownloadError indicates an artifact fetch or local write failed. Fatal
// for that one artifact only; the rest of a message still renders.
type DownloadError struct {
	FileID string
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.FileID, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// RetentionError indicates the cleanup sweep could not remove a file.
// Logged and swallowed: stale files beyond the cap are a soft failure.
type RetentionError struct {
	Path string
	Err  error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("retention: remove %s: %v", e.Path, e.Err)
}

func (e *RetentionError) Unwrap() error {
	return e.Err
}
