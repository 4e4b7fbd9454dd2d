package bill

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// InvalidFileTypeMessage is shown to the employee when a justification file is rejected
const InvalidFileTypeMessage = "Seuls les justificatifs au format JPEG, JPG ou PNG sont acceptés."

var ErrInvalidFileType = errors.New("invalid file type")

// ValidationError reports a justification file that is not an accepted image
type ValidationError struct {
	FileName    string
	ContentType string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid file type %q for %q", e.ContentType, e.FileName)
}

// Message returns the text displayed next to the file input
func (e *ValidationError) Message() string {
	return InvalidFileTypeMessage
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidFileType
}

var acceptedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// ContentType resolves the media type of a file from its declared type,
// falling back to the file extension when nothing useful was declared.
func ContentType(filename, declared string) string {
	if declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err != nil {
			mediaType = strings.ToLower(strings.TrimSpace(declared))
		}
		if mediaType != "" && mediaType != "application/octet-stream" {
			return mediaType
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// AcceptedFile reports whether a file may be attached to a bill
func AcceptedFile(filename, declared string) bool {
	return acceptedContentTypes[ContentType(filename, declared)]
}

// ValidateFile returns a *ValidationError when the file is not an accepted image
func ValidateFile(filename, declared string) error {
	if !AcceptedFile(filename, declared) {
		return &ValidationError{FileName: filename, ContentType: declared}
	}
	return nil
}
