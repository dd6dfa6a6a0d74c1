package photo

import (
	"slices"

	"pataalerta/internal/failure"
)

// MaxFileSize is the largest accepted source image.
const MaxFileSize = 5 * 1024 * 1024

// AllowedTypes lists the accepted source MIME types.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// File is a raw image as selected by the user.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// NewFile builds a File from its bytes.
func NewFile(name, contentType string, data []byte) *File {
	return &File{Name: name, ContentType: contentType, Size: int64(len(data)), Data: data}
}

// Validate checks presence, type and size, in that order.
func Validate(f *File) *failure.Failure {
	if f == nil || len(f.Data) == 0 {
		return failure.Validation("photo", "Photo is required")
	}
	if !slices.Contains(AllowedTypes, f.ContentType) {
		return failure.Validation("photo", "Invalid format. Use JPG, PNG or WebP")
	}
	if f.Size > MaxFileSize {
		return failure.Validation("photo", "Photo too large. Maximum 5MB")
	}
	return nil
}
