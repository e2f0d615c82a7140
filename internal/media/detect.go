package media

import (
	"bytes"
	"errors"
)

// FileType is an image format recognized by its magic bytes
type FileType string

// Supported image formats
const (
	FileTypePNG  FileType = "png"
	FileTypeJPEG FileType = "jpeg"
	FileTypeGIF  FileType = "gif"
)

var (
	// ErrInvalidFileType is returned for data that is not a supported image
	ErrInvalidFileType = errors.New("invalid image type")
	// ErrFileTooLarge is returned when an image exceeds the configured size
	ErrFileTooLarge = errors.New("image exceeds size limit")
	// ErrEmptyFile is returned for zero-length uploads
	ErrEmptyFile = errors.New("image is empty")
)

var magicBytes = []struct {
	fileType  FileType
	signature []byte
}{
	{FileTypePNG, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{FileTypeJPEG, []byte{0xFF, 0xD8, 0xFF}},
	{FileTypeGIF, []byte{0x47, 0x49, 0x46, 0x38}},
}

// DetectFileType sniffs the image format from the leading bytes
func DetectFileType(data []byte) (FileType, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	for _, m := range magicBytes {
		if bytes.HasPrefix(data, m.signature) {
			return m.fileType, nil
		}
	}
	return "", ErrInvalidFileType
}

// ContentType returns the MIME type of the format
func (t FileType) ContentType() string {
	return "image/" + string(t)
}

// Ext returns the file extension including the dot
func (t FileType) Ext() string {
	if t == FileTypeJPEG {
		return ".jpg"
	}
	return "." + string(t)
}
