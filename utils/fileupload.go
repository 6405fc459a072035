package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// Upload categories, used as storage key prefixes
const (
	CategoryAttachment  = "attachments"
	CategoryDesignFile  = "design-files"
	CategoryEvidence    = "evidence"
	CategoryPaymentSlip = "payment-slips"
)

// allowedExtensions covers images, design artifacts, and payment slips
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".pdf":  true,
	".svg":  true,
	".ai":   true,
	".psd":  true,
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateUploadFile validates the uploaded file extension and size
func ValidateUploadFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("File type %q is not allowed", ext),
		}
	}

	return nil
}

// ValidCategory reports whether the requested upload category exists
func ValidCategory(category string) bool {
	switch category {
	case CategoryAttachment, CategoryDesignFile, CategoryEvidence, CategoryPaymentSlip:
		return true
	}
	return false
}
