package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/services"
	"github.com/craftlink-lk/craftlink-api/utils"
)

// UploadFile handles POST /api/v1/uploads. Multipart form with a "file"
// part and a "category" field (attachments, design-files, evidence,
// payment-slips). Responds with the storage key and a presigned GET URL;
// workflow entities store the key, never file bytes.
func UploadFile(c *gin.Context) {
	if requireUser(c) == nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A file part is required")
		return
	}

	category := c.PostForm("category")
	if !utils.ValidCategory(category) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown upload category")
		return
	}

	if err := utils.ValidateUploadFile(fileHeader); err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	s3 := services.GetS3Service()
	key, err := s3.UploadFile(fileHeader, category)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store file")
		return
	}

	url, err := s3.GetPresignedURL(key)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to generate file URL")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"key":      key,
			"url":      url,
			"filename": fileHeader.Filename,
		},
	})
}

// GetFileURL handles GET /api/v1/uploads/url?key=, refreshing a presigned
// URL for a stored key
func GetFileURL(c *gin.Context) {
	if requireUser(c) == nil {
		return
	}

	key := c.Query("key")
	if key == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A storage key is required")
		return
	}

	url, err := services.GetS3Service().GetPresignedURL(key)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to generate file URL")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"key": key,
			"url": url,
		},
	})
}
