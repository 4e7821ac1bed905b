package rest

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary Upload an image
// @Description Stores the image in object storage and returns its public URL
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Param folder formData string false "businesses, categories or staff"
// @Success 201 {object} urlResponse
// @Failure 400 {object} errorResponseBody
// @Failure 413 {object} errorResponseBody
// @Failure 503 {object} errorResponseBody "Storage not configured"
// @Security ApiKeyAuth
// @Router /upload [post]
func (h *Handler) uploadImage(c *gin.Context) {
	maxBytes := int64(h.config.HTTP.MaxUploadMB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.Warn("missing upload file", zap.Error(err))
		badRequestResponse(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.serviceErrorResponse(c, err, "open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	url, err := h.services.Upload.UploadImage(c.Request.Context(), data, fileHeader.Filename, c.PostForm("folder"))
	if err != nil {
		h.serviceErrorResponse(c, err, "upload image")
		return
	}

	createdResponse(c, urlResponse{URL: url})
}
