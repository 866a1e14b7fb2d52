package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk-service/internal/api/dto"
	"github.com/spec-kit/techdesk-service/internal/storage"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// UploadHandler stores and removes ticket photos.
type UploadHandler struct {
	photos *storage.PhotoStore
}

// NewUploadHandler constructs handler.
func NewUploadHandler(photos *storage.PhotoStore) *UploadHandler {
	return &UploadHandler{photos: photos}
}

// Upload handles POST /uploads/tickets with a multipart "file" field.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", map[string]any{"file": "missing"})
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file", nil)
	}
	defer f.Close()

	path, err := h.photos.Save(c.UserContext(), header.Header.Get(fiber.HeaderContentType), f)
	if err != nil {
		return uploadError(err)
	}
	return c.Status(http.StatusCreated).JSON(dto.UploadResponse{Path: path})
}

// Delete handles DELETE /uploads/tickets/:filename.
func (h *UploadHandler) Delete(c *fiber.Ctx) error {
	if err := h.photos.Delete(c.UserContext(), c.Params("filename")); err != nil {
		return uploadError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotImage):
		return apperrors.NewValidationError("only image uploads are accepted", nil)
	case errors.Is(err, storage.ErrTooLarge):
		return apperrors.NewValidationError("file too large", nil)
	case errors.Is(err, storage.ErrInvalidName):
		return apperrors.NewValidationError("invalid filename", nil)
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFound("photo", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
