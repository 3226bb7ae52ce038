package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerLink/internal/app/model"
	"github.com/sifan077/PowerLink/internal/app/service"
	"github.com/sifan077/PowerLink/internal/infra/backend"
	"go.uber.org/zap"
)

// statusFor maps a service error to the HTTP status and message shown to the client.
func statusFor(err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusUnprocessableEntity, verr.Error()
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidIndex):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrLinkNotFound), errors.Is(err, service.ErrProfileNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrRecordBusy):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, service.ErrLimitExceeded):
		return fiber.StatusForbidden, service.ErrLimitExceeded.Error()
	case service.HTTPStatus(err) == http.StatusUnauthorized:
		return fiber.StatusUnauthorized, "backend session expired, please log in again"
	case service.HTTPStatus(err) == http.StatusUnprocessableEntity:
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrPersistenceFailure), service.HTTPStatus(err) != 0:
		return fiber.StatusBadGateway, err.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// writeError answers with the mapped status. Backend field errors are passed through.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status, message := statusFor(err)
	if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	body := fiber.Map{"error": message}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		body["errors"] = apiErr.Errors
	}
	return c.Status(status).JSON(body)
}

// readUpload returns the file sent in field, or nil when the request has none.
func readUpload(c *fiber.Ctx, field string, maxBytes int64) (*model.Upload, error) {
	if form, err := c.MultipartForm(); err != nil || len(form.File[field]) == 0 {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, &service.ValidationError{Field: field, Message: "file is too large"}
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*model.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &model.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
