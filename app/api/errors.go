package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docqa/app/agent"
	"docqa/loader"
)

// ErrorHandler renders every error as JSON. Domain errors get their own
// status codes, anything unrecognised is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}

	apiErr = fromError(err)
	slog.Default().Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"code", apiErr.Code,
		"error", apiErr.Message,
	)
	return c.Status(apiErr.Code).JSON(apiErr)
}

func fromError(err error) Error {
	var fiberErr *fiber.Error
	var providerErr *agent.ProviderError
	switch {
	case errors.As(err, &fiberErr):
		return NewError(fiberErr.Code, fiberErr.Message)
	case errors.Is(err, loader.ErrInvalidPDF):
		return NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, loader.ErrFileNotFound):
		return NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &providerErr):
		return NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, agent.ErrNotConfigured):
		return NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return NewError(fiber.StatusInternalServerError, err.Error())
	}
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

// Error implements the Error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrMissingFile() Error {
	return Error{
		Code:    fiber.StatusUnprocessableEntity,
		Message: "multipart field 'file' is required",
	}
}
