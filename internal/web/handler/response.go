package handler

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/keyward/keyward/internal/iamerr"
)

// MsgInvalidLogin is the single message for unknown accounts and wrong passwords.
const MsgInvalidLogin = "invalid account or password"

// Response is the JSON envelope of every API response.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// LockedData is the payload of a 423 response.
type LockedData struct {
	LockedUntil time.Time `json:"lockedUntil"`
}

// Page is the payload of paginated lists.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

var validate = newValidator() //nolint:gochecknoglobals

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}

		return name
	})

	return v
}

// OK sends data with status 200.
func OK(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{Code: fiber.StatusOK, Message: "ok", Data: data})
}

// Created sends data with status 201.
func Created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Code: fiber.StatusCreated, Message: "created", Data: data})
}

// Bind decodes the request body into v and validates it.
func Bind(c fiber.Ctx, v any) error {
	if err := c.Bind().Body(v); err != nil {
		return iamerr.Invalid("body", "malformed request body")
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return iamerr.Invalid(fe.Field(), "failed on "+fe.Tag())
		}

		return iamerr.Invalid("body", err.Error())
	}

	return nil
}

// ParseID reads a positive integer path parameter.
func ParseID(c fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, iamerr.Invalid(name, "must be a positive integer")
	}

	return id, nil
}

// ParseSmallID reads a positive integer path parameter addressing a role or permission.
func ParseSmallID(c fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, iamerr.Invalid(name, "must be a positive integer")
	}

	return uint(id), nil
}

// Paging reads the page and size query parameters.
func Paging(c fiber.Ctx) (page, size int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err = strconv.Atoi(c.Query("size"))
	if err != nil || size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return page, size
}

// ErrorHandler renders errors as a Response with the matching status code.
func ErrorHandler(c fiber.Ctx, err error) error {
	code, msg, data := classify(err)

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(code).JSON(Response{Code: code, Message: msg, Data: data})
}

func classify(err error) (int, string, any) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message, nil
	}

	var ie *iamerr.Error

	switch {
	case errors.Is(err, iamerr.ErrResolutionFailed):
		return fiber.StatusServiceUnavailable, "access could not be verified", nil
	case errors.Is(err, iamerr.ErrAccountLocked):
		if errors.As(err, &ie) {
			return fiber.StatusLocked, err.Error(), LockedData{LockedUntil: ie.Until}
		}

		return fiber.StatusLocked, err.Error(), nil
	case errors.Is(err, iamerr.ErrNotFound):
		return fiber.StatusNotFound, err.Error(), nil
	case errors.Is(err, iamerr.ErrConflict):
		return fiber.StatusConflict, err.Error(), nil
	case errors.Is(err, iamerr.ErrForbidden), errors.Is(err, iamerr.ErrAccountDisabled):
		return fiber.StatusForbidden, err.Error(), nil
	case errors.Is(err, iamerr.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, err.Error(), nil
	case errors.Is(err, iamerr.ErrValidationFailed):
		return fiber.StatusBadRequest, err.Error(), nil
	default:
		return fiber.StatusInternalServerError, "internal server error", nil
	}
}
