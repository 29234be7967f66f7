package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"gostore/internal/services"
)

// errorItem is a single entry in the uniform error response body
// {"errors":[{"msg":...}]}. Success responses never carry this shape.
type errorItem struct {
	Msg string `json:"msg"`
}

func respondError(c *fiber.Ctx, status int, msgs ...string) error {
	items := make([]errorItem, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, errorItem{Msg: msg})
	}
	return c.Status(status).JSON(fiber.Map{"errors": items})
}

// respondValidationError renders validator failures as a field-message list.
func respondValidationError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("Field '%s' failed on the '%s' rule", e.Field(), e.Tag()))
		}
		return respondError(c, fiber.StatusBadRequest, msgs...)
	}
	return respondError(c, fiber.StatusBadRequest, "Invalid request body")
}

// respondServiceError maps a service error to the HTTP taxonomy. Anything
// outside the taxonomy is an internal fault: it is logged and reported with
// a generic message so no internal error text leaks to the client.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrBadRequest), errors.Is(err, services.ErrConflict):
		return respondError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrUnauthorized):
		return respondError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return respondError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, err.Error())
	default:
		logrus.WithError(err).Error("unexpected error")
		return respondError(c, fiber.StatusInternalServerError, "Unexpected error encountered")
	}
}
