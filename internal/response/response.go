package response

import (
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Count   *int                  `json:"count,omitempty"`
	Data    interface{}           `json:"data,omitempty"`
	Errors  []services.FieldError `json:"errors,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// OK writes {success, data}.
func OK(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data})
}

// List writes {success, count, data}.
func List(c *fiber.Ctx, data interface{}, count int) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Count: &count, Data: data})
}

// Created writes a 201 with {success, message, data}.
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Message writes a 200 with {success, message} and optional data.
func Message(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Fail writes {success:false, message} with status.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// Invalid writes a 400 listing the rejected fields.
func Invalid(c *fiber.Ctx, ve *services.ValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{
		Success: false,
		Message: "validation failed",
		Errors:  ve.Errors,
	})
}

// Internal writes a 500. err is only exposed when showDetail is set.
func Internal(c *fiber.Ctx, message string, err error, showDetail bool) error {
	body := Envelope{Success: false, Message: message}
	if showDetail && err != nil {
		body.Error = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}
