package webapi

import "github.com/gofiber/fiber/v2"

// Response is the uniform success envelope.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails is the uniform error envelope.
type ProblemDetails struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Status int    `json:"status"`
}

// SuccessResponseJSON writes a success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Message: message, Data: data})
}

// ProblemDetailsJSON writes an error envelope.
func ProblemDetailsJSON(c *fiber.Ctx, status int, title, detail string) error {
	return c.Status(status).JSON(ProblemDetails{Title: title, Detail: detail, Status: status})
}
