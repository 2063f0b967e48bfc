package middleware

import "github.com/gofiber/fiber/v2"

// resolve renders a handler error through the app's ErrorHandler so the
// response status is final before it is logged or counted. The error is
// consumed.
func resolve(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	if herr := c.App().ErrorHandler(c, err); herr != nil {
		_ = c.SendStatus(fiber.StatusInternalServerError)
	}
	return nil
}
