package helper

import "github.com/gofiber/fiber/v2"

// FromFiberError convierte el error devuelto por un Transaction (normalmente *fiber.Error)
// en una respuesta JSON consistente. Si no es *fiber.Error, cae a 500 con el mensaje original.
func FromFiberError(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, err.Error())
}
