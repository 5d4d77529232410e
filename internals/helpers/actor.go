package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GetActorFromToken obtiene el nombre de usuario del token ya validado por el
// middleware AuthJWT. Se usa como "actor" en la bitácora de recibos.
func GetActorFromToken(c *fiber.Ctx) string {
	claims, ok := c.Locals("jwt_claims").(jwt.MapClaims)
	if !ok {
		return "sistema"
	}
	for _, k := range []string{"usuario", "user_name", "sub"} {
		if v, ok := claims[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "sistema"
}
