package middlewares

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"

	"matka/helpers"
)

const AdminSignatureHeader = "X-Admin-Signature"

// AdminAuth accepts a request only when X-Admin-Signature is the hex
// HMAC-SHA256 of the raw body keyed with secret. An empty secret rejects
// everything.
func AdminAuth(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		if len(key) == 0 {
			return helpers.JSONFailure(c, fiber.StatusUnauthorized, "ADMIN_API_DISABLED", nil)
		}

		given, err := hex.DecodeString(c.Get(AdminSignatureHeader))
		if err != nil || len(given) == 0 {
			return helpers.JSONFailure(c, fiber.StatusUnauthorized, "INVALID_SIGNATURE", nil)
		}

		if !hmac.Equal(given, Sign(key, c.Body())) {
			return helpers.JSONFailure(c, fiber.StatusUnauthorized, "INVALID_SIGNATURE", nil)
		}

		return c.Next()
	}
}

func Sign(key, body []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(body)
	return h.Sum(nil)
}
