package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/kiosk-service/pkg/util"
)

// LinkQueryParam carries the status-link token on visitor routes.
const LinkQueryParam = "t"

// RequireStatusLink rejects visitor requests whose link token does not match
// the :id route parameter.
func RequireStatusLink(signer *LinkSigner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := signer.Verify(c.Query(LinkQueryParam), c.Params("id")); err != nil {
			return apperrors.NewForbidden("invalid or expired status link")
		}
		return c.Next()
	}
}
