package rest

import (
	"time"

	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/gofiber/fiber/v2"
)

// queryTime reads an RFC 3339 timestamp or a YYYY-MM-DD date (UTC midnight)
// from the query string. A missing key yields the zero time.
func queryTime(c *fiber.Ctx, key string) time.Time {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(pkgError.ValidationError(key + ": must be RFC 3339 or YYYY-MM-DD"))
	}
	return t
}

func parseBody(c *fiber.Ctx, out any) {
	if err := c.BodyParser(out); err != nil {
		panic(pkgError.ValidationError("invalid request body: " + err.Error()))
	}
}
