package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery())
	app.Get("/validation", func(c *fiber.Ctx) error {
		utils.PanicIfNeeded(pkgError.ValidationError("user_id: cannot be blank."))
		return nil
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		utils.PanicIfNeeded(fmt.Errorf("get rule: %w", domain.ErrRuleNotFound))
		return nil
	})
	app.Get("/string", func(c *fiber.Ctx) error {
		panic("something odd")
	})

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/validation", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"/missing", http.StatusNotFound, "NOT_FOUND_ERROR"},
		{"/string", http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)

		var body utils.ResponseData
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tc.code, body.Code, tc.path)
		assert.NotEmpty(t, body.Message)
	}
}
