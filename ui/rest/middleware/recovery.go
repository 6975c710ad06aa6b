package middleware

import (
	"fmt"

	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	"github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				if typed, ok := err.(error); ok {
					mapped := pkgError.FromDomain(typed)
					res.Status = mapped.StatusCode()
					res.Code = mapped.ErrCode()
					res.Message = mapped.Error()
				}

				if res.Status >= 500 {
					logrus.Errorf("[HTTP] Panic recovered in middleware: %v", err)
				} else {
					logrus.Debugf("[HTTP] Request rejected: %v", err)
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
