package fiber_handle

import (
	"errors"

	errorc "dcim/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

// ErrHandler 业务错误统一以 200 返回，错误码放在 status 字段
func ErrHandler(ctx *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return ctx.Status(e.Code).SendString(e.Message)
	}

	cError := errorc.ParseError(err)
	return ctx.Status(200).JSON(fiber.Map{"status": cError.Code, "message": cError.Msg, "errData": cError})
}
