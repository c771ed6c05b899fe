package util

import (
	"context"

	"dcim/pkg/core/consts"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/satori/go.uuid"
)

// Context 取请求的 UserContext，缺少链路ID时补一个
func Context(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx.Value(consts.TraceKey) == nil {
		return context.WithValue(ctx, consts.TraceKey, uuid.NewV4().String())
	}
	return ctx
}
