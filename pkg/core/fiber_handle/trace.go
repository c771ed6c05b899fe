package fiber_handle

import (
	"context"

	"dcim/pkg/core/consts"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/satori/go.uuid"
)

// TraceHeaderName 上游透传的链路ID请求头
const TraceHeaderName = "X-Trace-Id"

// NewApiTracer 为每个请求生成或沿用链路ID，写入 UserContext 与 Locals
func NewApiTracer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceHeaderName)
		if traceID == "" {
			traceID = uuid.NewV4().String()
		}
		c.SetUserContext(context.WithValue(c.UserContext(), consts.TraceKey, traceID))
		c.Locals("traceId", traceID)
		c.Set(TraceHeaderName, traceID)
		return c.Next()
	}
}
