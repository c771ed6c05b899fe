package logger

import (
	"strings"
	"time"

	errorc "dcim/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	Logger *Log
	// Skip 返回 true 的请求不记录访问日志，长连接推送使用
	Skip func(c *fiber.Ctx) bool
}

// NewApiLogger 访问日志中间件
func NewApiLogger(config Config) fiber.Handler {
	log := config.Logger.WithEntryName("API")

	return func(c *fiber.Ctx) error {
		if config.Skip != nil && config.Skip(c) {
			return c.Next()
		}

		path := strings.SplitN(c.OriginalURL(), "?", 2)[0]
		start := time.Now()

		err := c.Next()

		entry := log.WithField("status", c.Response().StatusCode()).
			WithField("latency", time.Since(start).Round(time.Millisecond)).
			WithField("method", c.Method()).
			WithField("path", path).
			WithField("TraceId", c.Locals("traceId"))

		if err != nil {
			errc := errorc.ParseError(err)
			entry.WithField("Err", errc.RootCause()).Warn("请求处理失败")
			return err
		}
		entry.Debug("请求处理完毕")
		return nil
	}
}
