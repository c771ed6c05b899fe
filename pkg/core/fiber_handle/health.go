package fiber_handle

import "github.com/gofiber/fiber/v2"

type HealthCheckConfig struct {
	Path string
	// Ready 返回非 nil 时健康检查返回 503
	Ready func() error
}

func HealthCheck(config HealthCheckConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() != config.Path {
			return c.Next()
		}
		if config.Ready != nil {
			if err := config.Ready(); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).SendString(err.Error())
			}
		}
		return c.Status(200).SendString("")
	}
}
