package start

import (
	"fmt"

	"dcim/pkg/core/fiber_handle"

	"github.com/gofiber/fiber/v2"
	recover2 "github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func GetApp(ready func() error) *fiber.App {
	app := fiber.New(
		fiber.Config{
			BodyLimit:    10 * 1024 * 1024,
			ErrorHandler: fiber_handle.ErrHandler,
			JSONEncoder:  json.Marshal,
			JSONDecoder:  json.Unmarshal,
		})
	app.Use(fiber_handle.Cors())
	app.Use(recover2.New(recover2.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			fmt.Printf("url：%s崩溃了。%+v\n", c.Path(), e)
		},
	}))
	app.Use(fiber_handle.HealthCheck(fiber_handle.HealthCheckConfig{Path: "/health", Ready: ready}))
	return app
}
