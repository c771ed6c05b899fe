package app

import (
	"dcim/base"
	"dcim/pkg/core/start"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func GetApp() *fiber.App {
	app := start.GetApp(ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	return app
}

// ready 数据库可用时才接收流量
func ready() error {
	sqlDB, err := base.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
