package router

import (
	"dcim/app"
	"dcim/base"
	"dcim/pkg/core/fiber_handle"
	"dcim/pkg/core/logger"
	"dcim/system/alert"
	"dcim/system/asset"

	"github.com/gofiber/fiber/v2"
)

// Register 负责集中注册所有 HTTP 路由。
//   - 只依赖 app.App（业务编排入口）和 fiber.App（HTTP Server）。
//   - 不直接依赖任何 DAO / Service / system/internal 包。
//   - 不包含业务逻辑，只做分组与路由绑定。
func Register(a *app.App, f *fiber.App) {
	accessLog := logger.NewApiLogger(logger.Config{
		Logger: base.Logger,
		Skip: func(c *fiber.Ctx) bool {
			return c.Path() == alert.StreamPath
		},
	})

	api := f.Group("/api", fiber_handle.NewApiTracer(), accessLog)
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"msg": "ok"})
	})

	admin := f.Group("/admin", fiber_handle.NewApiTracer(), accessLog)

	// 资产层级查询
	asset.RegisterRoutes(a.AssetModule, api, admin)

	// 告警查询、处理、实时推送与阈值配置
	alert.RegisterRoutes(a.AlertModule, api, admin)
}
