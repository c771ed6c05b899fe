package alert

import (
	controller "dcim/system/alert/external/http"

	"github.com/gofiber/fiber/v2"
)

// StreamPath 长连接路径，访问日志中间件需要跳过
const StreamPath = "/api/alerts/stream"

// RegisterRoutes 注册告警组件的所有 HTTP 路由
func RegisterRoutes(m *Module, api, admin fiber.Router) {
	// 推送接口需先于 /alerts/:id 注册
	controller.NewStreamController(m.internalApp).RegisterRoutes(api)
	controller.NewAlertController(m.internalApp).RegisterRoutes(api)

	controller.NewSettingsController(m.internalApp).RegisterRoutes(admin)
}
