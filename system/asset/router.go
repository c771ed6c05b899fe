package asset

import (
	controller "dcim/system/asset/external/http"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册资产组件路由
func RegisterRoutes(m *Module, api, admin fiber.Router) {
	controller.NewAssetController(m.internalApp).RegisterRoutes(admin)
}
