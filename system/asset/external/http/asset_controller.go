package http

import (
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/result"
	"dcim/pkg/core/util"
	"dcim/system/asset/internal/app"
	"dcim/utils"

	"github.com/gofiber/fiber/v2"
)

// AssetController 资产层级查询
type AssetController struct {
	app *app.App
	log *logger.Log
	err *errorc.ErrorBuilder
}

func NewAssetController(app *app.App) *AssetController {
	return &AssetController{
		app: app,
		log: logger.GetLogger().WithEntryName("AssetController"),
		err: errorc.NewErrorBuilder("AssetController"),
	}
}

func (c *AssetController) RegisterRoutes(admin fiber.Router) {
	assets := admin.Group("/assets")
	assets.Get("/lineage", c.Lineage)
}

type LineageRequest struct {
	Type string `query:"type" json:"type" validate:"required,oneof=EQUIPMENT RACK SERVER_ROOM DATA_CENTER" comment:"资产类型"`
	ID   int64  `query:"id" json:"id" validate:"required,gt=0" comment:"资产ID"`
}

func (c *AssetController) Lineage(ctx *fiber.Ctx) error {
	var req LineageRequest
	if err := ctx.QueryParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx()
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}

	lineage, err := c.app.ResolveLineage(util.Context(ctx), req.Type, req.ID)
	return result.Once(ctx, lineage, err)
}
