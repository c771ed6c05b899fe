package asset

import (
	"dcim/system/asset/api/client"
	"dcim/system/asset/internal/app"
)

// Module 资产组件模块门面
// 告警组件只通过 Client 读取资产层级，不直接依赖内部实现
type Module struct {
	internalApp *app.App
	Client      *client.AssetClient
}

func NewModule() *Module {
	internalApp := app.NewApp()
	return &Module{
		internalApp: internalApp,
		Client:      client.NewAssetClient(internalApp),
	}
}
