package app

import (
	"dcim/system/alert"
	"dcim/system/asset"
)

// App 组合根，只负责按依赖顺序创建各组件模块
type App struct {
	AssetModule *asset.Module
	AlertModule *alert.Module
}

func NewApp() *App {
	assetModule := asset.NewModule()

	// 告警组件通过 asset.Client 读取资产层级
	alertModule := alert.NewModule(assetModule.Client)

	return &App{
		AssetModule: assetModule,
		AlertModule: alertModule,
	}
}
