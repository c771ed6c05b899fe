package app

import (
	"context"

	"dcim/base"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/system/asset/api/dto"
	"dcim/system/asset/internal/dao"
	"dcim/system/asset/internal/service"
)

// App 资产组件应用层，只提供层级查询
type App struct {
	HierarchyDao *dao.HierarchyDao
	HierarchySvc *service.HierarchyService

	log *logger.Log
	err *errorc.ErrorBuilder
}

func NewApp() *App {
	log := base.Logger.WithEntryName("AssetApp")

	hierarchyDao := dao.NewHierarchyDao(base.DB, log)
	hierarchySvc := service.NewHierarchyService(hierarchyDao, base.Cache, base.Configures.Config.Alert.LineageCacheTTL, log)

	return &App{
		HierarchyDao: hierarchyDao,
		HierarchySvc: hierarchySvc,
		log:          log,
		err:          errorc.NewErrorBuilder("AssetApp"),
	}
}

func (a *App) ResolveLineage(ctx context.Context, nodeType string, id int64) (*dto.Lineage, error) {
	return a.HierarchySvc.ResolveLineage(ctx, nodeType, id)
}
