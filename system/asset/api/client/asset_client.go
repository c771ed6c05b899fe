package client

import (
	"context"

	"dcim/system/asset/api/dto"
	"dcim/system/asset/internal/app"
)

// AssetClient 资产组件对外客户端
type AssetClient struct {
	app *app.App
}

func NewAssetClient(app *app.App) *AssetClient {
	return &AssetClient{app: app}
}

// ResolveLineage 获取目标及其祖先链，目标不存在时返回 NotFound
func (c *AssetClient) ResolveLineage(ctx context.Context, nodeType string, id int64) (*dto.Lineage, error) {
	return c.app.ResolveLineage(ctx, nodeType, id)
}
