package facade

import (
	"context"

	assetdto "dcim/system/asset/api/dto"
)

// IAssetFacade 资产组件对告警组件提供的外观接口
// asset/api/client.AssetClient 隐式实现了此接口
type IAssetFacade interface {
	// ResolveLineage 返回目标自身及其祖先链，目标不存在时返回 NotFound
	ResolveLineage(ctx context.Context, nodeType string, id int64) (*assetdto.Lineage, error)
}
