package service

import (
	"context"
	"fmt"
	"time"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/system/asset/api/dto"
	"dcim/system/asset/internal/dao"

	"github.com/go-redis/cache/v9"
)

const lineageCachePrefix = "dcim:asset:lineage:"

// HierarchyService 解析资产的祖先链
type HierarchyService struct {
	dao   *dao.HierarchyDao
	cache *cache.Cache
	ttl   time.Duration
	log   *logger.Log
	err   *errorc.ErrorBuilder
}

// NewHierarchyService cache 为 nil 时每次直接查库
func NewHierarchyService(dao *dao.HierarchyDao, c *cache.Cache, ttl time.Duration, log *logger.Log) *HierarchyService {
	return &HierarchyService{
		dao:   dao,
		cache: c,
		ttl:   ttl,
		log:   log.WithEntryName("HierarchyService"),
		err:   errorc.NewErrorBuilder("HierarchyService"),
	}
}

// ResolveLineage 返回 nodeType/id 自身及其全部祖先
func (s *HierarchyService) ResolveLineage(ctx context.Context, nodeType string, id int64) (*dto.Lineage, error) {
	switch nodeType {
	case dto.NodeEquipment, dto.NodeRack, dto.NodeServerRoom, dto.NodeDataCenter:
	default:
		return nil, s.err.New(fmt.Sprintf("不支持的资产类型: %s", nodeType), nil).ValidWithCtx()
	}

	if s.cache == nil || s.ttl <= 0 {
		return s.load(ctx, nodeType, id)
	}

	var lineage dto.Lineage
	err := s.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   fmt.Sprintf("%s%s:%d", lineageCachePrefix, nodeType, id),
		Value: &lineage,
		TTL:   s.ttl,
		Do: func(item *cache.Item) (interface{}, error) {
			return s.load(item.Context(), nodeType, id)
		},
	})
	if err != nil {
		return nil, err
	}
	return &lineage, nil
}

func (s *HierarchyService) load(ctx context.Context, nodeType string, id int64) (*dto.Lineage, error) {
	lineage := &dto.Lineage{}
	nextType, nextID := nodeType, id

	for nextType != "" {
		var (
			node     dto.Node
			parentID int64
			parent   string
		)
		switch nextType {
		case dto.NodeEquipment:
			e, err := s.dao.FindEquipment(ctx, nextID)
			if err != nil {
				return s.partial(ctx, lineage, err)
			}
			node = dto.Node{Type: nextType, ID: e.ID, Name: e.Name, MonitoringEnabled: e.MonitoringEnabled}
			parent, parentID = dto.NodeRack, e.RackID
		case dto.NodeRack:
			r, err := s.dao.FindRack(ctx, nextID)
			if err != nil {
				return s.partial(ctx, lineage, err)
			}
			node = dto.Node{Type: nextType, ID: r.ID, Name: r.Name, MonitoringEnabled: r.MonitoringEnabled}
			parent, parentID = dto.NodeServerRoom, r.ServerRoomID
		case dto.NodeServerRoom:
			sr, err := s.dao.FindServerRoom(ctx, nextID)
			if err != nil {
				return s.partial(ctx, lineage, err)
			}
			node = dto.Node{Type: nextType, ID: sr.ID, Name: sr.Name, MonitoringEnabled: sr.MonitoringEnabled}
			parent, parentID = dto.NodeDataCenter, sr.DataCenterID
		case dto.NodeDataCenter:
			dc, err := s.dao.FindDataCenter(ctx, nextID)
			if err != nil {
				return s.partial(ctx, lineage, err)
			}
			node = dto.Node{Type: nextType, ID: dc.ID, Name: dc.Name, MonitoringEnabled: dc.MonitoringEnabled}
		}
		lineage.Chain = append(lineage.Chain, node)
		nextType, nextID = parent, parentID
	}
	return lineage, nil
}

// partial 目标本身不存在时报错，祖先缺失时截断祖先链
func (s *HierarchyService) partial(ctx context.Context, lineage *dto.Lineage, err error) (*dto.Lineage, error) {
	if len(lineage.Chain) == 0 || !errorc.IsNotFound(err) {
		return nil, err
	}
	target := lineage.Target()
	s.log.WithTrace(ctx).WithField("type", target.Type).WithField("id", target.ID).
		Warn("资产的上级节点不存在，祖先链被截断")
	return lineage, nil
}
