package dao

import (
	"context"
	"errors"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/system/asset/internal/model"

	"gorm.io/gorm"
)

// HierarchyDao 资产层级只读查询
type HierarchyDao struct {
	log *logger.Log
	err *errorc.ErrorBuilder
	DB  *gorm.DB
}

func NewHierarchyDao(db *gorm.DB, log *logger.Log) *HierarchyDao {
	return &HierarchyDao{
		log: log.WithEntryName("HierarchyDao"),
		err: errorc.NewErrorBuilder("HierarchyDao"),
		DB:  db,
	}
}

func (d *HierarchyDao) first(ctx context.Context, dest interface{}, id int64, what string) error {
	err := d.DB.WithContext(ctx).First(dest, id).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return d.err.New(what+"不存在", err).NotFound().WithTraceID(ctx)
	}
	return d.err.New("查询"+what+"失败", err).DB().WithTraceID(ctx)
}

func (d *HierarchyDao) FindEquipment(ctx context.Context, id int64) (*model.Equipment, error) {
	var result model.Equipment
	if err := d.first(ctx, &result, id, "设备"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (d *HierarchyDao) FindRack(ctx context.Context, id int64) (*model.Rack, error) {
	var result model.Rack
	if err := d.first(ctx, &result, id, "机柜"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (d *HierarchyDao) FindServerRoom(ctx context.Context, id int64) (*model.ServerRoom, error) {
	var result model.ServerRoom
	if err := d.first(ctx, &result, id, "机房"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (d *HierarchyDao) FindDataCenter(ctx context.Context, id int64) (*model.DataCenter, error) {
	var result model.DataCenter
	if err := d.first(ctx, &result, id, "数据中心"); err != nil {
		return nil, err
	}
	return &result, nil
}
