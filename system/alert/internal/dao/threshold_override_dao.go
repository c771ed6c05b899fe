package dao

import (
	"context"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/mvc"
	"dcim/system/alert/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ThresholdOverrideDao 目标阈值覆盖
type ThresholdOverrideDao struct {
	mvc.IBaseDao[model.ThresholdOverride]
	log *logger.Log
	err *errorc.ErrorBuilder
	DB  *gorm.DB
}

func NewThresholdOverrideDao(db *gorm.DB, log *logger.Log) *ThresholdOverrideDao {
	return &ThresholdOverrideDao{
		IBaseDao: mvc.NewGormDao[model.ThresholdOverride](db),
		log:      log.WithEntryName("ThresholdOverrideDao"),
		err:      errorc.NewErrorBuilder("ThresholdOverrideDao"),
		DB:       db,
	}
}

func (d *ThresholdOverrideDao) FindAll(ctx context.Context) ([]*model.ThresholdOverride, error) {
	var list []*model.ThresholdOverride
	if err := d.DB.WithContext(ctx).Order("target_type, target_id, metric_type").Find(&list).Error; err != nil {
		return nil, d.err.New("查询阈值覆盖失败", err).DB().WithTraceID(ctx)
	}
	return list, nil
}

func (d *ThresholdOverrideDao) FindByTarget(ctx context.Context, targetType model.TargetType, targetID int64) ([]*model.ThresholdOverride, error) {
	var list []*model.ThresholdOverride
	err := d.DB.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("metric_type").
		Find(&list).Error
	if err != nil {
		return nil, d.err.New("查询阈值覆盖失败", err).DB().WithTraceID(ctx)
	}
	return list, nil
}

// Upsert 同一 目标+指标类型 只保留一条
func (d *ThresholdOverrideDao) Upsert(ctx context.Context, o *model.ThresholdOverride) (*model.ThresholdOverride, error) {
	err := d.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "target_type"}, {Name: "target_id"}, {Name: "metric_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"warning", "critical", "consecutive_count", "cooldown_minutes", "enabled", "updated_at",
		}),
	}).Create(o).Error
	if err != nil {
		return nil, d.err.New("保存阈值覆盖失败", err).DB().WithTraceID(ctx)
	}

	var saved model.ThresholdOverride
	err = d.DB.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND metric_type = ?", o.TargetType, o.TargetID, o.MetricType).
		First(&saved).Error
	if err != nil {
		return nil, d.err.New("查询阈值覆盖失败", err).DB().WithTraceID(ctx)
	}
	return &saved, nil
}

// HardDelete 覆盖删除后唯一键需要可复用，不做软删除
func (d *ThresholdOverrideDao) HardDelete(ctx context.Context, id int64) error {
	result := d.DB.WithContext(ctx).Unscoped().Delete(&model.ThresholdOverride{}, id)
	if result.Error != nil {
		return d.err.New("删除阈值覆盖失败", result.Error).DB().WithTraceID(ctx)
	}
	if result.RowsAffected == 0 {
		return d.err.New("阈值覆盖不存在", nil).NotFound().WithTraceID(ctx)
	}
	return nil
}
