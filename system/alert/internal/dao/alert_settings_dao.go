package dao

import (
	"context"
	"errors"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/mvc"
	"dcim/system/alert/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertSettingsDao 全局告警设置
type AlertSettingsDao struct {
	mvc.IBaseDao[model.AlertSettings]
	log *logger.Log
	err *errorc.ErrorBuilder
	DB  *gorm.DB
}

func NewAlertSettingsDao(db *gorm.DB, log *logger.Log) *AlertSettingsDao {
	return &AlertSettingsDao{
		IBaseDao: mvc.NewGormDao[model.AlertSettings](db),
		log:      log.WithEntryName("AlertSettingsDao"),
		err:      errorc.NewErrorBuilder("AlertSettingsDao"),
		DB:       db,
	}
}

func (d *AlertSettingsDao) GetGlobal(ctx context.Context) (*model.AlertSettings, error) {
	var settings model.AlertSettings
	err := d.DB.WithContext(ctx).First(&settings, model.GlobalSettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, d.err.New("全局告警设置不存在", err).NotFound().WithTraceID(ctx)
	}
	if err != nil {
		return nil, d.err.New("查询全局告警设置失败", err).DB().WithTraceID(ctx)
	}
	return &settings, nil
}

// SaveGlobal 整行覆盖写入全局设置
func (d *AlertSettingsDao) SaveGlobal(ctx context.Context, settings *model.AlertSettings) error {
	settings.ID = model.GlobalSettingsID
	if err := d.DB.WithContext(ctx).Save(settings).Error; err != nil {
		return d.err.New("保存全局告警设置失败", err).DB().WithTraceID(ctx)
	}
	return nil
}

// CreateIfAbsent 已存在时不做修改，返回是否新建
func (d *AlertSettingsDao) CreateIfAbsent(ctx context.Context, settings *model.AlertSettings) (bool, error) {
	settings.ID = model.GlobalSettingsID
	result := d.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(settings)
	if result.Error != nil {
		return false, d.err.New("初始化全局告警设置失败", result.Error).DB().WithTraceID(ctx)
	}
	return result.RowsAffected > 0, nil
}
