package alert

import (
	"dcim/pkg/core/logger"
	"dcim/system/alert/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate 执行告警组件的数据库迁移
func AutoMigrate(db *gorm.DB, log *logger.Log) error {
	log.Info("开始执行告警组件数据库迁移...")

	if err := db.AutoMigrate(
		&model.AlertHistory{},
		&model.AlertSettings{},
		&model.ThresholdOverride{},
	); err != nil {
		log.WithErr(err).Error("告警组件数据库迁移失败")
		return err
	}

	log.Info("告警组件数据库迁移完成")
	return nil
}
