package asset

import (
	"dcim/pkg/core/logger"
	"dcim/system/asset/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate 执行资产组件的数据库迁移
func AutoMigrate(db *gorm.DB, log *logger.Log) error {
	log.Info("开始执行资产组件数据库迁移...")

	if err := db.AutoMigrate(
		&model.DataCenter{},
		&model.ServerRoom{},
		&model.Rack{},
		&model.Equipment{},
	); err != nil {
		log.WithErr(err).Error("资产组件数据库迁移失败")
		return err
	}

	log.Info("资产组件数据库迁移完成")
	return nil
}
