package dao

import (
	"context"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/mvc"
	"dcim/system/alert/internal/model"

	"gorm.io/gorm"
)

// AlertHistoryDao 告警记录数据访问层
type AlertHistoryDao struct {
	mvc.IBaseDao[model.AlertHistory]
	log *logger.Log
	err *errorc.ErrorBuilder
	DB  *gorm.DB
}

func NewAlertHistoryDao(db *gorm.DB, log *logger.Log) *AlertHistoryDao {
	return &AlertHistoryDao{
		IBaseDao: mvc.NewGormDao[model.AlertHistory](db),
		log:      log.WithEntryName("AlertHistoryDao"),
		err:      errorc.NewErrorBuilder("AlertHistoryDao"),
		DB:       db,
	}
}

// Transition 仅当当前状态属于 from 时更新，返回受影响行数
func (d *AlertHistoryDao) Transition(ctx context.Context, id int64, from []model.AlertStatus, updates map[string]interface{}) (int64, error) {
	result := d.DB.WithContext(ctx).Model(&model.AlertHistory{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return 0, d.err.New("更新告警状态失败", result.Error).DB().WithTraceID(ctx)
	}
	return result.RowsAffected, nil
}

// AlertQuery 告警查询条件，空值不参与过滤
type AlertQuery struct {
	Status     model.AlertStatus
	TargetType model.TargetType
	TargetID   int64
}

func (q AlertQuery) apply(db *gorm.DB) *gorm.DB {
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.TargetType != "" {
		db = db.Where("target_type = ?", q.TargetType)
	}
	if q.TargetID > 0 {
		db = db.Where("target_id = ?", q.TargetID)
	}
	return db
}

// Find 按触发时间倒序
func (d *AlertHistoryDao) Find(ctx context.Context, q AlertQuery) ([]*model.AlertHistory, error) {
	var list []*model.AlertHistory
	err := q.apply(d.DB.WithContext(ctx).Model(&model.AlertHistory{})).
		Order("triggered_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, d.err.New("查询告警失败", err).DB().WithTraceID(ctx)
	}
	return list, nil
}

func (d *AlertHistoryDao) FindPage(ctx context.Context, page *mvc.Page, q AlertQuery) ([]*model.AlertHistory, int64, error) {
	var (
		list  []*model.AlertHistory
		total int64
	)
	db := q.apply(d.DB.WithContext(ctx).Model(&model.AlertHistory{}))
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, d.err.New("统计告警数量失败", err).DB().WithTraceID(ctx)
	}
	err := db.Scopes(mvc.Paginate(page)).
		Order("triggered_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, 0, d.err.New("分页查询告警失败", err).DB().WithTraceID(ctx)
	}
	return list, total, nil
}
