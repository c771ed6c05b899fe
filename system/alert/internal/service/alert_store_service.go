package service

import (
	"context"
	"fmt"
	"time"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/mvc"
	"dcim/pkg/metrics"
	"dcim/system/alert/internal/dao"
	"dcim/system/alert/internal/model"
)

// AlertPublisher 告警状态变化的推送出口
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *model.AlertHistory) int
}

// BatchResult 批量操作中单条告警的结果，Err 为空表示成功
type BatchResult struct {
	AlertID int64
	Alert   *model.AlertHistory
	Err     error
}

// AlertStoreService 告警生命周期：TRIGGERED → ACKNOWLEDGED → RESOLVED，或 TRIGGERED → RESOLVED
type AlertStoreService struct {
	mvc.IBaseService[model.AlertHistory]
	dao       *dao.AlertHistoryDao
	publisher AlertPublisher
	now       func() time.Time
	log       *logger.Log
	err       *errorc.ErrorBuilder
}

func NewAlertStoreService(dao *dao.AlertHistoryDao, publisher AlertPublisher, log *logger.Log) *AlertStoreService {
	return &AlertStoreService{
		IBaseService: mvc.NewBaseService[model.AlertHistory](dao),
		dao:          dao,
		publisher:    publisher,
		now:          time.Now,
		log:          log.WithEntryName("AlertStoreService"),
		err:          errorc.NewErrorBuilder("AlertStoreService"),
	}
}

// Create 新告警状态固定为 TRIGGERED，写入后推送
func (s *AlertStoreService) Create(ctx context.Context, alert *model.AlertHistory) (*model.AlertHistory, error) {
	alert.Status = model.StatusTriggered
	alert.AcknowledgedBy, alert.AcknowledgedAt = nil, nil
	alert.ResolvedBy, alert.ResolvedAt = nil, nil
	if alert.TriggeredAt.IsZero() {
		alert.TriggeredAt = s.now()
	}
	if err := s.dao.Create(ctx, alert); err != nil {
		return nil, s.err.New("保存告警失败", err).WithTraceID(ctx)
	}
	metrics.AlertsTriggeredTotal.WithLabelValues(string(alert.Level), string(alert.MetricType)).Inc()
	s.publish(ctx, alert)
	return alert, nil
}

func (s *AlertStoreService) Get(ctx context.Context, id int64) (*model.AlertHistory, error) {
	alert, err := s.dao.FindById(ctx, id)
	if err != nil {
		if errorc.IsNotFound(err) {
			return nil, s.err.New(fmt.Sprintf("告警 %d 不存在", id), err).NotFound().WithTraceID(ctx)
		}
		return nil, s.err.New("查询告警失败", err).WithTraceID(ctx)
	}
	return alert, nil
}

// Acknowledge 已确认时幂等返回，已解决时拒绝
func (s *AlertStoreService) Acknowledge(ctx context.Context, id int64, byUser int64) (*model.AlertHistory, error) {
	now := s.now()
	rows, err := s.dao.Transition(ctx, id, []model.AlertStatus{model.StatusTriggered}, map[string]interface{}{
		"status":          model.StatusAcknowledged,
		"acknowledged_by": byUser,
		"acknowledged_at": now,
	})
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, id, model.StatusAcknowledged, rows > 0)
}

// Resolve 已解决时幂等返回，并发解决时第一个提交的解决时间生效
func (s *AlertStoreService) Resolve(ctx context.Context, id int64, byUser int64) (*model.AlertHistory, error) {
	now := s.now()
	rows, err := s.dao.Transition(ctx, id, []model.AlertStatus{model.StatusTriggered, model.StatusAcknowledged}, map[string]interface{}{
		"status":      model.StatusResolved,
		"resolved_by": byUser,
		"resolved_at": now,
	})
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, id, model.StatusResolved, rows > 0)
}

// settle 条件更新之后重新读取，未命中时根据当前状态区分不存在、幂等与非法转移
func (s *AlertStoreService) settle(ctx context.Context, id int64, to model.AlertStatus, applied bool) (*model.AlertHistory, error) {
	alert, err := s.Get(ctx, id)
	if err != nil {
		if errorc.IsNotFound(err) {
			metrics.AlertTransitionsTotal.WithLabelValues(string(to), "rejected").Inc()
		}
		return nil, err
	}

	if applied {
		metrics.AlertTransitionsTotal.WithLabelValues(string(to), "applied").Inc()
		s.log.WithTrace(ctx).WithField("alertId", id).WithField("status", to).Info("告警状态已变更")
		s.publish(ctx, alert)
		return alert, nil
	}

	if alert.Status == to {
		metrics.AlertTransitionsTotal.WithLabelValues(string(to), "noop").Inc()
		return alert, nil
	}

	metrics.AlertTransitionsTotal.WithLabelValues(string(to), "rejected").Inc()
	return nil, s.err.New(fmt.Sprintf("告警 %d 当前状态为 %s，不能变更为 %s", id, alert.Status, to), nil).
		InvalidTransition().WithTraceID(ctx)
}

// AcknowledgeMany 单条失败不影响其他告警
func (s *AlertStoreService) AcknowledgeMany(ctx context.Context, ids []int64, byUser int64) []BatchResult {
	return s.batch(ids, func(id int64) (*model.AlertHistory, error) {
		return s.Acknowledge(ctx, id, byUser)
	})
}

func (s *AlertStoreService) ResolveMany(ctx context.Context, ids []int64, byUser int64) []BatchResult {
	return s.batch(ids, func(id int64) (*model.AlertHistory, error) {
		return s.Resolve(ctx, id, byUser)
	})
}

func (s *AlertStoreService) batch(ids []int64, op func(id int64) (*model.AlertHistory, error)) []BatchResult {
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		alert, err := op(id)
		results = append(results, BatchResult{AlertID: id, Alert: alert, Err: err})
	}
	return results
}

// ListByTarget status 为空时不过滤状态
func (s *AlertStoreService) ListByTarget(ctx context.Context, targetType model.TargetType, targetID int64, status model.AlertStatus) ([]*model.AlertHistory, error) {
	return s.dao.Find(ctx, dao.AlertQuery{TargetType: targetType, TargetID: targetID, Status: status})
}

func (s *AlertStoreService) ListAll(ctx context.Context, status model.AlertStatus) ([]*model.AlertHistory, error) {
	return s.dao.Find(ctx, dao.AlertQuery{Status: status})
}

func (s *AlertStoreService) FindPage(ctx context.Context, page *mvc.Page, q dao.AlertQuery) ([]*model.AlertHistory, int64, error) {
	return s.dao.FindPage(ctx, page, q)
}

func (s *AlertStoreService) publish(ctx context.Context, alert *model.AlertHistory) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAlert(ctx, alert)
}
