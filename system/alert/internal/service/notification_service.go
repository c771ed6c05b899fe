package service

import (
	"context"
	"fmt"

	"dcim/pkg/broadcast"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/metrics"
	"dcim/system/alert/api/dto"
	"dcim/system/alert/internal/facade"
	"dcim/system/alert/internal/model"
)

// EventAlert SSE 事件名
const EventAlert = "alert"

// ScopeAll 订阅全部告警
const ScopeAll = "ALL"

// Scope 订阅范围，Kind 为 ALL 时忽略 ID
type Scope struct {
	Kind string
	ID   int64
}

// ParseScope kind 为空视为 ALL
func ParseScope(kind string, id int64) (Scope, error) {
	if kind == "" || kind == ScopeAll {
		return Scope{Kind: ScopeAll}, nil
	}
	if !model.TargetType(kind).Valid() {
		return Scope{}, errorc.New(fmt.Sprintf("不支持的订阅范围: %s", kind), nil).ValidWithCtx()
	}
	if id <= 0 {
		return Scope{}, errorc.New("订阅范围缺少目标ID", nil).ValidWithCtx()
	}
	return Scope{Kind: kind, ID: id}, nil
}

func (s Scope) Key() string {
	if s.Kind == ScopeAll {
		return ScopeAll
	}
	return model.ScopeKey(model.TargetType(s.Kind), s.ID)
}

// NotificationService 按资产层级把告警扇出给订阅者
type NotificationService struct {
	hub    *broadcast.Hub
	assets facade.IAssetFacade
	log    *logger.Log
	err    *errorc.ErrorBuilder
}

func NewNotificationService(hub *broadcast.Hub, assets facade.IAssetFacade, log *logger.Log) *NotificationService {
	return &NotificationService{
		hub:    hub,
		assets: assets,
		log:    log.WithEntryName("NotificationService"),
		err:    errorc.NewErrorBuilder("NotificationService"),
	}
}

// Subscribe 非 ALL 范围必须指向存在的目标
func (s *NotificationService) Subscribe(ctx context.Context, scope Scope) (*broadcast.Subscription, error) {
	if scope.Kind != ScopeAll {
		if _, err := s.assets.ResolveLineage(ctx, scope.Kind, scope.ID); err != nil {
			return nil, err
		}
	}
	sub := s.hub.Subscribe(scope.Key())
	s.log.WithTrace(ctx).WithField("subscription", sub.ID).WithField("scope", sub.Key).Info("新增告警订阅")
	return sub, nil
}

// ScopeKeys 告警需要投递的全部订阅键：ALL 加上目标及其祖先
func (s *NotificationService) ScopeKeys(ctx context.Context, target model.Target) []string {
	keys := []string{ScopeAll, target.ScopeKey()}
	lineage, err := s.assets.ResolveLineage(ctx, string(target.Type), target.ID)
	if err != nil {
		s.log.WithTrace(ctx).WithErr(err).WithField("target", target.ScopeKey()).
			Warn("解析资产层级失败，仅投递给全局与目标订阅者")
		return keys
	}
	for _, node := range lineage.Chain {
		key := model.ScopeKey(model.TargetType(node.Type), node.ID)
		if key != keys[1] {
			keys = append(keys, key)
		}
	}
	return keys
}

// PublishAlert 投递失败的订阅者由 hub 自行清理，不影响调用方
func (s *NotificationService) PublishAlert(ctx context.Context, alert *model.AlertHistory) int {
	keys := s.ScopeKeys(ctx, alert.Target())
	n := s.hub.Publish(keys, broadcast.NewEvent(EventAlert, dto.NewAlertNotification(alert)))
	metrics.NotificationsPublishedTotal.Inc()
	s.log.WithTrace(ctx).WithFields(map[string]interface{}{
		"alertId":   alert.ID,
		"status":    alert.Status,
		"delivered": n,
	}).Debug("告警已推送")
	return n
}

func (s *NotificationService) Subscribers() int {
	return s.hub.Len()
}
