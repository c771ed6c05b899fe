package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"dcim/pkg/notifier"
	"dcim/system/alert/api/dto"
	"dcim/system/alert/internal/model"
)

type channel struct {
	notifier notifier.Notifier
	minLevel model.Severity
}

// NotifierSink 把告警通知外发到配置的渠道
type NotifierSink struct {
	channels []channel
}

func NewNotifierSink() *NotifierSink {
	return &NotifierSink{}
}

// Add 低于 minLevel 的告警不发往该渠道，minLevel 为空时全部发送
func (s *NotifierSink) Add(n notifier.Notifier, minLevel model.Severity) *NotifierSink {
	s.channels = append(s.channels, channel{notifier: n, minLevel: minLevel})
	return s
}

func (s *NotifierSink) Len() int {
	return len(s.channels)
}

// Send 逐个渠道发送，单个渠道失败不影响其他渠道
func (s *NotifierSink) Send(ctx context.Context, n *dto.AlertNotificationDTO) error {
	msg := toNotification(n)
	var errs []error
	for _, ch := range s.channels {
		if ch.minLevel.MoreSevereThan(model.Severity(n.Level)) {
			continue
		}
		if err := ch.notifier.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func toNotification(n *dto.AlertNotificationDTO) *notifier.Notification {
	title := fmt.Sprintf("%s %s %s告警%s", n.TargetTypeText, n.TargetName, n.MetricTypeText, n.StatusText)
	return &notifier.Notification{
		ID:        strconv.FormatInt(n.ID, 10),
		Title:     title,
		Content:   n.Message,
		Level:     n.LevelText,
		CreatedAt: n.TriggeredAt,
		Labels: map[string]string{
			"target": model.ScopeKey(model.TargetType(n.TargetType), n.TargetID),
			"metric": n.MetricType,
			"status": n.Status,
		},
		Data: n,
	}
}
