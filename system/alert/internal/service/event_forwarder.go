package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"dcim/pkg/broadcast"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/rocketmq"
	"dcim/pkg/metrics"
	"dcim/system/alert/api/dto"
)

// EventSink 告警通知的下游出口
type EventSink interface {
	Send(ctx context.Context, n *dto.AlertNotificationDTO) error
}

// RocketMQSink 以目标为分区键发送，同一目标的通知保持顺序
type RocketMQSink struct {
	manager *rocketmq.RocketMQManager
	topic   string
}

func NewRocketMQSink(manager *rocketmq.RocketMQManager) *RocketMQSink {
	topic := manager.Topic()
	if topic == "" {
		topic = "DCIM_ALERT"
	}
	return &RocketMQSink{manager: manager, topic: topic}
}

func (s *RocketMQSink) Send(ctx context.Context, n *dto.AlertNotificationDTO) error {
	return s.manager.MessageBuilder(s.topic).
		Tag(n.Status).
		Sharding(n.TargetType + ":" + strconv.FormatInt(n.TargetID, 10)).
		Keys(strconv.FormatInt(n.ID, 10)).
		Message(n).
		SendSync(ctx)
}

// EventForwarder 以 ALL 范围订阅，把每条告警通知转发到下游出口，每个出口独立订阅
type EventForwarder struct {
	name        string
	notifier    *NotificationService
	sink        EventSink
	sendTimeout time.Duration
	log         *logger.Log
}

func NewEventForwarder(name string, notifier *NotificationService, sink EventSink, log *logger.Log) *EventForwarder {
	return &EventForwarder{
		name:        name,
		notifier:    notifier,
		sink:        sink,
		sendTimeout: 5 * time.Second,
		log:         log.WithEntryName("EventForwarder").WithField("sink", name),
	}
}

// Run 阻塞直到 ctx 结束；订阅被断开时重新订阅
func (f *EventForwarder) Run(ctx context.Context) {
	for ctx.Err() == nil {
		sub, err := f.notifier.Subscribe(ctx, Scope{Kind: ScopeAll})
		if err != nil {
			f.log.WithErr(err).Error("订阅告警失败")
			return
		}
		err = f.drain(ctx, sub)
		sub.Close()
		if errors.Is(err, broadcast.ErrSlowConsumer) {
			f.log.Warn("转发速度跟不上告警产生速度，已重新订阅，期间的通知可能丢失")
			continue
		}
		if ctx.Err() == nil {
			f.log.WithErr(err).Info("告警订阅已关闭，停止转发")
		}
		return
	}
}

func (f *EventForwarder) drain(ctx context.Context, sub *broadcast.Subscription) error {
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			return err
		}
		n, ok := msg.Payload.(*dto.AlertNotificationDTO)
		if msg.Heartbeat || !ok {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, f.sendTimeout)
		err = f.sink.Send(sendCtx, n)
		cancel()
		if err != nil {
			metrics.ForwardedEventsTotal.WithLabelValues(f.name, "failed").Inc()
			f.log.WithErr(err).WithField("alertId", n.ID).Warn("转发告警通知失败")
			continue
		}
		metrics.ForwardedEventsTotal.WithLabelValues(f.name, "ok").Inc()
	}
}
