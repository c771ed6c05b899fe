// Package notifier 把告警通知外发到 webhook、钉钉机器人等渠道
package notifier

import (
	"context"
	"time"
)

const (
	TypeWebhook  = "webhook"
	TypeDingTalk = "dingtalk"
)

// Notification 外发的通知内容
type Notification struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Level     string            `json:"level"`
	CreatedAt time.Time         `json:"createdAt"`
	Labels    map[string]string `json:"labels,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// Notifier 单个外发渠道
type Notifier interface {
	Name() string
	Type() string
	Send(ctx context.Context, n *Notification) error
}

// timeoutFor 取配置超时与 ctx 剩余时间中较小者
func timeoutFor(ctx context.Context, timeout time.Duration) time.Duration {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			return left
		}
	}
	return timeout
}
