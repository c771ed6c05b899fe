package notifier

import (
	"fmt"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"

	"go.uber.org/zap"
)

// New 按配置类型创建通知器
func New(cfg config.NotifierConfig, logger *zap.Logger) (Notifier, error) {
	if cfg.URL == "" {
		return nil, errorc.New(fmt.Sprintf("通知器 %s 缺少 url", cfg.Name), nil).Config()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Type
	}
	switch cfg.Type {
	case TypeWebhook:
		return NewWebhookNotifier(cfg, logger), nil
	case TypeDingTalk:
		return NewDingTalkNotifier(cfg, logger), nil
	default:
		return nil, errorc.New(fmt.Sprintf("不支持的通知器类型: %s", cfg.Type), nil).Config()
	}
}

// NewAll 任一配置非法时返回错误
func NewAll(configs []config.NotifierConfig, logger *zap.Logger) ([]Notifier, error) {
	out := make([]Notifier, 0, len(configs))
	for _, cfg := range configs {
		n, err := New(cfg, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
