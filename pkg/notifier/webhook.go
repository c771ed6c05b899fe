package notifier

import (
	"context"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/util"

	"go.uber.org/zap"
)

// WebhookNotifier 以 JSON 形式 POST 通知
type WebhookNotifier struct {
	cfg    config.NotifierConfig
	logger *zap.Logger
}

func NewWebhookNotifier(cfg config.NotifierConfig, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{cfg: cfg, logger: logger.Named("notifier").With(zap.String("name", cfg.Name))}
}

func (w *WebhookNotifier) Name() string { return w.cfg.Name }

func (w *WebhookNotifier) Type() string { return TypeWebhook }

func (w *WebhookNotifier) Send(ctx context.Context, n *Notification) error {
	headers := make([]util.Header, 0, len(w.cfg.Headers)+1)
	headers = append(headers, util.Header{Key: "User-Agent", Value: "dcim-notifier/1.0"})
	for k, v := range w.cfg.Headers {
		headers = append(headers, util.Header{Key: k, Value: v})
	}

	req := util.NewHttp(w.cfg.URL, timeoutFor(ctx, w.cfg.Timeout), headers...)
	req.Body = n
	if err := req.Post(); err != nil {
		return errorc.New("webhook 通知发送失败", err).DeliveryFailure()
	}
	req.Close()

	w.logger.Debug("webhook 通知发送成功", zap.String("id", n.ID), zap.String("title", n.Title))
	return nil
}
