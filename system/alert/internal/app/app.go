package app

import (
	"context"
	"strings"

	"dcim/base"
	"dcim/pkg/broadcast"
	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/metrics"
	"dcim/pkg/notifier"
	"dcim/system/alert/internal/dao"
	"dcim/system/alert/internal/facade"
	"dcim/system/alert/internal/model"
	"dcim/system/alert/internal/service"
	assetdto "dcim/system/asset/api/dto"
)

// App 告警组件应用层
type App struct {
	// DAOs
	AlertHistoryDao      *dao.AlertHistoryDao
	AlertSettingsDao     *dao.AlertSettingsDao
	ThresholdOverrideDao *dao.ThresholdOverrideDao

	// Services
	AlertStoreSvc   *service.AlertStoreService
	SettingsSvc     *service.SettingsService
	NotificationSvc *service.NotificationService
	Tracker         *service.ViolationTracker
	Buffer          *service.BufferSource
	Forwarders      []*service.EventForwarder

	Engine *Engine
	Hub    *broadcast.Hub

	// Facades (跨组件依赖)
	assetFacade facade.IAssetFacade

	log *logger.Log
	err *errorc.ErrorBuilder
}

// NewApp 创建告警组件应用层实例
func NewApp(assetFacade facade.IAssetFacade) *App {
	log := base.Logger.WithEntryName("AlertApp")
	cfg := base.Configures.Config.Alert

	hub := broadcast.NewHub(broadcast.Options{
		Buffer:            cfg.SubscriberBuffer,
		HeartbeatInterval: cfg.HeartbeatInterval,
		Logger:            base.Zap,
		Observer:          metrics.HubObserver{},
	})

	// 初始化 DAOs
	alertHistoryDao := dao.NewAlertHistoryDao(base.DB, log)
	alertSettingsDao := dao.NewAlertSettingsDao(base.DB, log)
	thresholdOverrideDao := dao.NewThresholdOverrideDao(base.DB, log)

	// 初始化 Services
	notificationSvc := service.NewNotificationService(hub, assetFacade, log)
	alertStoreSvc := service.NewAlertStoreService(alertHistoryDao, notificationSvc, log)
	settingsSvc := service.NewSettingsService(alertSettingsDao, thresholdOverrideDao, log)
	tracker := service.NewViolationTracker()
	buffer := service.NewBufferSource()

	sources := []service.SampleSource{buffer}
	if cfg.Prometheus.Enable {
		sources = append(sources, service.NewPrometheusSource(cfg.Prometheus, log))
	}

	var forwarders []*service.EventForwarder
	if base.RocketMQ != nil {
		forwarders = append(forwarders, service.NewEventForwarder("rocketmq", notificationSvc, service.NewRocketMQSink(base.RocketMQ), log))
	}
	if sink := newNotifierSink(cfg.Notifiers, log); sink.Len() > 0 {
		forwarders = append(forwarders, service.NewEventForwarder("notifier", notificationSvc, sink, log))
	}

	return &App{
		AlertHistoryDao:      alertHistoryDao,
		AlertSettingsDao:     alertSettingsDao,
		ThresholdOverrideDao: thresholdOverrideDao,
		AlertStoreSvc:        alertStoreSvc,
		SettingsSvc:          settingsSvc,
		NotificationSvc:      notificationSvc,
		Tracker:              tracker,
		Buffer:               buffer,
		Forwarders:           forwarders,
		Engine:               NewEngine(settingsSvc, tracker, alertStoreSvc, assetFacade, sources, cfg.Workers, log),
		Hub:                  hub,
		assetFacade:          assetFacade,
		log:                  log,
		err:                  errorc.NewErrorBuilder("AlertApp"),
	}
}

// newNotifierSink 配置非法的渠道跳过并记录日志，不影响启动
func newNotifierSink(configs []config.NotifierConfig, log *logger.Log) *service.NotifierSink {
	sink := service.NewNotifierSink()
	for _, c := range configs {
		n, err := notifier.New(c, base.Zap)
		if err != nil {
			log.WithErr(err).WithField("notifier", c.Name).Error("通知渠道配置非法，已跳过")
			continue
		}
		sink.Add(n, model.Severity(strings.ToUpper(c.MinLevel)))
	}
	return sink
}

// Start 启动心跳与事件转发，ctx 结束时关闭所有订阅
func (a *App) Start(ctx context.Context) {
	go a.Hub.Run(ctx)
	for _, f := range a.Forwarders {
		go f.Run(ctx)
	}
	go func() {
		<-ctx.Done()
		a.Hub.Close()
	}()
}

// ResolveLineage 校验目标存在并返回其资产层级
func (a *App) ResolveLineage(ctx context.Context, targetType string, targetID int64) (*assetdto.Lineage, error) {
	return a.assetFacade.ResolveLineage(ctx, targetType, targetID)
}
