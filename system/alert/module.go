package alert

import (
	"context"
	"time"

	"dcim/pkg/scheduler"
	"dcim/system/alert/internal/app"
	"dcim/system/alert/internal/facade"
)

// Module 告警组件模块门面
type Module struct {
	internalApp *app.App
}

// NewModule 通过 facade.IAssetFacade 读取资产层级
// 具体实现（asset/api/client.AssetClient）由组装根注入
func NewModule(assetFacade facade.IAssetFacade) *Module {
	return &Module{internalApp: app.NewApp(assetFacade)}
}

// EnsureDefaultSettings 全局告警设置不存在时写入默认值
func (m *Module) EnsureDefaultSettings(ctx context.Context) error {
	return m.internalApp.SettingsSvc.EnsureDefaultSettings(ctx)
}

// Start 启动心跳与事件转发
func (m *Module) Start(ctx context.Context) {
	m.internalApp.Start(ctx)
}

// RegisterTasks 注册周期评估与跟踪状态清理任务
func (m *Module) RegisterTasks(s *scheduler.Scheduler, interval, timeout time.Duration, sweepCron string, idle time.Duration) error {
	engine := m.internalApp.Engine
	evaluateTask := scheduler.NewIntervalTask(
		"告警评估",
		time.Now().Add(interval),
		interval,
		scheduler.TaskExecuteModeLocal,
		timeout,
		func(ctx context.Context) error {
			_, err := engine.RunCycle(ctx)
			return err
		},
	)
	if err := s.AddTask(evaluateTask); err != nil {
		return err
	}

	sweepTask, err := scheduler.NewCronTask(
		"告警跟踪状态清理",
		sweepCron,
		scheduler.TaskExecuteModeLocal,
		time.Minute,
		func(ctx context.Context) error {
			engine.Sweep(idle)
			return nil
		},
	)
	if err != nil {
		return err
	}
	return s.AddTask(sweepTask)
}
