package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dcim/app"
	"dcim/base"
	"dcim/pkg/core/rocketmq"
	"dcim/pkg/core/start"
	"dcim/pkg/lock"
	"dcim/pkg/scheduler"
	"dcim/router"
	"dcim/system/alert"
	"dcim/system/asset"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	env, filename := getBaseInfo()

	file, err := os.ReadFile(filename)
	if err != nil {
		panic(fmt.Sprintf("读取配置文件失败,因为：%v", err))
	}

	configures := start.NewConfigures(file, env)
	base.Configures = configures
	base.Logger = configures.Logger
	base.ENV = env

	base.Zap, err = createZapLogger(env)
	if err != nil {
		configures.Logger.Panic(fmt.Sprintf("创建 zap logger 失败: %v", err))
	}

	base.DB = configures.EnableDB()

	// 执行数据库迁移
	if err := asset.AutoMigrate(base.DB, base.Logger); err != nil {
		configures.Logger.Panic(fmt.Sprintf("资产组件数据库迁移失败: %v", err))
	}
	if err := alert.AutoMigrate(base.DB, base.Logger); err != nil {
		configures.Logger.Panic(fmt.Sprintf("告警组件数据库迁移失败: %v", err))
	}

	base.RDB = configures.EnableRedis()
	base.Cache = configures.EnableCache(base.RDB)
	base.Locker = configures.EnableLocker(base.RDB)

	// 有 redis 时领导锁跨实例生效，否则只在本进程内
	var lockManager lock.LockManager
	if base.Locker != nil {
		lockManager = lock.NewRedisLockManager(base.Locker)
	}
	schedulerConfig := scheduler.DefaultSchedulerConfig()
	schedulerConfig.MaxWorkers = 4
	base.Scheduler = scheduler.NewScheduler(lockManager, schedulerConfig, base.Zap)
	if err := base.Scheduler.Start(); err != nil {
		configures.Logger.Panic(fmt.Sprintf("启动调度器失败: %v", err))
	}

	if configures.Config.RocketMQ.Enable {
		base.RocketMQ = rocketmq.NewRocketMQManager(env, configures.Config.RocketMQ)
		if err := base.RocketMQ.StartProducer(); err != nil {
			configures.Logger.Panic(fmt.Sprintf("启动 RocketMQ 生产者失败: %v", err))
		}
	}

	// 创建应用组合根
	appRoot := app.NewApp()

	// 初始化默认告警设置（alert_settings 为空时写入）
	if err := appRoot.AlertModule.EnsureDefaultSettings(context.Background()); err != nil {
		configures.Logger.Panic(fmt.Sprintf("初始化默认告警设置失败: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	appRoot.AlertModule.Start(ctx)

	alertConfig := configures.Config.Alert
	if err := appRoot.AlertModule.RegisterTasks(base.Scheduler, alertConfig.EvaluateInterval, alertConfig.EvaluateTimeout,
		alertConfig.SweepCron, alertConfig.TrackerIdle); err != nil {
		configures.Logger.Panic(fmt.Sprintf("注册告警任务失败: %v", err))
	}
	base.Logger.Info(fmt.Sprintf("已注册告警评估任务，每 %s 执行一次", alertConfig.EvaluateInterval))

	// 创建 Fiber 应用
	fiberApp := app.GetApp()

	// 注册路由
	router.Register(appRoot, fiberApp)

	go func() {
		<-ctx.Done()
		base.Logger.Info("正在停止服务...")
		_ = base.Scheduler.Stop()
		if base.RocketMQ != nil {
			_ = base.RocketMQ.Shutdown()
		}
		_ = fiberApp.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := fiberApp.Listen(fmt.Sprintf(":%d", configures.Config.Port)); err != nil {
		configures.Logger.Panic(err)
	}
	_ = base.Zap.Sync()
}

func getBaseInfo() (string, string) {
	// 定义命令行参数
	env := flag.String("env", "dev", "环境配置 (dev, prod, test等)")
	configFile := flag.String("config", "", "配置文件路径，默认为 ./resources/{env}.yaml")

	// 解析命令行参数
	flag.Parse()

	// 如果没有指定配置文件路径，则使用默认路径
	var filename string
	if *configFile == "" {
		getwd, err := os.Getwd()
		if err != nil {
			panic(fmt.Sprintf("获取当前文件位置失败,因为：%v", err))
		}
		filename = getwd + "/resources/" + *env + ".yaml"
	} else {
		filename = *configFile
	}
	return *env, filename
}

// createZapLogger 基础设施组件（调度器、推送中心）使用 zap
func createZapLogger(env string) (*zap.Logger, error) {
	var config zap.Config

	if env == "prod" {
		// 生产环境配置
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	} else {
		// 开发/测试环境配置
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	// 设置时间格式
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}
