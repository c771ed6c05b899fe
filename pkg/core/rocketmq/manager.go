package rocketmq

import (
	"fmt"
	"strings"
	"sync"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/producer"
)

var (
	e   = errorc.NewErrorBuilder("RocketMQ")
	log = logger.GetLogger().WithEntryName("RocketMQ")
)

// RocketMQManager 生产者管理，tag 自动加环境前缀
type RocketMQManager struct {
	rocketConfig config.RocketMQ
	env          string
	producer     rocketmq.Producer
	mu           sync.Mutex
}

func NewRocketMQManager(env string, rocket config.RocketMQ) *RocketMQManager {
	return &RocketMQManager{rocketConfig: rocket, env: env}
}

func (m *RocketMQManager) StartProducer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.producer != nil {
		return nil
	}

	group := m.rocketConfig.Group
	if group == "" {
		group = "GID_DCIM_ALERT"
	}
	retry := m.rocketConfig.Retry
	if retry <= 0 {
		retry = 3
	}

	p, err := rocketmq.NewProducer(
		producer.WithNameServer(strings.Split(m.rocketConfig.NameServer, ",")),
		producer.WithGroupName(group),
		producer.WithRetry(retry),
		producer.WithQueueSelector(producer.NewHashQueueSelector()))
	if err != nil {
		log.WithErr(err).Error("创建Producer失败")
		return fmt.Errorf("创建Producer失败: %w", err)
	}
	if err = p.Start(); err != nil {
		log.WithErr(err).Error("启动Producer失败")
		return fmt.Errorf("启动Producer失败: %w", err)
	}

	m.producer = p
	log.Info("rocketmq生产者启动成功")
	return nil
}

func (m *RocketMQManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.producer == nil {
		return nil
	}
	err := m.producer.Shutdown()
	m.producer = nil
	return err
}

// Topic 配置的默认主题
func (m *RocketMQManager) Topic() string {
	return m.rocketConfig.Topic
}
