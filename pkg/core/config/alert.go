package config

import "time"

// AlertConfig 告警引擎运行参数
type AlertConfig struct {
	EvaluateInterval  time.Duration    `yaml:"evaluate-interval"`
	EvaluateTimeout   time.Duration    `yaml:"evaluate-timeout"`
	Workers           int              `yaml:"workers"`
	SweepCron         string           `yaml:"sweep-cron"`
	TrackerIdle       time.Duration    `yaml:"tracker-idle"`
	HeartbeatInterval time.Duration    `yaml:"heartbeat-interval"`
	SubscriberBuffer  int              `yaml:"subscriber-buffer"`
	LineageCacheTTL   time.Duration    `yaml:"lineage-cache-ttl"`
	Prometheus        PrometheusSource `yaml:"prometheus"`
	Notifiers         []NotifierConfig `yaml:"notifiers"`
}

// PrometheusSource 拉取式采样源
type PrometheusSource struct {
	Enable   bool              `yaml:"enable"`
	Endpoint string            `yaml:"endpoint"`
	Timeout  time.Duration     `yaml:"timeout"`
	Queries  []PrometheusQuery `yaml:"queries"`
}

// NotifierConfig 告警通知外发渠道，type 取 webhook 或 dingtalk
type NotifierConfig struct {
	Name      string            `yaml:"name"`
	Type      string            `yaml:"type"`
	URL       string            `yaml:"url"`
	Secret    string            `yaml:"secret"`
	Headers   map[string]string `yaml:"headers"`
	AtAll     bool              `yaml:"at-all"`
	AtMobiles []string          `yaml:"at-mobiles"`
	Timeout   time.Duration     `yaml:"timeout"`
	// MinLevel 低于该级别的告警不外发，为空时全部外发
	MinLevel string `yaml:"min-level"`
}

// PrometheusQuery 每条查询对应一种指标类型
type PrometheusQuery struct {
	MetricType string `yaml:"metric-type"`
	Query      string `yaml:"query"`
}

// WithDefaults 补齐未配置的参数
func (c AlertConfig) WithDefaults() AlertConfig {
	if c.EvaluateInterval <= 0 {
		c.EvaluateInterval = 30 * time.Second
	}
	if c.EvaluateTimeout <= 0 {
		c.EvaluateTimeout = c.EvaluateInterval
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.SweepCron == "" {
		c.SweepCron = "0 */10 * * * *"
	}
	if c.TrackerIdle <= 0 {
		c.TrackerIdle = time.Hour
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 15 * time.Second
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = 256
	}
	if c.LineageCacheTTL <= 0 {
		c.LineageCacheTTL = time.Minute
	}
	if c.Prometheus.Timeout <= 0 {
		c.Prometheus.Timeout = 10 * time.Second
	}
	return c
}
