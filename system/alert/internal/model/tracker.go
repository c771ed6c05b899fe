package model

import "time"

// TrackerState 单个 目标+指标 的违规跟踪状态，只由评估引擎修改
type TrackerState struct {
	ConsecutiveViolations int        `json:"consecutiveViolations"`
	LastViolationTime     *time.Time `json:"lastViolationTime"`
	LastMeasuredValue     float64    `json:"lastMeasuredValue"`
	LastAlertSentAt       *time.Time `json:"lastAlertSentAt"`
	LastAlertLevel        Severity   `json:"lastAlertLevel"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// Sample 一次采样，Err 不为空表示本轮取不到值
type Sample struct {
	Target    Target
	Metric    MetricKey
	Value     float64
	Timestamp time.Time
	Err       error
}
