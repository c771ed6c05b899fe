package model

import (
	"fmt"
	"strings"
)

// TargetType 告警目标类型
type TargetType string

const (
	TargetEquipment  TargetType = "EQUIPMENT"
	TargetRack       TargetType = "RACK"
	TargetServerRoom TargetType = "SERVER_ROOM"
	TargetDataCenter TargetType = "DATA_CENTER"
)

// scopeNames 订阅键使用的层级名
var scopeNames = map[TargetType]string{
	TargetEquipment:  "EQUIPMENT",
	TargetRack:       "RACK",
	TargetServerRoom: "SERVERROOM",
	TargetDataCenter: "DATACENTER",
}

func (t TargetType) Valid() bool {
	_, ok := scopeNames[t]
	return ok
}

// ScopeKey 订阅键，如 RACK:3、SERVERROOM:2
func ScopeKey(t TargetType, id int64) string {
	return fmt.Sprintf("%s:%d", scopeNames[t], id)
}

// MetricType 指标类型
type MetricType string

const (
	MetricCPU         MetricType = "CPU"
	MetricMemory      MetricType = "MEMORY"
	MetricDisk        MetricType = "DISK"
	MetricTemperature MetricType = "TEMPERATURE"
	MetricHumidity    MetricType = "HUMIDITY"
	MetricNetwork     MetricType = "NETWORK"
)

var MetricTypes = []MetricType{MetricCPU, MetricMemory, MetricDisk, MetricTemperature, MetricHumidity, MetricNetwork}

func (m MetricType) Valid() bool {
	for _, t := range MetricTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Severity 评估结果
type Severity string

const (
	SeverityNormal   Severity = "NORMAL"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) rank() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return 0
	}
}

// MoreSevereThan 严格高于 other
func (s Severity) MoreSevereThan(other Severity) bool {
	return s.rank() > other.rank()
}

// AlertStatus 告警生命周期状态
type AlertStatus string

const (
	StatusTriggered    AlertStatus = "TRIGGERED"
	StatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	StatusResolved     AlertStatus = "RESOLVED"
)

func (s AlertStatus) Valid() bool {
	return s == StatusTriggered || s == StatusAcknowledged || s == StatusResolved
}

// Target 告警目标
type Target struct {
	Type TargetType `json:"type"`
	ID   int64      `json:"id"`
	Name string     `json:"name"`
}

func (t Target) ScopeKey() string {
	return ScopeKey(t.Type, t.ID)
}

// MetricKey 指标标识，Name 用于区分同类型的多个指标，如网卡 eth0
type MetricKey struct {
	Type MetricType `json:"type"`
	Name string     `json:"name"`
}

// TrackerKey 违规跟踪的键，格式 EQUIPMENT:7|CPU:total
func TrackerKey(target Target, metric MetricKey) string {
	var b strings.Builder
	b.Grow(32)
	b.WriteString(string(target.Type))
	b.WriteByte(':')
	fmt.Fprintf(&b, "%d", target.ID)
	b.WriteByte('|')
	b.WriteString(string(metric.Type))
	b.WriteByte(':')
	b.WriteString(metric.Name)
	return b.String()
}
