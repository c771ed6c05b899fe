package model

import (
	"time"

	"dcim/pkg/core/model/common"
)

// AlertHistory 告警记录，目标、指标、级别与数值创建后不再修改，只有生命周期字段会变化
type AlertHistory struct {
	common.Model
	TargetType     TargetType  `gorm:"size:32;not null;index:idx_alert_target,priority:1;comment:目标类型" json:"targetType" comment:"目标类型"`
	TargetID       int64       `gorm:"not null;index:idx_alert_target,priority:2;comment:目标ID" json:"targetId" comment:"目标ID"`
	TargetName     string      `gorm:"size:128;comment:目标名称" json:"targetName" comment:"目标名称"`
	MetricType     MetricType  `gorm:"size:32;not null;comment:指标类型" json:"metricType" comment:"指标类型"`
	MetricName     string      `gorm:"size:64;comment:指标名称" json:"metricName" comment:"指标名称"`
	Level          Severity    `gorm:"size:16;not null;comment:告警级别" json:"level" comment:"告警级别"`
	MeasuredValue  float64     `gorm:"not null;comment:测量值" json:"measuredValue" comment:"测量值"`
	ThresholdValue float64     `gorm:"not null;comment:阈值" json:"thresholdValue" comment:"阈值"`
	TriggeredAt    time.Time   `gorm:"not null;index;comment:触发时间" json:"triggeredAt" comment:"触发时间"`
	Message        string      `gorm:"size:512;comment:告警信息" json:"message" comment:"告警信息"`
	Status         AlertStatus `gorm:"size:16;not null;index;comment:状态" json:"status" comment:"状态"`
	AcknowledgedBy *int64      `gorm:"comment:确认人" json:"acknowledgedBy" comment:"确认人"`
	AcknowledgedAt *time.Time  `gorm:"comment:确认时间" json:"acknowledgedAt" comment:"确认时间"`
	ResolvedBy     *int64      `gorm:"comment:解决人" json:"resolvedBy" comment:"解决人"`
	ResolvedAt     *time.Time  `gorm:"comment:解决时间" json:"resolvedAt" comment:"解决时间"`
}

func (AlertHistory) TableName() string {
	return "alert_history"
}

func (a *AlertHistory) Target() Target {
	return Target{Type: a.TargetType, ID: a.TargetID, Name: a.TargetName}
}
