package dto

import (
	"time"

	"dcim/system/alert/internal/model"
)

// AlertNotificationDTO 推送给订阅者的告警内容，只包含告警的公开字段
type AlertNotificationDTO struct {
	ID             int64      `json:"id"`
	TargetType     string     `json:"targetType"`
	TargetTypeText string     `json:"targetTypeText"`
	TargetID       int64      `json:"targetId"`
	TargetName     string     `json:"targetName"`
	MetricType     string     `json:"metricType"`
	MetricTypeText string     `json:"metricTypeText"`
	MetricName     string     `json:"metricName"`
	Level          string     `json:"level"`
	LevelText      string     `json:"levelText"`
	MeasuredValue  float64    `json:"measuredValue"`
	ThresholdValue float64    `json:"thresholdValue"`
	TriggeredAt    time.Time  `json:"triggeredAt"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	StatusText     string     `json:"statusText"`
	AcknowledgedBy *int64     `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ResolvedBy     *int64     `json:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

func NewAlertNotification(a *model.AlertHistory) *AlertNotificationDTO {
	return &AlertNotificationDTO{
		ID:             a.ID,
		TargetType:     string(a.TargetType),
		TargetTypeText: TargetText(a.TargetType),
		TargetID:       a.TargetID,
		TargetName:     a.TargetName,
		MetricType:     string(a.MetricType),
		MetricTypeText: MetricText(a.MetricType),
		MetricName:     a.MetricName,
		Level:          string(a.Level),
		LevelText:      SeverityText(a.Level),
		MeasuredValue:  a.MeasuredValue,
		ThresholdValue: a.ThresholdValue,
		TriggeredAt:    a.TriggeredAt,
		Message:        a.Message,
		Status:         string(a.Status),
		StatusText:     StatusText(a.Status),
		AcknowledgedBy: a.AcknowledgedBy,
		AcknowledgedAt: a.AcknowledgedAt,
		ResolvedBy:     a.ResolvedBy,
		ResolvedAt:     a.ResolvedAt,
	}
}

// BatchItemResult 批量确认/解决中单条告警的结果
type BatchItemResult struct {
	ID      int64                 `json:"id"`
	Success bool                  `json:"success"`
	Alert   *AlertNotificationDTO `json:"alert,omitempty"`
	Error   string                `json:"error,omitempty"`
	Code    int                   `json:"code,omitempty"`
}
