package service

import (
	"math"

	"dcim/system/alert/internal/model"
)

// Evaluate 按 ≥ 方向比较阈值，严重优先于预警；未设置的级别永不触发
func Evaluate(metric model.MetricKey, value float64, th model.Thresholds) model.Severity {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return model.SeverityNormal
	}
	if th.Critical != nil && value >= *th.Critical {
		return model.SeverityCritical
	}
	if th.Warning != nil && value >= *th.Warning {
		return model.SeverityWarning
	}
	return model.SeverityNormal
}
