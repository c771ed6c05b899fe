package dto

import "dcim/system/alert/internal/model"

// 枚举只保存机器可读的标识，展示文案统一在这里维护

var severityText = map[model.Severity]string{
	model.SeverityNormal:   "正常",
	model.SeverityWarning:  "预警",
	model.SeverityCritical: "严重",
}

var statusText = map[model.AlertStatus]string{
	model.StatusTriggered:    "已触发",
	model.StatusAcknowledged: "已确认",
	model.StatusResolved:     "已解决",
}

var targetText = map[model.TargetType]string{
	model.TargetEquipment:  "设备",
	model.TargetRack:       "机柜",
	model.TargetServerRoom: "机房",
	model.TargetDataCenter: "数据中心",
}

var metricText = map[model.MetricType]string{
	model.MetricCPU:         "CPU使用率",
	model.MetricMemory:      "内存使用率",
	model.MetricDisk:        "磁盘使用率",
	model.MetricTemperature: "温度",
	model.MetricHumidity:    "湿度",
	model.MetricNetwork:     "网络使用率",
}

func SeverityText(s model.Severity) string {
	if t, ok := severityText[s]; ok {
		return t
	}
	return string(s)
}

func StatusText(s model.AlertStatus) string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return string(s)
}

func TargetText(t model.TargetType) string {
	if text, ok := targetText[t]; ok {
		return text
	}
	return string(t)
}

func MetricText(m model.MetricType) string {
	if t, ok := metricText[m]; ok {
		return t
	}
	return string(m)
}
