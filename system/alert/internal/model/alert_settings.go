package model

import (
	"time"

	"dcim/pkg/core/model/common"
)

// GlobalSettingsID 全局告警设置只有一行
const GlobalSettingsID int64 = 1

// AlertSettings 全局告警设置
type AlertSettings struct {
	common.Model
	CpuWarning              *float64 `gorm:"comment:CPU预警阈值" json:"cpuWarning" comment:"CPU预警阈值"`
	CpuCritical             *float64 `gorm:"comment:CPU严重阈值" json:"cpuCritical" comment:"CPU严重阈值"`
	MemoryWarning           *float64 `gorm:"comment:内存预警阈值" json:"memoryWarning" comment:"内存预警阈值"`
	MemoryCritical          *float64 `gorm:"comment:内存严重阈值" json:"memoryCritical" comment:"内存严重阈值"`
	DiskWarning             *float64 `gorm:"comment:磁盘预警阈值" json:"diskWarning" comment:"磁盘预警阈值"`
	DiskCritical            *float64 `gorm:"comment:磁盘严重阈值" json:"diskCritical" comment:"磁盘严重阈值"`
	TemperatureWarning      *float64 `gorm:"comment:温度预警阈值" json:"temperatureWarning" comment:"温度预警阈值"`
	TemperatureCritical     *float64 `gorm:"comment:温度严重阈值" json:"temperatureCritical" comment:"温度严重阈值"`
	HumidityWarning         *float64 `gorm:"comment:湿度预警阈值" json:"humidityWarning" comment:"湿度预警阈值"`
	HumidityCritical        *float64 `gorm:"comment:湿度严重阈值" json:"humidityCritical" comment:"湿度严重阈值"`
	NetworkWarning          *float64 `gorm:"comment:网络预警阈值" json:"networkWarning" comment:"网络预警阈值"`
	NetworkCritical         *float64 `gorm:"comment:网络严重阈值" json:"networkCritical" comment:"网络严重阈值"`
	DefaultConsecutiveCount int      `gorm:"not null;comment:默认连续违规次数" json:"defaultConsecutiveCount" comment:"默认连续违规次数"`
	DefaultCooldownMinutes  int      `gorm:"not null;comment:默认冷却分钟数" json:"defaultCooldownMinutes" comment:"默认冷却分钟数"`
}

func (AlertSettings) TableName() string {
	return "alert_settings"
}

// DefaultAlertSettings 首次启动时写入的默认值
func DefaultAlertSettings() *AlertSettings {
	s := &AlertSettings{
		CpuWarning:              Float(80),
		CpuCritical:             Float(90),
		MemoryWarning:           Float(80),
		MemoryCritical:          Float(90),
		DiskWarning:             Float(85),
		DiskCritical:            Float(95),
		TemperatureWarning:      Float(30),
		TemperatureCritical:     Float(35),
		HumidityWarning:         Float(70),
		HumidityCritical:        Float(80),
		NetworkWarning:          Float(80),
		NetworkCritical:         Float(90),
		DefaultConsecutiveCount: 3,
		DefaultCooldownMinutes:  10,
	}
	s.ID = GlobalSettingsID
	return s
}

// Thresholds 取某类指标的全局阈值
func (s *AlertSettings) Thresholds(metric MetricType) Thresholds {
	switch metric {
	case MetricCPU:
		return Thresholds{Warning: s.CpuWarning, Critical: s.CpuCritical}
	case MetricMemory:
		return Thresholds{Warning: s.MemoryWarning, Critical: s.MemoryCritical}
	case MetricDisk:
		return Thresholds{Warning: s.DiskWarning, Critical: s.DiskCritical}
	case MetricTemperature:
		return Thresholds{Warning: s.TemperatureWarning, Critical: s.TemperatureCritical}
	case MetricHumidity:
		return Thresholds{Warning: s.HumidityWarning, Critical: s.HumidityCritical}
	case MetricNetwork:
		return Thresholds{Warning: s.NetworkWarning, Critical: s.NetworkCritical}
	}
	return Thresholds{}
}

// Validate 所有指标的阈值顺序与去抖参数
func (s *AlertSettings) Validate() error {
	for _, m := range MetricTypes {
		if err := s.Thresholds(m).Validate(); err != nil {
			return err
		}
	}
	return ValidatePolicy(s.DefaultConsecutiveCount, s.DefaultCooldownMinutes)
}

func (s *AlertSettings) Policy() Policy {
	return Policy{
		RequiredConsecutiveCount: s.DefaultConsecutiveCount,
		Cooldown:                 time.Duration(s.DefaultCooldownMinutes) * time.Minute,
	}.Normalize()
}
