package model

import (
	"time"

	"dcim/pkg/core/model/common"
)

// ThresholdOverride 针对单个目标某类指标的阈值覆盖
// ConsecutiveCount、CooldownMinutes 为空时沿用全局默认值
type ThresholdOverride struct {
	common.Model
	TargetType       TargetType `gorm:"size:32;not null;uniqueIndex:uk_override_target_metric,priority:1;comment:目标类型" json:"targetType" comment:"目标类型"`
	TargetID         int64      `gorm:"not null;uniqueIndex:uk_override_target_metric,priority:2;comment:目标ID" json:"targetId" comment:"目标ID"`
	MetricType       MetricType `gorm:"size:32;not null;uniqueIndex:uk_override_target_metric,priority:3;comment:指标类型" json:"metricType" comment:"指标类型"`
	Warning          *float64   `gorm:"comment:预警阈值" json:"warning" comment:"预警阈值"`
	Critical         *float64   `gorm:"comment:严重阈值" json:"critical" comment:"严重阈值"`
	ConsecutiveCount *int       `gorm:"comment:连续违规次数" json:"consecutiveCount" comment:"连续违规次数"`
	CooldownMinutes  *int       `gorm:"comment:冷却分钟数" json:"cooldownMinutes" comment:"冷却分钟数"`
	Enabled          bool       `gorm:"not null;comment:是否生效" json:"enabled" comment:"是否生效"`
}

func (ThresholdOverride) TableName() string {
	return "alert_threshold_overrides"
}

func (o *ThresholdOverride) Thresholds() Thresholds {
	return Thresholds{Warning: o.Warning, Critical: o.Critical}
}

func (o *ThresholdOverride) Validate() error {
	if err := o.Thresholds().Validate(); err != nil {
		return err
	}
	count, cooldown := 1, 0
	if o.ConsecutiveCount != nil {
		count = *o.ConsecutiveCount
	}
	if o.CooldownMinutes != nil {
		cooldown = *o.CooldownMinutes
	}
	return ValidatePolicy(count, cooldown)
}

// ThresholdConfig 单轮评估使用的阈值快照，评估期间不再变化
type ThresholdConfig struct {
	Settings  AlertSettings
	overrides map[overrideKey]ThresholdOverride
}

type overrideKey struct {
	targetType TargetType
	targetID   int64
	metric     MetricType
}

// NewThresholdConfig 只收录生效中的覆盖
func NewThresholdConfig(settings AlertSettings, overrides []*ThresholdOverride) *ThresholdConfig {
	c := &ThresholdConfig{Settings: settings, overrides: make(map[overrideKey]ThresholdOverride, len(overrides))}
	for _, o := range overrides {
		if o == nil || !o.Enabled {
			continue
		}
		c.overrides[overrideKey{o.TargetType, o.TargetID, o.MetricType}] = *o
	}
	return c
}

// Resolve 目标覆盖优先，否则取全局设置
func (c *ThresholdConfig) Resolve(target Target, metric MetricType) (Thresholds, Policy) {
	policy := c.Settings.Policy()
	o, ok := c.overrides[overrideKey{target.Type, target.ID, metric}]
	if !ok {
		return c.Settings.Thresholds(metric), policy
	}
	if o.ConsecutiveCount != nil {
		policy.RequiredConsecutiveCount = *o.ConsecutiveCount
	}
	if o.CooldownMinutes != nil {
		policy.Cooldown = time.Duration(*o.CooldownMinutes) * time.Minute
	}
	return o.Thresholds(), policy.Normalize()
}

func (c *ThresholdConfig) OverrideCount() int {
	return len(c.overrides)
}
