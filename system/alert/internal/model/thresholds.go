package model

import (
	"fmt"
	"time"

	errorc "dcim/pkg/core/err"
)

// Thresholds 告警阈值，为空的级别永不触发
type Thresholds struct {
	Warning  *float64 `json:"warning"`
	Critical *float64 `json:"critical"`
}

// Validate 预警阈值不能高于严重阈值
func (t Thresholds) Validate() error {
	if t.Warning != nil && t.Critical != nil && *t.Warning > *t.Critical {
		return errorc.New(fmt.Sprintf("预警阈值 %.2f 不能高于严重阈值 %.2f", *t.Warning, *t.Critical), nil).Config()
	}
	return nil
}

// Level 取 severity 对应的阈值
func (t Thresholds) Level(severity Severity) float64 {
	switch severity {
	case SeverityCritical:
		if t.Critical != nil {
			return *t.Critical
		}
	case SeverityWarning:
		if t.Warning != nil {
			return *t.Warning
		}
	}
	return 0
}

// Policy 去抖与冷却参数
type Policy struct {
	RequiredConsecutiveCount int
	Cooldown                 time.Duration
}

// Normalize 连续次数至少为 1，冷却时间不为负
func (p Policy) Normalize() Policy {
	if p.RequiredConsecutiveCount < 1 {
		p.RequiredConsecutiveCount = 1
	}
	if p.Cooldown < 0 {
		p.Cooldown = 0
	}
	return p
}

func ValidatePolicy(consecutiveCount, cooldownMinutes int) error {
	if consecutiveCount < 1 {
		return errorc.New("连续违规次数至少为 1", nil).Config()
	}
	if cooldownMinutes < 0 {
		return errorc.New("冷却时间不能为负数", nil).Config()
	}
	return nil
}

func Float(v float64) *float64 {
	return &v
}
