package model

import (
	"testing"
	"time"

	errorc "dcim/pkg/core/err"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, Thresholds{}.Validate())
	assert.NoError(t, Thresholds{Warning: Float(80)}.Validate())
	assert.NoError(t, Thresholds{Warning: Float(90), Critical: Float(90)}.Validate())

	err := Thresholds{Warning: Float(95), Critical: Float(90)}.Validate()
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeConfig))
}

func TestThresholds_Level(t *testing.T) {
	th := Thresholds{Warning: Float(80), Critical: Float(90)}
	assert.Equal(t, 90.0, th.Level(SeverityCritical))
	assert.Equal(t, 80.0, th.Level(SeverityWarning))
	assert.Equal(t, 0.0, Thresholds{}.Level(SeverityCritical))
}

func TestSeverity_MoreSevereThan(t *testing.T) {
	assert.True(t, SeverityCritical.MoreSevereThan(SeverityWarning))
	assert.True(t, SeverityWarning.MoreSevereThan(SeverityNormal))
	assert.True(t, SeverityWarning.MoreSevereThan(""))
	assert.False(t, SeverityWarning.MoreSevereThan(SeverityWarning))
	assert.False(t, SeverityWarning.MoreSevereThan(SeverityCritical))
}

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "EQUIPMENT:7", ScopeKey(TargetEquipment, 7))
	assert.Equal(t, "RACK:3", ScopeKey(TargetRack, 3))
	assert.Equal(t, "SERVERROOM:2", ScopeKey(TargetServerRoom, 2))
	assert.Equal(t, "DATACENTER:1", Target{Type: TargetDataCenter, ID: 1}.ScopeKey())
	assert.False(t, TargetType("BUILDING").Valid())
}

func TestTrackerKey(t *testing.T) {
	key := TrackerKey(Target{Type: TargetEquipment, ID: 7, Name: "PDU-7"}, MetricKey{Type: MetricNetwork, Name: "eth0"})
	assert.Equal(t, "EQUIPMENT:7|NETWORK:eth0", key)

	// 名称不参与键
	other := TrackerKey(Target{Type: TargetEquipment, ID: 7, Name: "renamed"}, MetricKey{Type: MetricNetwork, Name: "eth0"})
	assert.Equal(t, key, other)
}

func TestAlertSettings_Defaults(t *testing.T) {
	s := DefaultAlertSettings()
	assert.Equal(t, GlobalSettingsID, s.ID)
	assert.NoError(t, s.Validate())

	th := s.Thresholds(MetricTemperature)
	assert.Equal(t, 30.0, *th.Warning)
	assert.Equal(t, 35.0, *th.Critical)
	assert.Equal(t, Policy{RequiredConsecutiveCount: 3, Cooldown: 10 * time.Minute}, s.Policy())
}

func TestAlertSettings_ValidateRejectsBadPolicy(t *testing.T) {
	s := DefaultAlertSettings()
	s.DefaultConsecutiveCount = 0
	assert.True(t, errorc.IsCode(s.Validate(), errorc.ErrorCodeConfig))

	s = DefaultAlertSettings()
	s.DiskWarning = Float(99)
	assert.True(t, errorc.IsCode(s.Validate(), errorc.ErrorCodeConfig))
}

func TestThresholdConfig_Resolve(t *testing.T) {
	rack := Target{Type: TargetRack, ID: 3}
	eq := Target{Type: TargetEquipment, ID: 7}
	cfg := NewThresholdConfig(*DefaultAlertSettings(), []*ThresholdOverride{
		{TargetType: TargetEquipment, TargetID: 7, MetricType: MetricCPU, Warning: Float(50), Critical: Float(60),
			ConsecutiveCount: intPtr(1), Enabled: true},
		{TargetType: TargetRack, TargetID: 3, MetricType: MetricCPU, Warning: Float(10), Enabled: false},
		nil,
	})
	assert.Equal(t, 1, cfg.OverrideCount())

	th, policy := cfg.Resolve(eq, MetricCPU)
	assert.Equal(t, 50.0, *th.Warning)
	assert.Equal(t, 60.0, *th.Critical)
	assert.Equal(t, 1, policy.RequiredConsecutiveCount)
	assert.Equal(t, 10*time.Minute, policy.Cooldown)

	// 未生效的覆盖回退到全局
	th, policy = cfg.Resolve(rack, MetricCPU)
	assert.Equal(t, 80.0, *th.Warning)
	assert.Equal(t, 3, policy.RequiredConsecutiveCount)

	// 覆盖只作用于对应的指标
	th, _ = cfg.Resolve(eq, MetricMemory)
	assert.Equal(t, 80.0, *th.Warning)
}

func TestThresholdOverride_Validate(t *testing.T) {
	o := &ThresholdOverride{Warning: Float(50)}
	assert.NoError(t, o.Validate())

	o.ConsecutiveCount = intPtr(0)
	assert.True(t, errorc.IsCode(o.Validate(), errorc.ErrorCodeConfig))

	o = &ThresholdOverride{CooldownMinutes: intPtr(-1)}
	assert.True(t, errorc.IsCode(o.Validate(), errorc.ErrorCodeConfig))
}

func TestPolicy_Normalize(t *testing.T) {
	p := Policy{RequiredConsecutiveCount: 0, Cooldown: -time.Second}.Normalize()
	assert.Equal(t, Policy{RequiredConsecutiveCount: 1}, p)
}
