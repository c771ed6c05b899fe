package service

import (
	"context"
	"testing"
	"time"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/system/alert/internal/dao"
	"dcim/system/alert/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSettings(t *testing.T) (*SettingsService, *gorm.DB) {
	t.Helper()
	db := openDB(t)
	log := logger.GetLogger()
	return NewSettingsService(dao.NewAlertSettingsDao(db, log), dao.NewThresholdOverrideDao(db, log), log), db
}

func TestSettings_DefaultsWhenMissing(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90.0, *settings.CpuCritical)

	require.NoError(t, s.EnsureDefaultSettings(ctx))
	require.NoError(t, s.EnsureDefaultSettings(ctx))

	settings, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.GlobalSettingsID, settings.ID)
	assert.Equal(t, 3, settings.DefaultConsecutiveCount)
}

func TestSettings_EnsureKeepsExisting(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	custom := model.DefaultAlertSettings()
	custom.DefaultConsecutiveCount = 5
	_, err := s.UpdateSettings(ctx, custom)
	require.NoError(t, err)

	require.NoError(t, s.EnsureDefaultSettings(ctx))
	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, settings.DefaultConsecutiveCount)
}

func TestSettings_UpdateValidates(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	bad := model.DefaultAlertSettings()
	bad.CpuWarning = model.Float(95)
	_, err := s.UpdateSettings(ctx, bad)
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeConfig))

	good := model.DefaultAlertSettings()
	good.CpuWarning = nil
	good.DefaultCooldownMinutes = 0
	saved, err := s.UpdateSettings(ctx, good)
	require.NoError(t, err)
	assert.Nil(t, saved.CpuWarning)
	assert.Equal(t, 0, saved.DefaultCooldownMinutes)
}

func TestSettings_OverrideUpsertAndDelete(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	o, err := s.SaveOverride(ctx, &model.ThresholdOverride{
		TargetType: model.TargetRack, TargetID: 3, MetricType: model.MetricTemperature,
		Warning: model.Float(25), Critical: model.Float(28), Enabled: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, o.ID)

	// 同一 目标+指标 覆盖原记录
	updated, err := s.SaveOverride(ctx, &model.ThresholdOverride{
		TargetType: model.TargetRack, TargetID: 3, MetricType: model.MetricTemperature,
		Warning: model.Float(26), Enabled: false,
	})
	require.NoError(t, err)
	assert.Equal(t, o.ID, updated.ID)
	assert.Equal(t, 26.0, *updated.Warning)
	assert.Nil(t, updated.Critical)
	assert.False(t, updated.Enabled)

	list, err := s.ListOverrides(ctx, model.TargetRack, 3)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteOverride(ctx, o.ID))
	assert.True(t, errorc.IsNotFound(s.DeleteOverride(ctx, o.ID)))

	list, err = s.ListOverrides(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSettings_OverrideRejectsInvalid(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	_, err := s.SaveOverride(ctx, &model.ThresholdOverride{TargetType: "BUILDING", TargetID: 1, MetricType: model.MetricCPU})
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeConfig))

	_, err = s.SaveOverride(ctx, &model.ThresholdOverride{TargetType: model.TargetRack, TargetID: 1, MetricType: "POWER"})
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeConfig))

	_, err = s.SaveOverride(ctx, &model.ThresholdOverride{
		TargetType: model.TargetRack, TargetID: 1, MetricType: model.MetricCPU,
		Warning: model.Float(90), Critical: model.Float(80),
	})
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeConfig))
}

func TestSettings_LoadConfigSkipsInvalidOverrides(t *testing.T) {
	s, db := newSettings(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureDefaultSettings(ctx))

	_, err := s.SaveOverride(ctx, &model.ThresholdOverride{
		TargetType: model.TargetEquipment, TargetID: 7, MetricType: model.MetricCPU,
		Critical: model.Float(70), CooldownMinutes: intPtr(1), Enabled: true,
	})
	require.NoError(t, err)
	// 直接写库绕过校验
	require.NoError(t, db.Create(&model.ThresholdOverride{
		TargetType: model.TargetEquipment, TargetID: 8, MetricType: model.MetricCPU,
		Warning: model.Float(90), Critical: model.Float(80), Enabled: true,
	}).Error)

	cfg, err := s.LoadConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.OverrideCount())

	th, policy := cfg.Resolve(model.Target{Type: model.TargetEquipment, ID: 7}, model.MetricCPU)
	assert.Nil(t, th.Warning)
	assert.Equal(t, 70.0, *th.Critical)
	assert.Equal(t, time.Minute, policy.Cooldown)
	assert.Equal(t, 3, policy.RequiredConsecutiveCount)

	th, _ = cfg.Resolve(model.Target{Type: model.TargetEquipment, ID: 8}, model.MetricCPU)
	assert.Equal(t, 80.0, *th.Warning)
}

func TestSettings_LoadConfigRejectsBrokenSettings(t *testing.T) {
	s, db := newSettings(t)
	broken := model.DefaultAlertSettings()
	broken.DefaultConsecutiveCount = 0
	require.NoError(t, db.Create(broken).Error)

	_, err := s.LoadConfig(context.Background())
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeConfig))
}

func intPtr(v int) *int { return &v }
