package http

import (
	"context"
	"fmt"
	"testing"

	"dcim/system/alert/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsBody(cpuWarning, cpuCritical float64) fiber.Map {
	return fiber.Map{
		"cpuWarning":              cpuWarning,
		"cpuCritical":             cpuCritical,
		"defaultConsecutiveCount": 2,
		"defaultCooldownMinutes":  5,
	}
}

func TestSettingsController_UpdateSettings(t *testing.T) {
	f, a := newTestServer(t)

	res := call(t, f, "PUT", "/admin/alert-settings", settingsBody(70, 85))
	assert.Equal(t, int64(200), res.Get("status").Int())
	assert.Equal(t, 85.0, res.Get("data.cpuCritical").Float())

	res = call(t, f, "GET", "/admin/alert-settings", nil)
	assert.Equal(t, 70.0, res.Get("data.cpuWarning").Float())
	assert.Equal(t, int64(2), res.Get("data.defaultConsecutiveCount").Int())

	cfg, err := a.SettingsSvc.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Settings.DefaultConsecutiveCount)
}

func TestSettingsController_UpdateSettingsRejectsInvertedThresholds(t *testing.T) {
	f, _ := newTestServer(t)

	res := call(t, f, "PUT", "/admin/alert-settings", settingsBody(95, 90))
	assert.Equal(t, int64(422), res.Get("status").Int())

	res = call(t, f, "GET", "/admin/alert-settings", nil)
	assert.Equal(t, 90.0, res.Get("data.cpuCritical").Float())
}

func TestSettingsController_UpdateSettingsRequiresPolicy(t *testing.T) {
	f, _ := newTestServer(t)

	res := call(t, f, "PUT", "/admin/alert-settings", fiber.Map{"cpuWarning": 70, "cpuCritical": 85})
	assert.Equal(t, int64(400), res.Get("status").Int())
}

func TestSettingsController_Overrides(t *testing.T) {
	f, a := newTestServer(t)

	res := call(t, f, "POST", "/admin/alert-thresholds", fiber.Map{
		"targetType": "EQUIPMENT", "targetId": 7, "metricType": "CPU", "warning": 60, "critical": 70,
	})
	assert.Equal(t, int64(200), res.Get("status").Int())
	id := res.Get("data.id").Int()
	require.NotZero(t, id)
	assert.True(t, res.Get("data.enabled").Bool())

	res = call(t, f, "GET", "/admin/alert-thresholds?targetType=EQUIPMENT&targetId=7", nil)
	assert.Len(t, res.Get("data").Array(), 1)

	cfg, err := a.SettingsSvc.LoadConfig(context.Background())
	require.NoError(t, err)
	th, _ := cfg.Resolve(model.Target{Type: model.TargetEquipment, ID: 7}, model.MetricCPU)
	assert.Equal(t, 70.0, *th.Critical)

	res = call(t, f, "DELETE", fmt.Sprintf("/admin/alert-thresholds/%d", id), nil)
	assert.Equal(t, int64(200), res.Get("status").Int())
	res = call(t, f, "GET", "/admin/alert-thresholds", nil)
	assert.Empty(t, res.Get("data").Array())
}

func TestSettingsController_OverrideValidation(t *testing.T) {
	f, _ := newTestServer(t)

	// 目标不存在
	res := call(t, f, "POST", "/admin/alert-thresholds", fiber.Map{
		"targetType": "EQUIPMENT", "targetId": 8, "metricType": "CPU", "critical": 70,
	})
	assert.Equal(t, int64(404), res.Get("status").Int())

	res = call(t, f, "POST", "/admin/alert-thresholds", fiber.Map{
		"targetType": "EQUIPMENT", "targetId": 7, "metricType": "CPU", "warning": 80, "critical": 70,
	})
	assert.Equal(t, int64(422), res.Get("status").Int())

	res = call(t, f, "POST", "/admin/alert-thresholds", fiber.Map{
		"targetType": "EQUIPMENT", "targetId": 7, "metricType": "POWER", "critical": 70,
	})
	assert.Equal(t, int64(400), res.Get("status").Int())
}

func TestSettingsController_RunEngineAndTrackers(t *testing.T) {
	f, a := newTestServer(t)
	a.Buffer.Push(model.Sample{
		Target: model.Target{Type: model.TargetEquipment, ID: 7},
		Metric: model.MetricKey{Type: model.MetricCPU},
		Value:  95,
	})

	res := call(t, f, "POST", "/admin/alert-engine/run", nil)
	assert.Equal(t, int64(200), res.Get("status").Int())
	assert.Equal(t, int64(1), res.Get("data.samples").Int())
	assert.Equal(t, int64(1), res.Get("data.evaluated").Int())

	res = call(t, f, "GET", "/admin/alert-trackers?targetType=EQUIPMENT&targetId=7", nil)
	trackers := res.Get("data").Map()
	require.Len(t, trackers, 1)
	for _, state := range trackers {
		assert.Equal(t, int64(1), state.Get("consecutiveViolations").Int())
	}

	res = call(t, f, "GET", "/admin/alert-trackers?targetType=RACK", nil)
	assert.Empty(t, res.Get("data").Map())
}
