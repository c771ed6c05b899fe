package service

import (
	"math"
	"testing"

	"dcim/system/alert/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	cpu := model.MetricKey{Type: model.MetricCPU}
	th := model.Thresholds{Warning: model.Float(80), Critical: model.Float(90)}

	cases := []struct {
		name  string
		value float64
		th    model.Thresholds
		want  model.Severity
	}{
		{"below warning", 79.9, th, model.SeverityNormal},
		{"at warning", 80, th, model.SeverityWarning},
		{"between", 85, th, model.SeverityWarning},
		{"at critical", 90, th, model.SeverityCritical},
		{"above critical", 120, th, model.SeverityCritical},
		{"no thresholds", 1000, model.Thresholds{}, model.SeverityNormal},
		{"critical only", 85, model.Thresholds{Critical: model.Float(90)}, model.SeverityNormal},
		{"warning only", 95, model.Thresholds{Warning: model.Float(80)}, model.SeverityWarning},
		{"nan", math.NaN(), th, model.SeverityNormal},
		{"inf", math.Inf(1), th, model.SeverityNormal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Evaluate(cpu, c.value, c.th))
		})
	}
}
