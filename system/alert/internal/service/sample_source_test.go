package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/system/alert/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestBufferSource_KeepsLatestPerKey(t *testing.T) {
	b := NewBufferSource()
	eq := model.Target{Type: model.TargetEquipment, ID: 7}
	rack := model.Target{Type: model.TargetRack, ID: 3}
	cpu := model.MetricKey{Type: model.MetricCPU}

	assert.Equal(t, 1, b.Push(model.Sample{Target: eq, Metric: cpu, Value: 50}))
	assert.Equal(t, 2, b.Push(
		model.Sample{Target: rack, Metric: model.MetricKey{Type: model.MetricTemperature}, Value: 28},
		model.Sample{Target: eq, Metric: cpu, Value: 95},
	))

	samples, err := b.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, eq, samples[0].Target)
	assert.Equal(t, 95.0, samples[0].Value)
	assert.Equal(t, rack, samples[1].Target)

	samples, err = b.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, samples)
}

const vectorBody = `{
  "status": "success",
  "data": {
    "resultType": "vector",
    "result": [
      {"metric": {"target_type": "equipment", "target_id": "7", "target_name": "PDU-7", "metric_name": "total"}, "value": [1714564800.5, "95.5"]},
      {"metric": {"target_type": "RACK", "target_id": "3"}, "value": [1714564800, "NaN"]},
      {"metric": {"target_type": "EQUIPMENT", "target_id": "8"}, "value": [1714564800, "abc"]},
      {"metric": {"target_type": "EQUIPMENT", "target_id": "9"}, "value": [1714564800]},
      {"metric": {"instance": "node-1"}, "value": [1714564800, "1"]},
      {"metric": {"target_type": "BUILDING", "target_id": "1"}, "value": [1714564800, "1"]}
    ]
  }
}`

func newPromSource(queries ...config.PrometheusQuery) *PrometheusSource {
	return NewPrometheusSource(config.PrometheusSource{Endpoint: "http://prom:9090/", Queries: queries}, logger.GetLogger())
}

func TestPrometheusSource_Parse(t *testing.T) {
	p := newPromSource()
	samples := p.parse(model.MetricCPU, gjson.Get(vectorBody, "data.result"))
	require.Len(t, samples, 4)

	first := samples[0]
	assert.NoError(t, first.Err)
	assert.Equal(t, model.Target{Type: model.TargetEquipment, ID: 7, Name: "PDU-7"}, first.Target)
	assert.Equal(t, model.MetricKey{Type: model.MetricCPU, Name: "total"}, first.Metric)
	assert.Equal(t, 95.5, first.Value)
	assert.Equal(t, int64(1714564800), first.Timestamp.Unix())

	// NaN 由引擎判定为不可用
	assert.NoError(t, samples[1].Err)
	assert.True(t, math.IsNaN(samples[1].Value))

	assert.True(t, errorc.IsCode(samples[2].Err, errorc.ErrorCodeSampleUnavailable))
	assert.True(t, errorc.IsCode(samples[3].Err, errorc.ErrorCodeSampleUnavailable))
}

func TestPrometheusSource_CollectPartialFailure(t *testing.T) {
	p := newPromSource(
		config.PrometheusQuery{MetricType: "cpu", Query: "cpu_usage"},
		config.PrometheusQuery{MetricType: "MEMORY", Query: "mem_usage"},
		config.PrometheusQuery{MetricType: "TEMPERATURE", Query: "bad_query"},
		config.PrometheusQuery{MetricType: "POWER", Query: "power"},
	)
	assert.Equal(t, "http://prom:9090/api/v1/query", p.endpoint)

	var queried []string
	p.fetch = func(ctx context.Context, query string) (*gjson.Result, error) {
		queried = append(queried, query)
		switch query {
		case "cpu_usage":
			r := gjson.Parse(vectorBody)
			return &r, nil
		case "mem_usage":
			return nil, errors.New("connection refused")
		default:
			r := gjson.Parse(`{"status":"error","error":"parse error"}`)
			return &r, nil
		}
	}

	samples, err := p.Collect(context.Background())
	assert.Equal(t, []string{"cpu_usage", "mem_usage", "bad_query"}, queried)
	assert.Len(t, samples, 4)
	require.Error(t, err)
	assert.True(t, errorc.IsCode(err, errorc.ErrorCodeSampleUnavailable))
	assert.Contains(t, err.Error(), "MEMORY")
	assert.Contains(t, err.Error(), "POWER")
}

func TestPrometheusSource_CollectAllOK(t *testing.T) {
	p := newPromSource(config.PrometheusQuery{MetricType: "DISK", Query: "disk"})
	p.fetch = func(ctx context.Context, query string) (*gjson.Result, error) {
		r := gjson.Parse(`{"status":"success","data":{"result":[]}}`)
		return &r, nil
	}
	samples, err := p.Collect(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, samples)
}
