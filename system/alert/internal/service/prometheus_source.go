package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/core/util"
	"dcim/system/alert/internal/model"

	"github.com/tidwall/gjson"
)

// 查询结果中用于定位目标的标签
const (
	labelTargetType = "target_type"
	labelTargetID   = "target_id"
	labelTargetName = "target_name"
	labelMetricName = "metric_name"
)

// PrometheusSource 拉取式采样源，对 Prometheus 兼容接口执行即时查询
type PrometheusSource struct {
	endpoint string
	timeout  time.Duration
	queries  []config.PrometheusQuery
	fetch    func(ctx context.Context, query string) (*gjson.Result, error)
	log      *logger.Log
	err      *errorc.ErrorBuilder
}

func NewPrometheusSource(cfg config.PrometheusSource, log *logger.Log) *PrometheusSource {
	p := &PrometheusSource{
		endpoint: strings.TrimRight(cfg.Endpoint, "/") + "/api/v1/query",
		timeout:  cfg.Timeout,
		queries:  cfg.Queries,
		log:      log.WithEntryName("PrometheusSource"),
		err:      errorc.NewErrorBuilder("PrometheusSource"),
	}
	p.fetch = p.httpFetch
	return p
}

func (p *PrometheusSource) Name() string {
	return "prometheus"
}

func (p *PrometheusSource) httpFetch(ctx context.Context, query string) (*gjson.Result, error) {
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return util.HttpGet(p.endpoint, map[string]string{"query": query}, timeout)
}

// Collect 单条查询失败不影响其他查询，失败信息合并到返回的错误中
func (p *PrometheusSource) Collect(ctx context.Context) ([]model.Sample, error) {
	var (
		samples []model.Sample
		failed  []string
	)
	for _, q := range p.queries {
		metricType := model.MetricType(strings.ToUpper(q.MetricType))
		if !metricType.Valid() {
			failed = append(failed, fmt.Sprintf("%s: 不支持的指标类型", q.MetricType))
			continue
		}
		result, err := p.fetch(ctx, q.Query)
		if err != nil {
			p.log.WithErr(err).WithField("query", q.Query).Warn("Prometheus 查询失败")
			failed = append(failed, fmt.Sprintf("%s: %v", q.MetricType, err))
			continue
		}
		if status := result.Get("status").String(); status != "success" {
			failed = append(failed, fmt.Sprintf("%s: %s %s", q.MetricType, status, result.Get("error").String()))
			continue
		}
		samples = append(samples, p.parse(metricType, result.Get("data.result"))...)
	}

	if len(failed) > 0 {
		return samples, p.err.New("部分查询失败: "+strings.Join(failed, "; "), nil).SampleUnavailable()
	}
	return samples, nil
}

// parse 解析 vector 结果，无法定位目标的序列直接丢弃，数值非法的序列标记为不可用
func (p *PrometheusSource) parse(metricType model.MetricType, series gjson.Result) []model.Sample {
	var samples []model.Sample
	series.ForEach(func(_, item gjson.Result) bool {
		labels := item.Get("metric")
		targetType := model.TargetType(strings.ToUpper(labels.Get(labelTargetType).String()))
		targetID, err := strconv.ParseInt(labels.Get(labelTargetID).String(), 10, 64)
		if !targetType.Valid() || err != nil || targetID <= 0 {
			p.log.WithField("labels", labels.Raw).Debug("序列缺少目标标签，已忽略")
			return true
		}

		sample := model.Sample{
			Target: model.Target{Type: targetType, ID: targetID, Name: labels.Get(labelTargetName).String()},
			Metric: model.MetricKey{Type: metricType, Name: labels.Get(labelMetricName).String()},
		}
		pair := item.Get("value").Array()
		if len(pair) != 2 {
			sample.Err = p.err.New("采样值格式错误", nil).SampleUnavailable()
			samples = append(samples, sample)
			return true
		}
		sec := pair[0].Float()
		sample.Timestamp = time.Unix(0, int64(sec*float64(time.Second)))
		value, err := strconv.ParseFloat(pair[1].String(), 64)
		if err != nil {
			sample.Err = p.err.New("采样值无法解析: "+pair[1].String(), err).SampleUnavailable()
		}
		sample.Value = value
		samples = append(samples, sample)
		return true
	})
	return samples
}
