package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/logger"
	"dcim/pkg/metrics"
	"dcim/system/alert/api/dto"
	"dcim/system/alert/internal/facade"
	"dcim/system/alert/internal/model"
	"dcim/system/alert/internal/service"
)

type configLoader interface {
	LoadConfig(ctx context.Context) (*model.ThresholdConfig, error)
}

type alertCreator interface {
	Create(ctx context.Context, alert *model.AlertHistory) (*model.AlertHistory, error)
}

type outcome int

const (
	outcomeEvaluated outcome = iota
	outcomeEmitted
	outcomeSuppressed
	outcomeUnavailable
	outcomeDisabled
	outcomeFailed
)

var outcomeLabels = map[outcome]string{
	outcomeEvaluated:   "evaluated",
	outcomeEmitted:     "evaluated",
	outcomeSuppressed:  "evaluated",
	outcomeUnavailable: "unavailable",
	outcomeDisabled:    "disabled",
	outcomeFailed:      "failed",
}

// CycleReport 一轮评估的统计
type CycleReport struct {
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
	Samples      int           `json:"samples"`
	Evaluated    int           `json:"evaluated"`
	Emitted      int           `json:"emitted"`
	Suppressed   int           `json:"suppressed"`
	Unavailable  int           `json:"unavailable"`
	Disabled     int           `json:"disabled"`
	Failed       int           `json:"failed"`
	SourceErrors []string      `json:"sourceErrors,omitempty"`
}

func (r *CycleReport) add(o outcome) {
	switch o {
	case outcomeEmitted:
		r.Evaluated++
		r.Emitted++
	case outcomeSuppressed:
		r.Evaluated++
		r.Suppressed++
	case outcomeEvaluated:
		r.Evaluated++
	case outcomeUnavailable:
		r.Unavailable++
	case outcomeDisabled:
		r.Disabled++
	case outcomeFailed:
		r.Failed++
	}
}

// Engine 周期性评估采样：阈值判定、去抖冷却、生成告警并推送
// 单个采样的失败只影响它自己，不中断本轮评估
type Engine struct {
	settings configLoader
	tracker  *service.ViolationTracker
	store    alertCreator
	assets   facade.IAssetFacade
	sources  []service.SampleSource
	workers  int
	now      func() time.Time
	running  sync.Mutex
	log      *logger.Log
	err      *errorc.ErrorBuilder
}

func NewEngine(settings configLoader, tracker *service.ViolationTracker, store alertCreator, assets facade.IAssetFacade,
	sources []service.SampleSource, workers int, log *logger.Log) *Engine {
	if workers <= 0 {
		workers = 1
	}
	return &Engine{
		settings: settings,
		tracker:  tracker,
		store:    store,
		assets:   assets,
		sources:  sources,
		workers:  workers,
		now:      time.Now,
		log:      log.WithEntryName("AlertEngine"),
		err:      errorc.NewErrorBuilder("AlertEngine"),
	}
}

// RunCycle 同一时刻只运行一轮，阈值配置在每轮开始时重新读取
func (e *Engine) RunCycle(ctx context.Context) (*CycleReport, error) {
	if !e.running.TryLock() {
		return nil, e.err.New("上一轮评估尚未结束", nil).Unavailable()
	}
	defer e.running.Unlock()

	report := &CycleReport{StartedAt: e.now()}
	cfg, err := e.settings.LoadConfig(ctx)
	if err != nil {
		metrics.EngineCyclesTotal.WithLabelValues("config_error").Inc()
		e.log.WithErr(err).Error("读取告警阈值配置失败，跳过本轮评估")
		return nil, err
	}

	samples := e.collect(ctx, report)
	report.Samples = len(samples)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, e.workers)
	)
dispatch:
	for _, sample := range samples {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		wg.Add(1)
		go func(s model.Sample) {
			defer wg.Done()
			defer func() { <-sem }()
			o := e.evaluate(ctx, cfg, s)
			metrics.EngineSamplesTotal.WithLabelValues(outcomeLabels[o]).Inc()
			mu.Lock()
			report.add(o)
			mu.Unlock()
		}(sample)
	}
	wg.Wait()

	report.Duration = e.now().Sub(report.StartedAt)
	metrics.EngineCyclesTotal.WithLabelValues("ok").Inc()
	metrics.EngineCycleDuration.Observe(report.Duration.Seconds())
	metrics.TrackerSize.Set(float64(e.tracker.Len()))
	e.log.WithFields(map[string]interface{}{
		"samples":     report.Samples,
		"emitted":     report.Emitted,
		"suppressed":  report.Suppressed,
		"unavailable": report.Unavailable,
		"disabled":    report.Disabled,
		"failed":      report.Failed,
		"duration":    report.Duration.String(),
	}).Debug("本轮告警评估完成")
	return report, nil
}

func (e *Engine) collect(ctx context.Context, report *CycleReport) []model.Sample {
	var samples []model.Sample
	for _, source := range e.sources {
		batch, err := source.Collect(ctx)
		if err != nil {
			e.log.WithErr(err).WithField("source", source.Name()).Warn("采样源返回错误")
			report.SourceErrors = append(report.SourceErrors, fmt.Sprintf("%s: %s", source.Name(), err.Error()))
		}
		samples = append(samples, batch...)
	}
	return samples
}

func (e *Engine) evaluate(ctx context.Context, cfg *model.ThresholdConfig, s model.Sample) (result outcome) {
	key := model.TrackerKey(s.Target, s.Metric)
	log := e.log.WithField("key", key)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("评估采样时发生异常")
			result = outcomeFailed
		}
	}()

	if s.Err != nil {
		log.WithErr(s.Err).Debug("采样不可用，本轮跳过")
		return outcomeUnavailable
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		log.WithField("value", s.Value).Debug("采样值非有限数，本轮跳过")
		return outcomeUnavailable
	}
	if !s.Target.Type.Valid() || !s.Metric.Type.Valid() {
		log.Warn("采样的目标或指标类型不合法")
		return outcomeFailed
	}

	lineage, err := e.assets.ResolveLineage(ctx, string(s.Target.Type), s.Target.ID)
	if err != nil {
		log.WithErr(err).Warn("解析资产层级失败")
		return outcomeFailed
	}
	if node, disabled := lineage.DisabledAt(); disabled {
		log.WithField("disabledAt", model.ScopeKey(model.TargetType(node.Type), node.ID)).Debug("监控已关闭，跟踪状态保持不变")
		e.tracker.MarkSeen(key, e.now())
		return outcomeDisabled
	}

	target := s.Target
	if target.Name == "" {
		target.Name = lineage.Target().Name
	}
	th, policy := cfg.Resolve(target, s.Metric.Type)
	verdict := service.Evaluate(s.Metric, s.Value, th)

	d, err := e.tracker.Track(key, verdict, s.Value, e.now(), policy, func(d service.Decision) error {
		_, err := e.store.Create(ctx, e.newAlert(target, s, d, th))
		return err
	})
	metrics.TrackerDecisionsTotal.WithLabelValues(string(d.Action)).Inc()
	if err != nil {
		log.WithErr(err).Error("保存告警失败，本次告警不计入冷却")
		return outcomeFailed
	}

	switch d.Action {
	case service.ActionEmit:
		return outcomeEmitted
	case service.ActionSuppress:
		return outcomeSuppressed
	default:
		return outcomeEvaluated
	}
}

func (e *Engine) newAlert(target model.Target, s model.Sample, d service.Decision, th model.Thresholds) *model.AlertHistory {
	threshold := th.Level(d.Severity)
	metricName := dto.MetricText(s.Metric.Type)
	if s.Metric.Name != "" {
		metricName += "(" + s.Metric.Name + ")"
	}
	message := fmt.Sprintf("%s %s 的%s为 %.2f，达到%s阈值 %.2f，已连续违规 %d 次",
		dto.TargetText(target.Type), target.Name, metricName, s.Value,
		dto.SeverityText(d.Severity), threshold, d.State.ConsecutiveViolations)
	if d.Escalated {
		message += "，告警级别升级"
	}
	return &model.AlertHistory{
		TargetType:     target.Type,
		TargetID:       target.ID,
		TargetName:     target.Name,
		MetricType:     s.Metric.Type,
		MetricName:     s.Metric.Name,
		Level:          d.Severity,
		MeasuredValue:  s.Value,
		ThresholdValue: threshold,
		TriggeredAt:    *d.State.LastAlertSentAt,
		Message:        message,
	}
}

// Sweep 清理长时间未更新的跟踪状态
func (e *Engine) Sweep(idle time.Duration) int {
	removed := e.tracker.Sweep(idle, e.now())
	metrics.TrackerSize.Set(float64(e.tracker.Len()))
	if removed > 0 {
		e.log.WithField("removed", removed).Info("已清理闲置的违规跟踪状态")
	}
	return removed
}

// TrackerSnapshot 只读的跟踪状态，用于诊断
func (e *Engine) TrackerSnapshot(prefix string) map[string]model.TrackerState {
	return e.tracker.SnapshotAll(prefix)
}
