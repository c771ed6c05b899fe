package service

import (
	"context"
	"sync"

	"dcim/system/alert/internal/model"
)

// SampleSource 每轮评估提供一批采样
type SampleSource interface {
	Name() string
	Collect(ctx context.Context) ([]model.Sample, error)
}

// BufferSource 推送式采样源，同一 目标+指标 只保留最新一条，每轮评估取走全部
type BufferSource struct {
	mu      sync.Mutex
	pending map[string]model.Sample
	order   []string
}

func NewBufferSource() *BufferSource {
	return &BufferSource{pending: make(map[string]model.Sample)}
}

func (b *BufferSource) Name() string {
	return "buffer"
}

// Push 返回当前缓冲中的采样数
func (b *BufferSource) Push(samples ...model.Sample) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range samples {
		key := model.TrackerKey(s.Target, s.Metric)
		if _, ok := b.pending[key]; !ok {
			b.order = append(b.order, key)
		}
		b.pending[key] = s
	}
	return len(b.pending)
}

func (b *BufferSource) Collect(ctx context.Context) ([]model.Sample, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Sample, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.pending[key])
	}
	b.pending = make(map[string]model.Sample)
	b.order = nil
	return out, nil
}
