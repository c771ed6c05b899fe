// Package broadcast 按订阅键扇出消息。
//
// 订阅表是一个不可变快照，订阅与取消订阅时整体复制后原子替换，发布路径只读快照不加表锁。
// 发布之间互斥执行，因此同一订阅者收到的消息顺序与发布顺序一致。
// 每个订阅者有独立的有界队列：队列满时优先丢弃最早的心跳，事件永不丢弃；
// 队列被事件占满说明消费端已无响应，该订阅会被断开。
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Observer 订阅生命周期的观测回调
type Observer interface {
	SubscribersChanged(n int)
	HeartbeatDropped()
	SubscriberEvicted(reason error)
}

type nopObserver struct{}

func (nopObserver) SubscribersChanged(int)  {}
func (nopObserver) HeartbeatDropped()       {}
func (nopObserver) SubscriberEvicted(error) {}

type Options struct {
	// Buffer 每个订阅者的队列长度
	Buffer            int
	HeartbeatInterval time.Duration
	Logger            *zap.Logger
	Observer          Observer
}

type registry struct {
	byKey map[string][]*Subscription
	all   []*Subscription
}

type Hub struct {
	opts      Options
	snapshot  atomic.Pointer[registry]
	writeMu   sync.Mutex
	publishMu sync.Mutex
	logger    *zap.Logger
	closed    atomic.Bool
}

func NewHub(opts Options) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	h := &Hub{opts: opts, logger: opts.Logger.Named("broadcast")}
	h.snapshot.Store(&registry{byKey: map[string][]*Subscription{}})
	return h
}

// Subscribe 在 key 上注册一个订阅
func (h *Hub) Subscribe(key string) *Subscription {
	sub := newSubscription(h, key, h.opts.Buffer)

	h.writeMu.Lock()
	// Close 在 writeMu 下置位，这里看到的状态与 Close 读取的快照一致
	if h.closed.Load() {
		h.writeMu.Unlock()
		sub.closeWith(ErrClosed)
		return sub
	}
	old := h.snapshot.Load()
	next := &registry{
		byKey: make(map[string][]*Subscription, len(old.byKey)+1),
		all:   make([]*Subscription, 0, len(old.all)+1),
	}
	for k, subs := range old.byKey {
		next.byKey[k] = subs
	}
	list := make([]*Subscription, 0, len(old.byKey[key])+1)
	list = append(list, old.byKey[key]...)
	next.byKey[key] = append(list, sub)
	next.all = append(append(next.all, old.all...), sub)
	h.snapshot.Store(next)
	n := len(next.all)
	h.writeMu.Unlock()

	h.opts.Observer.SubscribersChanged(n)
	h.logger.Debug("新增订阅", zap.String("id", sub.ID), zap.String("key", key))
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.writeMu.Lock()
	old := h.snapshot.Load()
	list, ok := old.byKey[sub.Key]
	idx := -1
	if ok {
		for i, s := range list {
			if s == sub {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		h.writeMu.Unlock()
		return
	}

	next := &registry{
		byKey: make(map[string][]*Subscription, len(old.byKey)),
		all:   make([]*Subscription, 0, len(old.all)),
	}
	for k, subs := range old.byKey {
		next.byKey[k] = subs
	}
	if len(list) == 1 {
		delete(next.byKey, sub.Key)
	} else {
		trimmed := make([]*Subscription, 0, len(list)-1)
		trimmed = append(trimmed, list[:idx]...)
		next.byKey[sub.Key] = append(trimmed, list[idx+1:]...)
	}
	for _, s := range old.all {
		if s != sub {
			next.all = append(next.all, s)
		}
	}
	h.snapshot.Store(next)
	n := len(next.all)
	h.writeMu.Unlock()

	h.opts.Observer.SubscribersChanged(n)
	h.logger.Debug("移除订阅", zap.String("id", sub.ID), zap.String("key", sub.Key), zap.Error(sub.Err()))
}

// Publish 投递给订阅了任一 key 的订阅者，同一订阅者只投递一次，返回成功入队的订阅者数
func (h *Hub) Publish(keys []string, msg Message) int {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	snap := h.snapshot.Load()
	seen := make(map[*Subscription]struct{})
	delivered := 0
	for _, key := range keys {
		for _, sub := range snap.byKey[key] {
			if _, dup := seen[sub]; dup {
				continue
			}
			seen[sub] = struct{}{}
			if h.deliver(sub, msg) {
				delivered++
			}
		}
	}
	return delivered
}

// Broadcast 投递给全部订阅者
func (h *Hub) Broadcast(msg Message) int {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	delivered := 0
	for _, sub := range h.snapshot.Load().all {
		if h.deliver(sub, msg) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) deliver(sub *Subscription, msg Message) bool {
	dropped, err := sub.enqueue(msg)
	if dropped {
		h.opts.Observer.HeartbeatDropped()
	}
	if err == nil {
		return true
	}

	if err == ErrSlowConsumer {
		h.logger.Warn("订阅者无响应，断开连接", zap.String("id", sub.ID), zap.String("key", sub.Key))
		h.opts.Observer.SubscriberEvicted(err)
	}
	sub.closeWith(err)
	return false
}

// Run 周期性发送心跳，直到 ctx 结束
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast(NewHeartbeat())
		}
	}
}

// Len 当前订阅者数量
func (h *Hub) Len() int {
	return len(h.snapshot.Load().all)
}

// Close 关闭所有订阅，之后的订阅立即处于关闭状态
func (h *Hub) Close() {
	h.writeMu.Lock()
	if !h.closed.CompareAndSwap(false, true) {
		h.writeMu.Unlock()
		return
	}
	subs := h.snapshot.Load().all
	h.writeMu.Unlock()

	// Subscription.Close 会回调 remove 获取 writeMu，需在锁外关闭
	for _, sub := range subs {
		sub.Close()
	}
}
