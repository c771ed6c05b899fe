package broadcast

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed 订阅已关闭
	ErrClosed = errors.New("subscription closed")
	// ErrSlowConsumer 队列被未消费的事件占满，订阅者被判定为无响应
	ErrSlowConsumer = errors.New("subscriber unresponsive")
)

// Subscription 单个订阅者，一个生产者（Hub）一个消费者（推送连接）
type Subscription struct {
	ID        string
	Key       string
	CreatedAt time.Time

	hub    *Hub
	limit  int
	mu     sync.Mutex
	queue  []Message
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
	reason error
}

func newSubscription(hub *Hub, key string, limit int) *Subscription {
	return &Subscription{
		ID:        uuid.New().String(),
		Key:       key,
		CreatedAt: time.Now(),
		hub:       hub,
		limit:     limit,
		queue:     make([]Message, 0, limit),
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// enqueue 返回 dropped 表示有一条心跳被丢弃
func (s *Subscription) enqueue(msg Message) (dropped bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reason != nil {
		return false, ErrClosed
	}

	if len(s.queue) >= s.limit {
		idx := -1
		for i, queued := range s.queue {
			if queued.Heartbeat {
				idx = i
				break
			}
		}
		switch {
		case idx >= 0:
			s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
			dropped = true
		case msg.Heartbeat:
			return true, nil
		default:
			return false, ErrSlowConsumer
		}
	}

	s.queue = append(s.queue, msg)
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return dropped, nil
}

// Next 阻塞直到有消息、订阅关闭或 ctx 结束；关闭前已入队的消息仍会被取完
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			msg := s.queue[0]
			s.queue[0] = Message{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return msg, nil
		}
		reason := s.reason
		s.mu.Unlock()
		if reason != nil {
			return Message{}, reason
		}

		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Pending 队列中未消费的消息数
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Done 订阅关闭时关闭
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err 关闭原因，未关闭时为 nil
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Close 主动取消订阅
func (s *Subscription) Close() {
	s.closeWith(ErrClosed)
}

func (s *Subscription) closeWith(reason error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.reason = reason
		if reason == ErrSlowConsumer {
			s.queue = nil
		}
		s.mu.Unlock()
		close(s.done)
		if s.hub != nil {
			s.hub.remove(s)
		}
	})
}
