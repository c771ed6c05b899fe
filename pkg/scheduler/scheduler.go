package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dcim/pkg/lock"

	"go.uber.org/zap"
)

// Scheduler 任务调度器，分布式任务只在持有领导锁的实例上执行
type Scheduler struct {
	nodeID        string
	checkInterval time.Duration
	retryDelay    time.Duration

	isRunning atomic.Bool
	isLeader  atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	taskHeap   *TaskHeap
	leaderLock lock.DistributedLock

	workerSemaphore chan struct{}

	timer   *time.Timer
	timerMu sync.Mutex

	logger *zap.Logger
	stats  *SchedulerStats
}

// SchedulerStats 调度器统计信息
type SchedulerStats struct {
	TotalTasks       atomic.Int64
	CompletedTasks   atomic.Int64
	FailedTasks      atomic.Int64
	DistributedTasks atomic.Int64
	LocalTasks       atomic.Int64
	LeaderElections  atomic.Int64
}

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	NodeID        string        `json:"node_id"`
	LockKey       string        `json:"lock_key"`
	LockTTL       time.Duration `json:"lock_ttl"`
	CheckInterval time.Duration `json:"check_interval"`
	MaxWorkers    int           `json:"max_workers"`
	// RetryDelay 工作者池满时任务的重排延迟
	RetryDelay time.Duration `json:"retry_delay"`
}

func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		NodeID:        fmt.Sprintf("scheduler-%d", time.Now().UnixNano()),
		LockKey:       "dcim/scheduler/leader",
		LockTTL:       30 * time.Second,
		CheckInterval: 5 * time.Second,
		MaxWorkers:    10,
		RetryDelay:    time.Second,
	}
}

// NewScheduler lockManager 为 nil 时使用进程内锁
func NewScheduler(lockManager lock.LockManager, config *SchedulerConfig, logger *zap.Logger) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if lockManager == nil {
		lockManager = lock.NewLocalLockManager()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		nodeID:          config.NodeID,
		checkInterval:   config.CheckInterval,
		retryDelay:      config.RetryDelay,
		ctx:             ctx,
		cancel:          cancel,
		taskHeap:        NewTaskHeap(),
		leaderLock:      lockManager.NewLock(config.LockKey, &lock.LockOptions{TTL: config.LockTTL}),
		workerSemaphore: make(chan struct{}, config.MaxWorkers),
		logger:          logger.Named("scheduler").With(zap.String("node", config.NodeID)),
		stats:           &SchedulerStats{},
	}
}

func (s *Scheduler) Start() error {
	if !s.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("调度器已经在运行")
	}
	s.logger.Info("启动调度器")

	s.tryBecomeLeader()
	s.wg.Add(1)
	go s.leaderLoop()

	s.resetTimer()
	return nil
}

func (s *Scheduler) Stop() error {
	if !s.isRunning.CompareAndSwap(true, false) {
		return nil
	}
	s.logger.Info("停止调度器")
	s.cancel()
	s.stopTimer()
	s.wg.Wait()

	if s.leaderLock.IsLocked() {
		if err := s.leaderLock.Unlock(context.Background()); err != nil {
			s.logger.Warn("释放领导锁失败", zap.Error(err))
		}
	}
	s.logger.Info("调度器已停止")
	return nil
}

func (s *Scheduler) AddTask(task Task) error {
	if !s.isRunning.Load() {
		return fmt.Errorf("调度器未运行")
	}
	s.taskHeap.Push(task)
	s.stats.TotalTasks.Add(1)
	s.logger.Info("添加任务", zap.String("task", task.GetName()), zap.String("id", task.GetID()))
	s.resetTimer()
	return nil
}

// RemoveTask 正在执行的任务会在本次执行结束后停止调度
func (s *Scheduler) RemoveTask(taskID string) bool {
	if task, ok := s.taskHeap.Remove(taskID); ok {
		task.Cancel()
		s.resetTimer()
		return true
	}
	return false
}

func (s *Scheduler) ListTasks() []Task {
	return s.taskHeap.List()
}

func (s *Scheduler) Stats() *SchedulerStats {
	return s.stats
}

func (s *Scheduler) IsLeader() bool {
	return s.isLeader.Load()
}

func (s *Scheduler) leaderLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tryBecomeLeader()
		}
	}
}

func (s *Scheduler) tryBecomeLeader() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	locked, err := s.leaderLock.TryLock(ctx)
	if err != nil {
		s.logger.Warn("尝试获取领导锁失败", zap.Error(err))
		locked = false
	}

	if locked && !s.isLeader.Load() {
		s.logger.Info("成为领导者")
		s.isLeader.Store(true)
		s.stats.LeaderElections.Add(1)
	} else if !locked && s.isLeader.Load() {
		s.logger.Info("失去领导者身份")
		s.isLeader.Store(false)
	}
}

func (s *Scheduler) resetTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	if !s.isRunning.Load() {
		return
	}
	next := s.taskHeap.NextExecuteTime()
	if next == nil {
		return
	}
	wait := time.Until(*next)
	if wait < 0 {
		wait = 0
	}
	s.timer = time.AfterFunc(wait, s.onTimerFired)
}

func (s *Scheduler) stopTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) onTimerFired() {
	if !s.isRunning.Load() {
		return
	}
	for _, task := range s.taskHeap.PopReadyTasks(time.Now()) {
		s.dispatch(task)
	}
	s.resetTimer()
}

// reschedule 计算下次执行时间并放回堆
func (s *Scheduler) reschedule(task Task, from time.Time) {
	if task.IsCanceled() || !s.isRunning.Load() {
		return
	}
	task.UpdateNextTime(from)
	task.SetStatus(TaskStatusWaiting)
	s.taskHeap.Push(task)
}

func (s *Scheduler) dispatch(task Task) {
	if task.GetExecuteMode() == TaskExecuteModeDistributed && !s.isLeader.Load() {
		// 非领导者跳过本轮
		s.reschedule(task, time.Now())
		return
	}

	select {
	case s.workerSemaphore <- struct{}{}:
		if task.GetExecuteMode() == TaskExecuteModeDistributed {
			s.stats.DistributedTasks.Add(1)
		} else {
			s.stats.LocalTasks.Add(1)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.workerSemaphore }()
			s.runTask(task)
		}()
	default:
		s.logger.Warn("工作者池已满，任务重新调度", zap.String("task", task.GetName()))
		s.reschedule(task, time.Now().Add(s.retryDelay))
	}
}

func (s *Scheduler) runTask(task Task) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(s.ctx, task.GetTimeout())
	defer cancel()

	err := s.safeExecute(ctx, task)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("任务执行失败", zap.String("task", task.GetName()), zap.Duration("duration", duration), zap.Error(err))
		s.stats.FailedTasks.Add(1)
	} else {
		s.logger.Debug("任务执行成功", zap.String("task", task.GetName()), zap.Duration("duration", duration))
		s.stats.CompletedTasks.Add(1)
	}

	s.reschedule(task, time.Now())
	s.resetTimer()
}

func (s *Scheduler) safeExecute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("任务 panic: %v", r)
		}
	}()
	return task.Execute(ctx)
}
