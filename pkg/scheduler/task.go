package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// TaskType 任务类型
type TaskType int

const (
	// TaskTypeInterval 固定间隔任务
	TaskTypeInterval TaskType = iota
	// TaskTypeCron 基于Cron表达式的任务
	TaskTypeCron
)

// TaskStatus 任务状态
type TaskStatus int

const (
	TaskStatusWaiting TaskStatus = iota
	TaskStatusRunning
	TaskStatusFailed
	TaskStatusCanceled
)

// TaskExecuteMode 任务执行模式
type TaskExecuteMode int

const (
	// TaskExecuteModeDistributed 多实例部署时只在领导者上执行
	TaskExecuteModeDistributed TaskExecuteMode = iota
	// TaskExecuteModeLocal 每个实例都执行
	TaskExecuteModeLocal
)

// TaskFunc 任务执行函数
type TaskFunc func(ctx context.Context) error

// Task 任务接口
type Task interface {
	GetID() string
	GetName() string
	GetType() TaskType
	GetExecuteMode() TaskExecuteMode
	GetNextTime() time.Time
	GetTimeout() time.Duration
	Execute(ctx context.Context) error
	// UpdateNextTime 根据当前时间计算下次执行时间
	UpdateNextTime(currentTime time.Time) time.Time
	CanExecute(currentTime time.Time) bool
	IsCanceled() bool
	Cancel()
	GetStatus() TaskStatus
	SetStatus(status TaskStatus)
}

// BaseTask 基础任务实现
type BaseTask struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        TaskType        `json:"type"`
	ExecuteMode TaskExecuteMode `json:"execute_mode"`
	NextTime    time.Time       `json:"next_time"`
	Timeout     time.Duration   `json:"timeout"`
	Func        TaskFunc        `json:"-"`

	mu     sync.RWMutex
	status TaskStatus
}

func newBaseTask(name string, taskType TaskType, mode TaskExecuteMode, next time.Time, timeout time.Duration, fn TaskFunc) *BaseTask {
	return &BaseTask{
		ID:          uuid.New().String(),
		Name:        name,
		Type:        taskType,
		ExecuteMode: mode,
		NextTime:    next,
		Timeout:     timeout,
		Func:        fn,
		status:      TaskStatusWaiting,
	}
}

func (t *BaseTask) GetID() string                   { return t.ID }
func (t *BaseTask) GetName() string                 { return t.Name }
func (t *BaseTask) GetType() TaskType               { return t.Type }
func (t *BaseTask) GetExecuteMode() TaskExecuteMode { return t.ExecuteMode }

func (t *BaseTask) GetNextTime() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.NextTime
}

func (t *BaseTask) setNextTime(next time.Time) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.NextTime = next
	return next
}

// GetTimeout 未设置时默认 30 秒
func (t *BaseTask) GetTimeout() time.Duration {
	if t.Timeout <= 0 {
		return 30 * time.Second
	}
	return t.Timeout
}

func (t *BaseTask) Execute(ctx context.Context) error {
	if t.Func == nil {
		return nil
	}
	t.SetStatus(TaskStatusRunning)
	err := t.Func(ctx)
	if t.IsCanceled() {
		return err
	}
	if err != nil {
		t.SetStatus(TaskStatusFailed)
	} else {
		t.SetStatus(TaskStatusWaiting)
	}
	return err
}

func (t *BaseTask) CanExecute(currentTime time.Time) bool {
	status := t.GetStatus()
	return (status == TaskStatusWaiting || status == TaskStatusFailed) && !currentTime.Before(t.GetNextTime())
}

func (t *BaseTask) IsCanceled() bool {
	return t.GetStatus() == TaskStatusCanceled
}

func (t *BaseTask) Cancel() {
	t.SetStatus(TaskStatusCanceled)
}

func (t *BaseTask) GetStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *BaseTask) SetStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == TaskStatusCanceled {
		return
	}
	t.status = status
}

// IntervalTask 固定间隔任务，间隔从上次执行结束开始计算
type IntervalTask struct {
	*BaseTask
	Interval time.Duration `json:"interval"`
}

func NewIntervalTask(name string, startTime time.Time, interval time.Duration, executeMode TaskExecuteMode, timeout time.Duration, fn TaskFunc) *IntervalTask {
	return &IntervalTask{
		BaseTask: newBaseTask(name, TaskTypeInterval, executeMode, startTime, timeout, fn),
		Interval: interval,
	}
}

func (t *IntervalTask) UpdateNextTime(currentTime time.Time) time.Time {
	return t.setNextTime(currentTime.Add(t.Interval))
}

// CronTask 基于Cron表达式（含秒）的任务
type CronTask struct {
	*BaseTask
	CronExpr string        `json:"cron_expr"`
	schedule cron.Schedule `json:"-"`
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func NewCronTask(name string, cronExpr string, executeMode TaskExecuteMode, timeout time.Duration, fn TaskFunc) (*CronTask, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}
	return &CronTask{
		BaseTask: newBaseTask(name, TaskTypeCron, executeMode, schedule.Next(time.Now()), timeout, fn),
		CronExpr: cronExpr,
		schedule: schedule,
	}, nil
}

func (t *CronTask) UpdateNextTime(currentTime time.Time) time.Time {
	return t.setNextTime(t.schedule.Next(currentTime))
}
