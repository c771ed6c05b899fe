package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// taskQueue 按下次执行时间排序的最小堆
type taskQueue []Task

func (q taskQueue) Len() int            { return len(q) }
func (q taskQueue) Less(i, j int) bool  { return q[i].GetNextTime().Before(q[j].GetNextTime()) }
func (q taskQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *taskQueue) Push(x interface{}) { *q = append(*q, x.(Task)) }
func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	*q = old[:n-1]
	return task
}

// TaskHeap 线程安全的任务堆
type TaskHeap struct {
	mu    sync.RWMutex
	queue taskQueue
}

func NewTaskHeap() *TaskHeap {
	return &TaskHeap{}
}

func (th *TaskHeap) Push(task Task) {
	th.mu.Lock()
	defer th.mu.Unlock()
	heap.Push(&th.queue, task)
}

func (th *TaskHeap) Remove(taskID string) (Task, bool) {
	th.mu.Lock()
	defer th.mu.Unlock()
	for i, task := range th.queue {
		if task.GetID() == taskID {
			heap.Remove(&th.queue, i)
			return task, true
		}
	}
	return nil, false
}

func (th *TaskHeap) List() []Task {
	th.mu.RLock()
	defer th.mu.RUnlock()
	result := make([]Task, len(th.queue))
	copy(result, th.queue)
	return result
}

func (th *TaskHeap) Size() int {
	th.mu.RLock()
	defer th.mu.RUnlock()
	return th.queue.Len()
}

// NextExecuteTime 堆为空时返回 nil
func (th *TaskHeap) NextExecuteTime() *time.Time {
	th.mu.RLock()
	defer th.mu.RUnlock()
	if th.queue.Len() == 0 {
		return nil
	}
	next := th.queue[0].GetNextTime()
	return &next
}

// PopReadyTasks 弹出所有到期的任务
func (th *TaskHeap) PopReadyTasks(currentTime time.Time) []Task {
	th.mu.Lock()
	defer th.mu.Unlock()

	var ready []Task
	for th.queue.Len() > 0 && !currentTime.Before(th.queue[0].GetNextTime()) {
		task := heap.Pop(&th.queue).(Task)
		if task.CanExecute(currentTime) {
			ready = append(ready, task)
		}
	}
	return ready
}
