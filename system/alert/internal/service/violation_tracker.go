package service

import (
	"strings"
	"sync"
	"time"

	"dcim/pkg/keylock"
	"dcim/system/alert/internal/model"
)

// Action 一次评估对跟踪状态的处理结果
type Action string

const (
	ActionIgnore    Action = "ignore"
	ActionReset     Action = "reset"
	ActionIncrement Action = "increment"
	ActionEmit      Action = "emit"
	ActionSuppress  Action = "suppress"
)

// Decision 评估决策，Severity 仅在 Emit 时有意义
type Decision struct {
	Action    Action
	Severity  model.Severity
	Escalated bool
	State     model.TrackerState
}

// Decide 纯状态转移，不修改 prev
func Decide(prev model.TrackerState, verdict model.Severity, value float64, now time.Time, policy model.Policy) Decision {
	policy = policy.Normalize()
	next := prev
	next.LastMeasuredValue = value
	next.UpdatedAt = now

	if verdict == model.SeverityNormal {
		next.ConsecutiveViolations = 0
		action := ActionIgnore
		if prev.ConsecutiveViolations > 0 {
			action = ActionReset
		}
		return Decision{Action: action, State: next}
	}

	next.ConsecutiveViolations++
	violatedAt := now
	next.LastViolationTime = &violatedAt

	if next.ConsecutiveViolations < policy.RequiredConsecutiveCount {
		return Decision{Action: ActionIncrement, State: next}
	}

	cooledDown := prev.LastAlertSentAt == nil || now.Sub(*prev.LastAlertSentAt) >= policy.Cooldown
	escalated := !cooledDown && verdict.MoreSevereThan(prev.LastAlertLevel)
	if !cooledDown && !escalated {
		return Decision{Action: ActionSuppress, Severity: verdict, State: next}
	}

	sentAt := now
	next.LastAlertSentAt = &sentAt
	next.LastAlertLevel = verdict
	return Decision{Action: ActionEmit, Severity: verdict, Escalated: escalated, State: next}
}

// EmitFunc 在持有键锁时持久化告警，返回错误时本次发送不计入冷却
type EmitFunc func(d Decision) error

// trackerEntry 跟踪状态以及清理判断所需的附加信息，附加信息不属于 TrackerState
type trackerEntry struct {
	state model.TrackerState
	// cooldown 最近一次评估使用的冷却时间
	cooldown time.Duration
	// seenAt 采样被跳过（如监控关闭）时的最近出现时间，状态本身保持冻结
	seenAt time.Time
}

func (e trackerEntry) lastActive() time.Time {
	if e.seenAt.After(e.state.UpdatedAt) {
		return e.seenAt
	}
	return e.state.UpdatedAt
}

func (e trackerEntry) coolingDown(now time.Time) bool {
	return e.state.LastAlertSentAt != nil && now.Sub(*e.state.LastAlertSentAt) < e.cooldown
}

// ViolationTracker 进程内的违规跟踪表，同一键的评估串行，不同键并行
type ViolationTracker struct {
	locks   *keylock.KeyedMutex
	mu      sync.RWMutex
	entries map[string]trackerEntry
}

func NewViolationTracker() *ViolationTracker {
	return &ViolationTracker{
		locks:   keylock.New(),
		entries: make(map[string]trackerEntry),
	}
}

// Track 对 key 应用一次评估；决策为 Emit 时在锁内调用 emit
func (t *ViolationTracker) Track(key string, verdict model.Severity, value float64, now time.Time, policy model.Policy, emit EmitFunc) (Decision, error) {
	unlock := t.locks.Lock(key)
	defer unlock()

	t.mu.RLock()
	prev := t.entries[key]
	t.mu.RUnlock()

	d := Decide(prev.state, verdict, value, now, policy)
	var err error
	if d.Action == ActionEmit && emit != nil {
		if err = emit(d); err != nil {
			d.State.LastAlertSentAt = prev.state.LastAlertSentAt
			d.State.LastAlertLevel = prev.state.LastAlertLevel
		}
	}

	t.mu.Lock()
	t.entries[key] = trackerEntry{state: d.State, cooldown: policy.Normalize().Cooldown, seenAt: prev.seenAt}
	t.mu.Unlock()
	return d, err
}

// MarkSeen 记录 key 在本轮出现但未参与评估，不修改跟踪状态；key 不存在时忽略
func (t *ViolationTracker) MarkSeen(key string, now time.Time) {
	unlock := t.locks.Lock(key)
	defer unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.seenAt = now
		t.entries[key] = e
	}
}

func (t *ViolationTracker) Snapshot(key string) (model.TrackerState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e.state, ok
}

// SnapshotAll 返回键以 prefix 开头的全部状态
func (t *ViolationTracker) SnapshotAll(prefix string) map[string]model.TrackerState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]model.TrackerState)
	for k, e := range t.entries {
		if strings.HasPrefix(k, prefix) {
			out[k] = e.state
		}
	}
	return out
}

func (t *ViolationTracker) Forget(key string) {
	unlock := t.locks.Lock(key)
	defer unlock()
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

// Sweep 删除超过 idle 既未评估也未出现的状态，仍在冷却期内的状态保留，返回删除数量
func (t *ViolationTracker) Sweep(idle time.Duration, now time.Time) int {
	deadline := now.Add(-idle)
	sweepable := func(e trackerEntry) bool {
		return e.lastActive().Before(deadline) && !e.coolingDown(now)
	}

	t.mu.RLock()
	var candidates []string
	for k, e := range t.entries {
		if sweepable(e) {
			candidates = append(candidates, k)
		}
	}
	t.mu.RUnlock()

	removed := 0
	for _, k := range candidates {
		unlock := t.locks.Lock(k)
		t.mu.Lock()
		// 拿到键锁后重新判断，期间可能有新的评估
		if e, ok := t.entries[k]; ok && sweepable(e) {
			delete(t.entries, k)
			removed++
		}
		t.mu.Unlock()
		unlock()
	}
	return removed
}

func (t *ViolationTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
