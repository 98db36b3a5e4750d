package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
)

// State はタイマーの状態を表す。
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	// StateCompleted はセッション記録中のみ現れる。記録後はStateIdleに戻る。
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TickInterval はカウントダウンの1ティックの長さ。
const TickInterval = time.Second

// LongBreakInterval 回目の作業セッション完了ごとに長い休憩を選ぶ。
const LongBreakInterval = 4

var (
	// ErrTimerActive は実行中または一時停止中に開始しようとした場合のエラー。
	ErrTimerActive = errors.New("timer is already active")
	// ErrTimerIdle は開始前に一時停止しようとした場合のエラー。
	ErrTimerIdle = errors.New("timer is not running")
	// ErrTimerCancelled はカウントダウンが途中で破棄された場合のエラー。
	ErrTimerCancelled = errors.New("timer cancelled")
)

// Durations は種別ごとのセッションの長さ。
type Durations struct {
	Work       time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// DefaultDurations は25分/5分/15分を返す。
func DefaultDurations() Durations {
	return Durations{
		Work:       25 * time.Minute,
		ShortBreak: 5 * time.Minute,
		LongBreak:  15 * time.Minute,
	}
}

// For は種別に対応する長さを返す。
func (d Durations) For(t model.SessionType) time.Duration {
	switch t {
	case model.SessionShortBreak:
		return d.ShortBreak
	case model.SessionLongBreak:
		return d.LongBreak
	default:
		return d.Work
	}
}

func (d *Durations) set(t model.SessionType, v time.Duration) {
	switch t {
	case model.SessionShortBreak:
		d.ShortBreak = v
	case model.SessionLongBreak:
		d.LongBreak = v
	default:
		d.Work = v
	}
}

// CompletedSession は完了したセッションの記録内容。
type CompletedSession struct {
	Type            model.SessionType
	DurationMinutes int
	TaskID          *string
}

// SessionRecorder は完了したセッションを永続化する。
type SessionRecorder interface {
	RecordSession(ctx context.Context, s CompletedSession) error
}

// Snapshot はタイマーの表示用の状態。
type Snapshot struct {
	State          State
	Type           model.SessionType
	Remaining      time.Duration
	Total          time.Duration
	TaskID         *string
	CompletedToday int
}

// Event はTickの結果。セッションが完了した場合のみCompletedが設定される。
type Event struct {
	Completed *CompletedSession
	Next      model.SessionType
}

// Timer はポモドーロタイマーの状態機械。
// 時間は外部から与えられるTickでのみ進む。
type Timer struct {
	mu             sync.Mutex
	recorder       SessionRecorder
	durations      Durations
	state          State
	sessionType    model.SessionType
	total          time.Duration
	remaining      time.Duration
	taskID         *string
	completedToday int
}

// NewTimer は作業セッションを選択したIdle状態のTimerを生成する。
func NewTimer(recorder SessionRecorder, durations Durations) *Timer {
	t := &Timer{
		recorder:    recorder,
		durations:   durations,
		state:       StateIdle,
		sessionType: model.SessionWork,
	}
	t.rewind()
	return t
}

// Start はカウントダウンを開始する。
// 実行中・一時停止中の場合はErrTimerActiveを返すので、先にResetすること。
func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return ErrTimerActive
	}
	t.state = StateRunning
	return nil
}

// TogglePause は実行中と一時停止を切り替える。
func (t *Timer) TogglePause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateRunning:
		t.state = StatePaused
	case StatePaused:
		t.state = StateRunning
	default:
		return ErrTimerIdle
	}
	return nil
}

// Reset はカウントダウンを破棄してIdleに戻る。途中経過は記録しない。
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateIdle
	t.rewind()
}

// SwitchType はセッション種別を切り替えてIdleに戻る。
func (t *Timer) SwitchType(st model.SessionType) error {
	if !st.Valid() {
		return fmt.Errorf("unknown session type %q", st)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionType = st
	t.state = StateIdle
	t.rewind()
	return nil
}

// SetDuration は種別ごとの長さを変更する。
// Idle中に選択中の種別を変更した場合のみ残り時間に反映される。
func (t *Timer) SetDuration(st model.SessionType, d time.Duration) error {
	if !st.Valid() {
		return fmt.Errorf("unknown session type %q", st)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive: %s", d)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.durations.set(st, d)
	if t.state == StateIdle && st == t.sessionType {
		t.rewind()
	}
	return nil
}

// SelectTask は作業セッションに紐づけるタスクを選択する。nilで解除。
func (t *Timer) SelectTask(taskID *string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if taskID == nil {
		t.taskID = nil
		return
	}
	id := *taskID
	t.taskID = &id
}

// Snapshot は現在の状態を返す。
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	var taskID *string
	if t.taskID != nil {
		id := *t.taskID
		taskID = &id
	}
	return Snapshot{
		State:          t.state,
		Type:           t.sessionType,
		Remaining:      t.remaining,
		Total:          t.total,
		TaskID:         taskID,
		CompletedToday: t.completedToday,
	}
}

// Tick はカウントダウンを1ティック進める。
// 実行中以外は何もしない。残り時間が0になった場合はセッションを記録し、
// 次の種別を選んでIdleに戻る。記録に失敗した場合は完了前の種別の
// Idle状態に戻り、完了数は加算しない。
func (t *Timer) Tick(ctx context.Context) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return Event{Next: t.sessionType}, nil
	}
	t.remaining -= TickInterval
	if t.remaining > 0 {
		return Event{Next: t.sessionType}, nil
	}
	t.remaining = 0
	t.state = StateCompleted

	session := CompletedSession{
		Type:            t.sessionType,
		DurationMinutes: wholeMinutes(t.total),
	}
	if t.sessionType == model.SessionWork && t.taskID != nil {
		id := *t.taskID
		session.TaskID = &id
	}

	if err := t.recorder.RecordSession(ctx, session); err != nil {
		t.state = StateIdle
		t.rewind()
		return Event{Next: t.sessionType}, fmt.Errorf("failed to record session: %w", err)
	}

	if t.sessionType == model.SessionWork {
		t.completedToday++
		if t.completedToday%LongBreakInterval == 0 {
			t.sessionType = model.SessionLongBreak
		} else {
			t.sessionType = model.SessionShortBreak
		}
	} else {
		t.sessionType = model.SessionWork
	}
	t.state = StateIdle
	t.rewind()
	return Event{Completed: &session, Next: t.sessionType}, nil
}

// rewind は選択中の種別の長さに残り時間を戻す。mu保持中に呼ぶこと。
func (t *Timer) rewind() {
	t.total = t.durations.For(t.sessionType)
	t.remaining = t.total
}

// wholeMinutes は記録用に分へ切り上げる。1分未満は1分とする。
func wholeMinutes(d time.Duration) int {
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

// Ticker はTickの時刻源。
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

// NewRealTicker はTickInterval間隔のTickerを生成する。
func NewRealTicker() Ticker {
	return &realTicker{t: time.NewTicker(TickInterval)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Run は現在のセッションが完了するまでタイマーを駆動する。
// Idleの場合は開始する。tickerはRunが所有し、終了時に停止する。
// ctxが終了した場合はResetして途中経過を破棄し、ErrTimerCancelledを返す。
func (t *Timer) Run(ctx context.Context, ticker Ticker, onTick func(Snapshot)) (Event, error) {
	defer ticker.Stop()

	// 実行中・一時停止中の場合はそのまま駆動する
	_ = t.Start()

	for {
		select {
		case <-ctx.Done():
			t.Reset()
			return Event{}, fmt.Errorf("%w: %v", ErrTimerCancelled, ctx.Err())
		case <-ticker.C():
			ev, err := t.Tick(ctx)
			if onTick != nil {
				onTick(t.Snapshot())
			}
			if err != nil {
				return ev, err
			}
			if ev.Completed != nil {
				return ev, nil
			}
		}
	}
}
