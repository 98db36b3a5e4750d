package cleanup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeResult struct {
	rowsAffected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// Executor インターフェースに対するモック実装
type mockExecutor struct {
	mu         sync.Mutex
	execCalled int
	query      string
	args       []interface{}
	result     sql.Result
	err        error
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execCalled++
	m.query = query
	m.args = args
	return m.result, m.err
}

func (m *mockExecutor) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.execCalled
}

// syncBuffer はcronのgoroutineとテストから同時に使うためのバッファ。
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(w *syncBuffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// findLogField はJSONログの各行からkeyを探す。
func findLogField(logs, key string) (interface{}, bool) {
	for _, line := range strings.Split(strings.TrimSpace(logs), "\n") {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if v, ok := entry[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func TestCleanupJob_Run_DeletesExpiredSessions(t *testing.T) {
	var buf syncBuffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 5}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if mock.calls() != 1 {
		t.Fatalf("ExecContext 呼び出し回数 = %d, want 1", mock.calls())
	}
	if !strings.Contains(mock.query, "DELETE FROM sessions") {
		t.Errorf("クエリに 'DELETE FROM sessions' が含まれていない: %s", mock.query)
	}
	if !strings.Contains(mock.query, "expires_at <") {
		t.Errorf("クエリに expires_at 条件が含まれていない: %s", mock.query)
	}
	if len(mock.args) != 1 {
		t.Fatalf("引数の数 = %d, want 1", len(mock.args))
	}
	if got, ok := mock.args[0].(time.Time); !ok || !got.Equal(fixed) {
		t.Errorf("cutoff引数 = %v, want %v", mock.args[0], fixed)
	}
}

func TestCleanupJob_Run_LogsDeletedCount(t *testing.T) {
	var buf syncBuffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 42}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	_ = job.Run(context.Background())

	count, ok := findLogField(buf.String(), "deleted_count")
	if !ok || count != float64(42) {
		t.Errorf("ログに deleted_count=42 が記録されていない。ログ出力: %s", buf.String())
	}
	if _, ok := findLogField(buf.String(), "duration_ms"); !ok {
		t.Errorf("ログに duration_ms が記録されていない。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Run_ReturnsErrorOnDBFailure(t *testing.T) {
	var buf syncBuffer
	mock := &mockExecutor{err: sql.ErrConnDone}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("DBエラー時に Run() は nil でないエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "sql: connection is already closed") {
		t.Errorf("エラーメッセージが期待と異なる: %v", err)
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("エラー時にERRORレベルのログが記録されていない。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Run_Idempotent_ZeroRows(t *testing.T) {
	var buf syncBuffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 0}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("%d回目の Run() がエラーを返した: %v", i+1, err)
		}
	}

	count, ok := findLogField(buf.String(), "deleted_count")
	if !ok || count != float64(0) {
		t.Errorf("0件削除時にもログに deleted_count=0 が記録されるべき。ログ出力: %s", buf.String())
	}
}

func TestNewScheduler_DefaultSchedule(t *testing.T) {
	var buf syncBuffer
	job := NewCleanupJob(&mockExecutor{result: &fakeResult{}}, newTestLogger(&buf))

	s := NewScheduler(job, "", newTestLogger(&buf))
	if s.schedule != DefaultSchedule {
		t.Errorf("schedule = %q, want %q", s.schedule, DefaultSchedule)
	}
}

func TestScheduler_Start_InvalidSchedule(t *testing.T) {
	var buf syncBuffer
	job := NewCleanupJob(&mockExecutor{result: &fakeResult{}}, newTestLogger(&buf))

	s := NewScheduler(job, "not a cron spec", newTestLogger(&buf))
	if err := s.Start(); err == nil {
		t.Fatal("不正なcron式でエラーが返されるべき")
	}
}

func TestScheduler_Start_ValidCronSpec(t *testing.T) {
	var buf syncBuffer
	job := NewCleanupJob(&mockExecutor{result: &fakeResult{}}, newTestLogger(&buf))

	s := NewScheduler(job, "0 3 * * *", newTestLogger(&buf))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() がエラーを返した: %v", err)
	}
	s.Stop()

	if !strings.Contains(buf.String(), "session cleanup scheduler started") {
		t.Errorf("開始ログが記録されていない: %s", buf.String())
	}
}

// Runは起動直後に1回ジョブを実行し、ctx終了で停止する
func TestScheduler_Run_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	var buf syncBuffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 1}}
	job := NewCleanupJob(mock, newTestLogger(&buf))
	s := NewScheduler(job, "@every 1h", newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for mock.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mock.calls() == 0 {
		t.Fatal("起動直後にジョブが実行されていない")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ctxキャンセル後にRunが終了しない")
	}
}
