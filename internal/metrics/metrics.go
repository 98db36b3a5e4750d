// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordPomodoroSession(sessionType string, minutes int)
	RecordTaskLink(linked bool)
	RecordAnswerCreated(answerType string)
	RecordPracticeCompleted(practiceType string, seconds int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	pomodoroSessions *prometheus.CounterVec
	focusMinutes     prometheus.Counter
	taskLinks        *prometheus.CounterVec
	answersCreated   *prometheus.CounterVec
	practiceSeconds  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindjournal_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mindjournal_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		pomodoroSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindjournal_pomodoro_sessions_total",
			Help: "記録されたポモドーロセッション数（種別ごと）",
		}, []string{"type"}),
		focusMinutes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindjournal_pomodoro_focus_minutes_total",
			Help: "workセッションの合計時間（分）",
		}),
		taskLinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindjournal_task_links_total",
			Help: "workセッション完了時のタスク連携結果（linked/noop）",
		}, []string{"result"}),
		answersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindjournal_answers_created_total",
			Help: "作成された振り返り回答数（種別ごと）",
		}, []string{"type"}),
		practiceSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindjournal_practice_seconds_total",
			Help: "呼吸法練習の合計時間（秒、種別ごと）",
		}, []string{"type"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.pomodoroSessions,
		c.focusMinutes,
		c.taskLinks,
		c.answersCreated,
		c.practiceSeconds,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordPomodoroSession はセッション記録を種別ごとに数え、workの場合は集中時間も加算する。
func (c *Collector) RecordPomodoroSession(sessionType string, minutes int) {
	c.pomodoroSessions.WithLabelValues(sessionType).Inc()
	if sessionType == "work" {
		c.focusMinutes.Add(float64(minutes))
	}
}

// RecordTaskLink はタスク連携の結果を記録する。
func (c *Collector) RecordTaskLink(linked bool) {
	result := "noop"
	if linked {
		result = "linked"
	}
	c.taskLinks.WithLabelValues(result).Inc()
}

// RecordAnswerCreated は回答の作成を記録する。
func (c *Collector) RecordAnswerCreated(answerType string) {
	c.answersCreated.WithLabelValues(answerType).Inc()
}

// RecordPracticeCompleted は練習時間を記録する。
func (c *Collector) RecordPracticeCompleted(practiceType string, seconds int) {
	c.practiceSeconds.WithLabelValues(practiceType).Add(float64(seconds))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
