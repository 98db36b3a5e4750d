package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/mindjournal/internal/apiclient"
	"github.com/hitoshi/mindjournal/internal/config"
	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/pomodoro"
)

// timerOptions はtimerサブコマンドのオプション。
type timerOptions struct {
	apiURL    string
	session   string
	timeout   time.Duration
	startType model.SessionType
	taskID    *string
	cycles    int
	durations pomodoro.Durations
	showStats bool
}

// parseTimerFlags はフラグを解析する。未指定の接続設定は環境変数の値を使う。
func parseTimerFlags(args []string, env config.TimerConfig, output io.Writer) (timerOptions, error) {
	defaults := pomodoro.DefaultDurations()

	fs := flag.NewFlagSet("timer", flag.ContinueOnError)
	fs.SetOutput(output)
	apiURL := fs.String("api", env.APIURL, "MindJournal APIのベースURL（MINDJOURNAL_API_URL）")
	session := fs.String("session", env.SessionToken, "ログインセッションID（MINDJOURNAL_SESSION）")
	startType := fs.String("type", string(model.SessionWork), "最初のセッション種別: work, short_break, long_break")
	task := fs.String("task", "", "作業セッションに紐づけるタスクID")
	cycles := fs.Int("cycles", 1, "連続して実行するセッション数")
	work := fs.Duration("work", defaults.Work, "作業セッションの長さ")
	shortBreak := fs.Duration("short-break", defaults.ShortBreak, "短い休憩の長さ")
	longBreak := fs.Duration("long-break", defaults.LongBreak, "長い休憩の長さ")
	stats := fs.Bool("stats", false, "開始前に今日の集計を表示する")

	if err := fs.Parse(args); err != nil {
		return timerOptions{}, err
	}

	opts := timerOptions{
		apiURL:    *apiURL,
		session:   *session,
		timeout:   env.Timeout,
		startType: model.SessionType(*startType),
		cycles:    *cycles,
		durations: pomodoro.Durations{Work: *work, ShortBreak: *shortBreak, LongBreak: *longBreak},
		showStats: *stats,
	}
	if *task != "" {
		opts.taskID = task
	}

	if opts.session == "" {
		return timerOptions{}, errors.New("session is required: set -session or MINDJOURNAL_SESSION")
	}
	if !opts.startType.Valid() {
		return timerOptions{}, fmt.Errorf("unknown session type %q", *startType)
	}
	if opts.cycles < 1 {
		return timerOptions{}, fmt.Errorf("cycles must be at least 1: %d", opts.cycles)
	}
	if opts.durations.Work <= 0 || opts.durations.ShortBreak <= 0 || opts.durations.LongBreak <= 0 {
		return timerOptions{}, errors.New("durations must be positive")
	}
	return opts, nil
}

// runTimer は端末でタイマーを動かし、完了したセッションをAPIに記録する。
// ctxが終了すると途中のセッションは破棄され、何も記録しない。
// inから"p"を読むと一時停止と再開を切り替える。
func runTimer(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	opts, err := parseTimerFlags(args, config.LoadTimer(), out)
	if err != nil {
		return err
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:      opts.apiURL,
		SessionToken: opts.session,
		Timeout:      opts.timeout,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	if opts.showStats {
		stats, err := client.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}
		fmt.Fprintf(out, "今日の完了: %d  累計セッション: %d  累計集中時間: %d分\n",
			stats.CompletedToday, stats.TotalSessions, stats.TotalFocusMinutes)
	}

	timer := pomodoro.NewTimer(client, pomodoro.DefaultDurations())
	if err := applyDurations(timer, opts.durations); err != nil {
		return err
	}
	return driveTimer(ctx, out, in, timer, opts, pomodoro.NewRealTicker)
}

// applyDurations は種別ごとの長さをIdle中のタイマーに設定する。
func applyDurations(timer *pomodoro.Timer, d pomodoro.Durations) error {
	for _, st := range []model.SessionType{model.SessionWork, model.SessionShortBreak, model.SessionLongBreak} {
		if err := timer.SetDuration(st, d.For(st)); err != nil {
			return err
		}
	}
	return nil
}

// driveTimer はcycles回分のセッションを順に実行する。controlsがnilでなければ操作入力を受け付ける。
func driveTimer(ctx context.Context, out io.Writer, controls io.Reader, timer *pomodoro.Timer, opts timerOptions, newTicker func() pomodoro.Ticker) error {
	if err := timer.SwitchType(opts.startType); err != nil {
		return err
	}
	timer.SelectTask(opts.taskID)
	if controls != nil {
		go watchControls(controls, timer, out)
	}

	for i := 0; i < opts.cycles; i++ {
		snap := timer.Snapshot()
		fmt.Fprintf(out, "[%s] 開始 (%s)\n", snap.Type, formatRemaining(snap.Total))

		ev, err := timer.Run(ctx, newTicker(), func(s pomodoro.Snapshot) {
			fmt.Fprintf(out, "\r[%s] %s ", s.Type, formatRemaining(s.Remaining))
		})
		fmt.Fprintln(out)
		if errors.Is(err, pomodoro.ErrTimerCancelled) {
			fmt.Fprintln(out, "中断しました。このセッションは記録されません。")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "[%s] 完了 %d分を記録しました。次: %s\n",
			ev.Completed.Type, ev.Completed.DurationMinutes, ev.Next)
	}

	fmt.Fprintf(out, "今日の作業セッション: %d\n", timer.Snapshot().CompletedToday)
	return nil
}

// watchControls は1行ずつ操作を読み、入力が尽きるまでタイマーに反映する。
func watchControls(controls io.Reader, timer *pomodoro.Timer, out io.Writer) {
	sc := bufio.NewScanner(controls)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "p":
			if err := timer.TogglePause(); err != nil {
				continue
			}
			if timer.Snapshot().State == pomodoro.StatePaused {
				fmt.Fprintln(out, "一時停止中（pで再開）")
			} else {
				fmt.Fprintln(out, "再開しました")
			}
		}
	}
}

// formatRemaining は残り時間をMM:SS形式にする。
func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
