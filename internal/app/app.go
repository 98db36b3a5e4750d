package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/mindjournal/internal/auth"
	"github.com/hitoshi/mindjournal/internal/config"
	"github.com/hitoshi/mindjournal/internal/database"
	"github.com/hitoshi/mindjournal/internal/handler"
	"github.com/hitoshi/mindjournal/internal/journal"
	"github.com/hitoshi/mindjournal/internal/logger"
	"github.com/hitoshi/mindjournal/internal/metrics"
	"github.com/hitoshi/mindjournal/internal/middleware"
	"github.com/hitoshi/mindjournal/internal/pomodoro"
	"github.com/hitoshi/mindjournal/internal/practice"
	"github.com/hitoshi/mindjournal/internal/repository"
	"github.com/hitoshi/mindjournal/internal/security"
	"github.com/hitoshi/mindjournal/internal/settings"
	"github.com/hitoshi/mindjournal/internal/timeline"
	"github.com/hitoshi/mindjournal/internal/todo"
	"github.com/hitoshi/mindjournal/internal/user"
	"github.com/hitoshi/mindjournal/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	// timer はAPIクライアントとして動くため、サーバー用の設定を必要としない
	if cmd == CommandTimer {
		logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runTimer(ctx, os.Stdin, os.Stdout, args[1:])
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// dbRetryInterval はDB疎通確認の再試行間隔。
const dbRetryInterval = 2 * time.Second

// openDB はDB接続を開き、疎通できるまで待つ。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := database.WaitReady(ctx, db, cfg.DBConnectAttempts, dbRetryInterval); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// buildRouter はリポジトリ・サービス・ハンドラーをワイヤリングしたHTTPハンドラーを返す。
// 返されるRateLimiterは呼び出し側がStopすること。
func buildRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (http.Handler, *middleware.RateLimiter) {
	// 1. リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	identRepo := repository.NewPostgresIdentityRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	answerRepo := repository.NewPostgresAnswerRepo(db)
	practiceRepo := repository.NewPostgresPracticeRepo(db)
	todoRepo := repository.NewPostgresTodoRepo(db)
	pomodoroRepo := repository.NewPostgresPomodoroSessionRepo(db)
	settingsRepo := repository.NewPostgresSettingsRepo(db)

	// 2. メトリクスとサニタイザ
	collector := metrics.NewCollector(reg)
	sanitizer := security.NewTextSanitizer()

	// 3. ドメインサービス
	oauthProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	authService := auth.NewService(
		oauthProvider, userRepo, identRepo, sessionRepo,
		auth.ServiceConfig{SessionTTL: time.Duration(cfg.SessionMaxAge) * time.Second},
	)

	journalService := journal.NewService(answerRepo, sanitizer, collector)
	practiceService := practice.NewService(practiceRepo, collector)
	todoService := todo.NewService(todoRepo, sanitizer)
	pomodoroService := pomodoro.NewService(pomodoroRepo, collector)
	settingsService := settings.NewService(settingsRepo)
	timelineService := timeline.NewService(journalService, practiceService)
	userService := user.NewService(userRepo, sessionRepo)

	// 4. ルーター
	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteConfig(cfg.RateLimitGeneral, cfg.RateLimitWrite),
	)

	deps := &handler.RouterDeps{
		SessionFinder:      sessionRepo,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		DB:             db,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:      cfg.BaseURL,
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},

		AnswerService:   journalService,
		PracticeService: practiceService,
		TodoService:     todoService,
		PomodoroService: pomodoroService,
		SettingsService: settingsService,
		TimelineService: timelineService,
		UserService:     userService,
	}

	router := handler.NewRouter(deps)
	return middleware.NewLoggingMiddleware(slog.Default())(router), rateLimiter
}

// newRegistry はGo/プロセスの標準コレクタを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	router, rateLimiter := buildRouter(cfg, db, newRegistry())
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの削除ジョブをcronスケジュールで実行し、シグナルで停止する。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	job := cleanup.NewCleanupJob(db, slog.Default())
	scheduler := cleanup.NewScheduler(job, cfg.SessionCleanupSchedule, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker starting",
		slog.String("session_cleanup_schedule", cfg.SessionCleanupSchedule),
	)

	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	state, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed",
		slog.Uint64("version", uint64(state.Version)),
		slog.Bool("dirty", state.Dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
