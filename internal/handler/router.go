package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mindjournal/internal/middleware"
)

func mountAuthRoutes(r chi.Router, h *AuthHandler) {
	r.Route("/auth", func(r chi.Router) {
		// OAuthフロー
		r.Get("/google/login", h.Login)
		r.Get("/google/callback", h.Callback)

		// セッション管理
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder      middleware.SessionFinder
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	CSRFConfig         middleware.CSRFConfig
	Metrics            middleware.HTTPMetricsRecorder // nilの場合はHTTPメトリクスを記録しない
	MetricsHandler     http.Handler                   // nilの場合は/metricsを公開しない

	// ヘルスチェック
	DB Pinger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	AnswerService   AnswerServiceInterface
	PracticeService PracticeServiceInterface
	TodoService     TodoServiceInterface
	PomodoroService PomodoroServiceInterface
	SettingsService SettingsServiceInterface
	TimelineService TimelineServiceInterface
	UserService     AccountWithdrawer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Metrics → CORS →
//	SessionMiddleware → RateLimit(General) → RateLimit(Write) → CSRF
//
// 認証ルート（/auth/*）、/health、/metrics はSession以降のチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins...))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	answerHandler := NewAnswerHandler(deps.AnswerService)
	practiceHandler := NewPracticeHandler(deps.PracticeService)
	todoHandler := NewTodoHandler(deps.TodoService)
	pomodoroHandler := NewPomodoroHandler(deps.PomodoroService)
	settingsHandler := NewSettingsHandler(deps.SettingsService)
	timelineHandler := NewTimelineHandler(deps.TimelineService)
	userHandler := NewUserHandler(deps.UserService, deps.AuthConfig)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	mountAuthRoutes(r, authHandler)

	// CSRFトークン取得
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(deps.RateLimiter.WriteMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Route("/api/answers", func(r chi.Router) {
			r.Get("/", answerHandler.ListAnswers)
			r.Post("/", answerHandler.CreateAnswer)
			r.Put("/{id}", answerHandler.UpdateAnswer)
			r.Delete("/{id}", answerHandler.DeleteAnswer)
		})

		r.Route("/api/practices", func(r chi.Router) {
			r.Get("/", practiceHandler.ListPractices)
			r.Post("/", practiceHandler.CreatePractice)
			r.Delete("/{id}", practiceHandler.DeletePractice)
		})

		r.Route("/api/todos", func(r chi.Router) {
			r.Get("/", todoHandler.ListTodos)
			r.Post("/", todoHandler.CreateTodo)
			r.Get("/counts", todoHandler.CountTodos)
			r.Put("/{id}", todoHandler.UpdateTodo)
			r.Delete("/{id}", todoHandler.DeleteTodo)
		})

		r.Route("/api/pomodoro-sessions", func(r chi.Router) {
			r.Get("/", pomodoroHandler.ListSessions)
			r.Post("/", pomodoroHandler.CreateSession)
			r.Get("/stats", pomodoroHandler.Stats)
		})

		r.Get("/api/settings", settingsHandler.GetSettings)
		r.Put("/api/settings", settingsHandler.UpdateSettings)

		r.Get("/api/timeline", timelineHandler.GetTimeline)
		r.Get("/api/timeline/export", timelineHandler.ExportTimeline)

		// ユーザー管理
		r.Delete("/api/users/me", userHandler.Withdraw)
	})

	return r
}
