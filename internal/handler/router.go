package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bookshelf/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// Prometheusメトリクスのハンドラー
	MetricsHandler http.Handler

	// ドメインサービス
	BookService    BookServiceInterface
	ReviewService  ReviewServiceInterface
	ReadingService ReadingServiceInterface
	GoalService    GoalServiceInterface
	StatsService   StatsServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewRecoveryMiddleware())

	bookHandler := NewBookHandler(deps.BookService)
	reviewHandler := NewReviewHandler(deps.ReviewService)
	sessionHandler := NewSessionHandler(deps.ReadingService)
	goalHandler := NewGoalHandler(deps.GoalService)
	statsHandler := NewStatsHandler(deps.StatsService)

	// ヘルスチェック（レート制限なし）
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheusメトリクス（レート制限なし）
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 蔵書管理
		r.Route("/api/books", func(r chi.Router) {
			r.Get("/", bookHandler.ListBooks)
			// POST /api/books - 蔵書作成（書き込み専用レート制限を追加）
			r.With(deps.RateLimiter.WriteMiddleware()).Post("/", bookHandler.CreateBook)

			r.Get("/wishlist", bookHandler.ListWishlist)
			r.Get("/status/{status}", bookHandler.ListByStatus)
			r.Get("/tags/{tag}", bookHandler.ListByTag)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bookHandler.GetBook)
				r.Put("/", bookHandler.UpdateBook)
				r.Delete("/", bookHandler.DeleteBook)

				r.Post("/wishlist", bookHandler.FlagWishlist)
				r.Delete("/wishlist", bookHandler.UnflagWishlist)
				r.Get("/cover", bookHandler.GetCover)

				// GET /api/books/{id}/reviews - 蔵書ごとの書評一覧
				r.Get("/reviews", reviewHandler.ListByBook)
				// GET /api/books/{id}/reading-sessions - 蔵書ごとのセッション一覧
				r.Get("/reading-sessions", sessionHandler.ListByBook)
			})
		})

		// 書評管理
		r.Route("/api/reviews", func(r chi.Router) {
			r.Get("/", reviewHandler.ListReviews)
			r.Post("/", reviewHandler.CreateReview)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reviewHandler.GetReview)
				r.Put("/", reviewHandler.UpdateReview)
				r.Delete("/", reviewHandler.DeleteReview)
			})
		})

		// 読書セッション
		r.Route("/api/reading-sessions", func(r chi.Router) {
			// POST /api/reading-sessions - セッション記録（書き込み専用レート制限を追加）
			r.With(deps.RateLimiter.WriteMiddleware()).Post("/", sessionHandler.RecordSession)
			r.Get("/", sessionHandler.ListByDateRange)
		})

		// 読書目標
		r.Route("/api/reading-goals", func(r chi.Router) {
			r.Post("/", goalHandler.SetGoal)

			r.Route("/{year}", func(r chi.Router) {
				r.Get("/", goalHandler.GetGoal)
				r.Put("/", goalHandler.RetargetGoal)
			})
		})

		// 読書統計
		r.Get("/api/statistics", statsHandler.GetStatistics)
	})

	return r
}
