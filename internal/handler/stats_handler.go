package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/stats"
)

// StatsServiceInterface は統計ハンドラーが必要とするサービスインターフェース。
type StatsServiceInterface interface {
	Compute(ctx context.Context, year int) (*stats.Statistics, error)
}

// StatsHandler は読書統計のHTTPハンドラー。
type StatsHandler struct {
	service StatsServiceInterface
}

// NewStatsHandler はStatsHandlerを生成する。
func NewStatsHandler(service StatsServiceInterface) *StatsHandler {
	return &StatsHandler{service: service}
}

// genreCountResponse はジャンル分布のAPIレスポンス。
type genreCountResponse struct {
	Genre      string  `json:"genre"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// statsResponse は読書統計のAPIレスポンス。
type statsResponse struct {
	Year               int                  `json:"year"`
	BooksRead          int                  `json:"books_read"`
	PagesRead          int                  `json:"pages_read"`
	ReadingTimeMinutes int                  `json:"reading_time_minutes"`
	AverageRating      float64              `json:"average_rating"`
	GenreDistribution  []genreCountResponse `json:"genre_distribution"`
	MonthlyBooks       [12]int              `json:"monthly_books"`
	Goal               *goalResponse        `json:"goal"`
}

// GetStatistics は読書統計を返す。
// GET /api/statistics?year=2025（省略時は現在の年）
func (h *StatsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if yearParam := r.URL.Query().Get("year"); yearParam != "" {
		parsed, err := strconv.Atoi(yearParam)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "年の指定が不正です。",
				Category: "validation",
				Action:   "年は整数で指定してください。",
			})
			return
		}
		year = parsed
	}

	result, err := h.service.Compute(r.Context(), year)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toStatsResponse(result))
}

// toStatsResponse はstats.StatisticsからAPIレスポンスに変換する。
func toStatsResponse(s *stats.Statistics) statsResponse {
	distribution := make([]genreCountResponse, 0, len(s.GenreDistribution))
	for _, gc := range s.GenreDistribution {
		distribution = append(distribution, genreCountResponse{
			Genre:      gc.Genre,
			Count:      gc.Count,
			Percentage: gc.Percentage,
		})
	}

	resp := statsResponse{
		Year:               s.Year,
		BooksRead:          s.BooksRead,
		PagesRead:          s.PagesRead,
		ReadingTimeMinutes: s.ReadingTimeMinutes,
		AverageRating:      s.AverageRating,
		GenreDistribution:  distribution,
		MonthlyBooks:       s.MonthlyBooks,
	}
	if s.Goal != nil {
		goal := toGoalResponse(s.Goal)
		resp.Goal = &goal
	}
	return resp
}
