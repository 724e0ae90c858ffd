package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bookshelf/internal/model"
)

// GoalServiceInterface は読書目標ハンドラーが必要とするサービスインターフェース。
type GoalServiceInterface interface {
	SetGoal(ctx context.Context, year, targetBooks int) (*model.ReadingGoal, error)
	GetGoal(ctx context.Context, year int) (*model.ReadingGoal, error)
}

// GoalHandler は読書目標のHTTPハンドラー。
type GoalHandler struct {
	service GoalServiceInterface
}

// NewGoalHandler はGoalHandlerを生成する。
func NewGoalHandler(service GoalServiceInterface) *GoalHandler {
	return &GoalHandler{service: service}
}

// setGoalRequest は読書目標設定リクエストのボディ。
type setGoalRequest struct {
	Year        int `json:"year"`
	TargetBooks int `json:"target_books"`
}

// retargetGoalRequest は既存年の目標冊数変更リクエストのボディ。
type retargetGoalRequest struct {
	TargetBooks int `json:"target_books"`
}

// goalResponse は読書目標のAPIレスポンス。
type goalResponse struct {
	ID          string `json:"id"`
	Year        int    `json:"year"`
	TargetBooks int    `json:"target_books"`
	BooksRead   int    `json:"books_read"`
	Completed   bool   `json:"completed"`
}

// SetGoal は読書目標を作成または再設定する。
// POST /api/reading-goals
func (h *GoalHandler) SetGoal(w http.ResponseWriter, r *http.Request) {
	var req setGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	goal, err := h.service.SetGoal(r.Context(), req.Year, req.TargetBooks)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toGoalResponse(goal))
}

// RetargetGoal は指定年の目標冊数を変更する。
// PUT /api/reading-goals/{year}
func (h *GoalHandler) RetargetGoal(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYearParam(w, r)
	if !ok {
		return
	}

	var req retargetGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	goal, err := h.service.SetGoal(r.Context(), year, req.TargetBooks)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toGoalResponse(goal))
}

// GetGoal は指定年の読書目標を取得する。
// GET /api/reading-goals/{year}
func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYearParam(w, r)
	if !ok {
		return
	}

	goal, err := h.service.GetGoal(r.Context(), year)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toGoalResponse(goal))
}

// parseYearParam はURLパラメータから年を解析する。
// 解析失敗時はエラーレスポンスを書き込みfalseを返す。
func parseYearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "年の指定が不正です。",
			Category: "validation",
			Action:   "年は整数で指定してください。",
		})
		return 0, false
	}
	return year, true
}

// toGoalResponse はmodel.ReadingGoalからAPIレスポンスに変換する。
func toGoalResponse(goal *model.ReadingGoal) goalResponse {
	return goalResponse{
		ID:          goal.ID,
		Year:        goal.Year,
		TargetBooks: goal.TargetBooks,
		BooksRead:   goal.BooksRead,
		Completed:   goal.Completed,
	}
}
