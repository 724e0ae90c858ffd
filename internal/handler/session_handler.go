package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bookshelf/internal/model"
)

// ReadingServiceInterface は読書セッションハンドラーが必要とするサービスインターフェース。
type ReadingServiceInterface interface {
	RecordSession(ctx context.Context, bookID string, pagesRead, minutesSpent int) (*model.ReadingSession, *model.Book, error)
	ListSessionsByBook(ctx context.Context, bookID string) ([]*model.ReadingSession, error)
	ListSessionsByDateRange(ctx context.Context, start, end time.Time) ([]*model.ReadingSession, error)
}

// SessionHandler は読書セッションのHTTPハンドラー。
type SessionHandler struct {
	service ReadingServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service ReadingServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

// recordSessionRequest は読書セッション記録リクエストのボディ。
type recordSessionRequest struct {
	BookID       string `json:"book_id"`
	PagesRead    int    `json:"pages_read"`
	MinutesSpent int    `json:"minutes_spent"`
}

// sessionResponse は読書セッションのAPIレスポンス。
type sessionResponse struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	PagesRead    int       `json:"pages_read"`
	MinutesSpent int       `json:"minutes_spent"`
	Date         time.Time `json:"date"`
}

// recordSessionResponse はセッション記録のAPIレスポンス。
// 記録されたセッションと進捗再計算後の蔵書を返す。
type recordSessionResponse struct {
	Session sessionResponse `json:"session"`
	Book    bookResponse    `json:"book"`
}

// dateRangeLayout は期間指定クエリパラメータの日付フォーマット。
const dateRangeLayout = "2006-01-02"

// RecordSession は読書セッションを記録する。
// POST /api/reading-sessions
func (h *SessionHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	var req recordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	session, book, err := h.service.RecordSession(r.Context(), req.BookID, req.PagesRead, req.MinutesSpent)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, recordSessionResponse{
		Session: toSessionResponse(session),
		Book:    toBookResponse(book),
	})
}

// ListByBook は指定蔵書の読書セッション一覧を返す。
// GET /api/books/{id}/reading-sessions
func (h *SessionHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	sessions, err := h.service.ListSessionsByBook(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toSessionResponses(sessions))
}

// ListByDateRange は指定期間内の読書セッション一覧を返す。
// GET /api/reading-sessions?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *SessionHandler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	startParam := r.URL.Query().Get("start_date")
	endParam := r.URL.Query().Get("end_date")

	start, err := time.ParseInLocation(dateRangeLayout, startParam, time.Local)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidDateRangeError())
		return
	}
	end, err := time.ParseInLocation(dateRangeLayout, endParam, time.Local)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidDateRangeError())
		return
	}

	// 終了日はその日の終わりまで含める
	end = end.Add(24*time.Hour - time.Second)

	sessions, err := h.service.ListSessionsByDateRange(r.Context(), start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toSessionResponses(sessions))
}

// newInvalidDateRangeError は期間指定の検証エラーを生成する。
func newInvalidDateRangeError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "期間の指定が不正です。",
		Category: "validation",
		Action:   "start_dateとend_dateをYYYY-MM-DD形式で指定してください。",
	}
}

// toSessionResponse はmodel.ReadingSessionからAPIレスポンスに変換する。
func toSessionResponse(session *model.ReadingSession) sessionResponse {
	return sessionResponse{
		ID:           session.ID,
		BookID:       session.BookID,
		PagesRead:    session.PagesRead,
		MinutesSpent: session.MinutesSpent,
		Date:         session.Date,
	}
}

// toSessionResponses はセッションスライスをAPIレスポンスのスライスに変換する。
func toSessionResponses(sessions []*model.ReadingSession) []sessionResponse {
	responses := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, toSessionResponse(session))
	}
	return responses
}
