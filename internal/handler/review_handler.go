package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/review"
)

// ReviewServiceInterface は書評ハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, params review.CreateReviewParams) (*model.Review, error)
	GetReview(ctx context.Context, reviewID string) (*model.Review, error)
	ListReviews(ctx context.Context) ([]*model.Review, error)
	ListReviewsByBook(ctx context.Context, bookID string) ([]*model.Review, error)
	UpdateReview(ctx context.Context, reviewID string, params review.UpdateReviewParams) (*model.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
}

// ReviewHandler は書評のHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// createReviewRequest は書評作成リクエストのボディ。
type createReviewRequest struct {
	BookID  string   `json:"book_id"`
	Rating  *float64 `json:"rating"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// updateReviewRequest は書評の部分更新リクエストのボディ。
type updateReviewRequest struct {
	Rating  *float64 `json:"rating"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

// reviewResponse は書評のAPIレスポンス。
type reviewResponse struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	Rating       *float64  `json:"rating"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	DateReviewed time.Time `json:"date_reviewed"`
}

// ListReviews は全書評の一覧を返す。
// GET /api/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toReviewResponses(reviews))
}

// CreateReview は書評を作成する。
// POST /api/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	created, err := h.service.CreateReview(r.Context(), review.CreateReviewParams{
		BookID:  req.BookID,
		Rating:  req.Rating,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toReviewResponse(created))
}

// GetReview は書評詳細を取得する。
// GET /api/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")

	rev, err := h.service.GetReview(r.Context(), reviewID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toReviewResponse(rev))
}

// UpdateReview は書評を部分更新する。
// PUT /api/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")

	var req updateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	updated, err := h.service.UpdateReview(r.Context(), reviewID, review.UpdateReviewParams{
		Rating:  req.Rating,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toReviewResponse(updated))
}

// DeleteReview は書評を削除する。
// DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")

	if err := h.service.DeleteReview(r.Context(), reviewID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByBook は指定蔵書の書評一覧を返す。
// GET /api/books/{id}/reviews
func (h *ReviewHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	reviews, err := h.service.ListReviewsByBook(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toReviewResponses(reviews))
}

// toReviewResponse はmodel.ReviewからAPIレスポンスに変換する。
func toReviewResponse(rev *model.Review) reviewResponse {
	return reviewResponse{
		ID:           rev.ID,
		BookID:       rev.BookID,
		Rating:       rev.Rating,
		Content:      rev.Content,
		Tags:         rev.Tags,
		DateReviewed: rev.DateReviewed,
	}
}

// toReviewResponses は書評スライスをAPIレスポンスのスライスに変換する。
func toReviewResponses(reviews []*model.Review) []reviewResponse {
	responses := make([]reviewResponse, 0, len(reviews))
	for _, rev := range reviews {
		responses = append(responses, toReviewResponse(rev))
	}
	return responses
}
