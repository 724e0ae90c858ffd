package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/review"
)

// mockReviewService はReviewServiceInterfaceのモック実装。
type mockReviewService struct {
	createReviewFn      func(ctx context.Context, params review.CreateReviewParams) (*model.Review, error)
	getReviewFn         func(ctx context.Context, reviewID string) (*model.Review, error)
	listReviewsFn       func(ctx context.Context) ([]*model.Review, error)
	listReviewsByBookFn func(ctx context.Context, bookID string) ([]*model.Review, error)
	updateReviewFn      func(ctx context.Context, reviewID string, params review.UpdateReviewParams) (*model.Review, error)
	deleteReviewFn      func(ctx context.Context, reviewID string) error
}

func (m *mockReviewService) CreateReview(ctx context.Context, params review.CreateReviewParams) (*model.Review, error) {
	if m.createReviewFn != nil {
		return m.createReviewFn(ctx, params)
	}
	return nil, nil
}

func (m *mockReviewService) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	if m.getReviewFn != nil {
		return m.getReviewFn(ctx, reviewID)
	}
	return nil, nil
}

func (m *mockReviewService) ListReviews(ctx context.Context) ([]*model.Review, error) {
	if m.listReviewsFn != nil {
		return m.listReviewsFn(ctx)
	}
	return nil, nil
}

func (m *mockReviewService) ListReviewsByBook(ctx context.Context, bookID string) ([]*model.Review, error) {
	if m.listReviewsByBookFn != nil {
		return m.listReviewsByBookFn(ctx, bookID)
	}
	return nil, nil
}

func (m *mockReviewService) UpdateReview(ctx context.Context, reviewID string, params review.UpdateReviewParams) (*model.Review, error) {
	if m.updateReviewFn != nil {
		return m.updateReviewFn(ctx, reviewID, params)
	}
	return nil, nil
}

func (m *mockReviewService) DeleteReview(ctx context.Context, reviewID string) error {
	if m.deleteReviewFn != nil {
		return m.deleteReviewFn(ctx, reviewID)
	}
	return nil
}

func float64Ptr(v float64) *float64 {
	return &v
}

// --- POST /api/reviews テスト ---

func TestReviewHandler_CreateReview_Success(t *testing.T) {
	svc := &mockReviewService{
		createReviewFn: func(ctx context.Context, params review.CreateReviewParams) (*model.Review, error) {
			if params.BookID != "book-id-1" {
				t.Errorf("BookID = %q, want %q", params.BookID, "book-id-1")
			}
			if params.Rating == nil || *params.Rating != 4.5 {
				t.Errorf("Rating = %v, want 4.5", params.Rating)
			}
			return &model.Review{
				ID:           "review-id-1",
				BookID:       params.BookID,
				Rating:       params.Rating,
				Content:      params.Content,
				Tags:         params.Tags,
				DateReviewed: time.Now(),
			}, nil
		},
	}

	h := NewReviewHandler(svc)

	body := `{"book_id": "book-id-1", "rating": 4.5, "content": "<p>名著。</p>", "tags": ["おすすめ"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.CreateReview(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["id"] != "review-id-1" {
		t.Errorf("id = %v, want %q", result["id"], "review-id-1")
	}
}

func TestReviewHandler_CreateReview_InvalidRating_ReturnsBadRequest(t *testing.T) {
	svc := &mockReviewService{
		createReviewFn: func(ctx context.Context, params review.CreateReviewParams) (*model.Review, error) {
			return nil, model.NewInvalidRatingError(*params.Rating)
		},
	}

	h := NewReviewHandler(svc)

	body := `{"book_id": "book-id-1", "rating": 7.0}`
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateReview(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidRating {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeInvalidRating)
	}
}

func TestReviewHandler_CreateReview_UnknownBook_Returns404(t *testing.T) {
	svc := &mockReviewService{
		createReviewFn: func(ctx context.Context, params review.CreateReviewParams) (*model.Review, error) {
			return nil, model.NewBookNotFoundError(params.BookID)
		},
	}

	h := NewReviewHandler(svc)

	body := `{"book_id": "missing", "content": "感想"}`
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateReview(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- GET /api/reviews/{id} テスト ---

func TestReviewHandler_GetReview_NotFound_Returns404(t *testing.T) {
	svc := &mockReviewService{
		getReviewFn: func(ctx context.Context, reviewID string) (*model.Review, error) {
			return nil, model.NewReviewNotFoundError(reviewID)
		},
	}

	h := NewReviewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.GetReview(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeReviewNotFound {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeReviewNotFound)
	}
}

// --- PUT /api/reviews/{id} テスト ---

func TestReviewHandler_UpdateReview_PassesPartialParams(t *testing.T) {
	svc := &mockReviewService{
		updateReviewFn: func(ctx context.Context, reviewID string, params review.UpdateReviewParams) (*model.Review, error) {
			if params.Rating == nil || *params.Rating != 3.5 {
				t.Errorf("Rating = %v, want 3.5", params.Rating)
			}
			if params.Content != nil {
				t.Errorf("Content = %v, want nil（未指定フィールドは更新しない）", *params.Content)
			}
			return &model.Review{ID: reviewID, BookID: "book-id-1", Rating: float64Ptr(3.5)}, nil
		},
	}

	h := NewReviewHandler(svc)

	body := `{"rating": 3.5}`
	req := httptest.NewRequest(http.MethodPut, "/api/reviews/review-id-1", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "review-id-1")
	w := httptest.NewRecorder()

	h.UpdateReview(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// --- DELETE /api/reviews/{id} テスト ---

func TestReviewHandler_DeleteReview_ReturnsNoContent(t *testing.T) {
	svc := &mockReviewService{}

	h := NewReviewHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/review-id-1", nil)
	req = withChiURLParam(req, "id", "review-id-1")
	w := httptest.NewRecorder()

	h.DeleteReview(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

// --- GET /api/books/{id}/reviews テスト ---

func TestReviewHandler_ListByBook_Success(t *testing.T) {
	svc := &mockReviewService{
		listReviewsByBookFn: func(ctx context.Context, bookID string) ([]*model.Review, error) {
			if bookID != "book-id-1" {
				t.Errorf("bookID = %q, want %q", bookID, "book-id-1")
			}
			return []*model.Review{
				{ID: "r1", BookID: bookID, Content: "良かった"},
			}, nil
		},
	}

	h := NewReviewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/books/book-id-1/reviews", nil)
	req = withChiURLParam(req, "id", "book-id-1")
	w := httptest.NewRecorder()

	h.ListByBook(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("len(result) = %d, want 1", len(result))
	}
}
