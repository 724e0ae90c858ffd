// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bookshelf/internal/book"
	"github.com/hitoshi/bookshelf/internal/model"
)

// BookServiceInterface は蔵書ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	CreateBook(ctx context.Context, params book.CreateBookParams) (*model.Book, error)
	GetBook(ctx context.Context, bookID string) (*model.Book, error)
	ListBooks(ctx context.Context) ([]*model.Book, error)
	ListBooksByStatus(ctx context.Context, status string) ([]*model.Book, error)
	ListWishlist(ctx context.Context) ([]*model.Book, error)
	ListBooksByTag(ctx context.Context, tag string) ([]*model.Book, error)
	UpdateBook(ctx context.Context, bookID string, params book.UpdateBookParams) (*model.Book, error)
	DeleteBook(ctx context.Context, bookID string) error
	SetWishlist(ctx context.Context, bookID string, flagged bool) (*model.Book, error)
	GetCover(ctx context.Context, bookID string) ([]byte, string, error)
}

// BookHandler は蔵書管理のHTTPハンドラー。
type BookHandler struct {
	service BookServiceInterface
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface) *BookHandler {
	return &BookHandler{service: service}
}

// createBookRequest は蔵書作成リクエストのボディ。
type createBookRequest struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genre       string   `json:"genre"`
	CoverURL    string   `json:"cover_url"`
	Pages       *int     `json:"pages"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	IsWishlist  bool     `json:"is_wishlist"`
	Tags        []string `json:"tags"`
}

// updateBookRequest は蔵書の部分更新リクエストのボディ。
// 省略されたフィールドは変更されない。
type updateBookRequest struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Genre       *string  `json:"genre"`
	CoverURL    *string  `json:"cover_url"`
	Pages       *int     `json:"pages"`
	Status      *string  `json:"status"`
	Progress    *int     `json:"progress"`
	Description *string  `json:"description"`
	IsWishlist  *bool    `json:"is_wishlist"`
	Tags        []string `json:"tags"`
}

// bookResponse は蔵書情報のAPIレスポンス。
type bookResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	Genre        string     `json:"genre"`
	CoverURL     string     `json:"cover_url,omitempty"`
	Pages        *int       `json:"pages"`
	Status       string     `json:"status"`
	Progress     *int       `json:"progress"`
	Description  string     `json:"description,omitempty"`
	IsWishlist   bool       `json:"is_wishlist"`
	Tags         []string   `json:"tags"`
	DateAdded    time.Time  `json:"date_added"`
	DateStarted  *time.Time `json:"date_started"`
	DateFinished *time.Time `json:"date_finished"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListBooks は全蔵書の一覧を返す。
// GET /api/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toBookResponses(books))
}

// CreateBook は蔵書を作成する。
// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	created, err := h.service.CreateBook(r.Context(), book.CreateBookParams{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		CoverURL:    req.CoverURL,
		Pages:       req.Pages,
		Status:      req.Status,
		Description: req.Description,
		IsWishlist:  req.IsWishlist,
		Tags:        req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toBookResponse(created))
}

// GetBook は蔵書詳細を取得する。
// GET /api/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	b, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toBookResponse(b))
}

// UpdateBook は蔵書を部分更新する。
// PUT /api/books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	updated, err := h.service.UpdateBook(r.Context(), bookID, book.UpdateBookParams{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		CoverURL:    req.CoverURL,
		Pages:       req.Pages,
		Status:      req.Status,
		Progress:    req.Progress,
		Description: req.Description,
		IsWishlist:  req.IsWishlist,
		Tags:        req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toBookResponse(updated))
}

// DeleteBook は蔵書と関連データを削除する。
// DELETE /api/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	if err := h.service.DeleteBook(r.Context(), bookID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByStatus は指定ステータスの蔵書一覧を返す。
// GET /api/books/status/{status}
func (h *BookHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")

	books, err := h.service.ListBooksByStatus(r.Context(), status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toBookResponses(books))
}

// ListWishlist はウィッシュリストの蔵書一覧を返す。
// GET /api/books/wishlist
func (h *BookHandler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListWishlist(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toBookResponses(books))
}

// ListByTag は指定タグを含む蔵書一覧を返す。
// GET /api/books/tags/{tag}
func (h *BookHandler) ListByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	books, err := h.service.ListBooksByTag(r.Context(), tag)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toBookResponses(books))
}

// FlagWishlist は蔵書をウィッシュリストに追加する。
// POST /api/books/{id}/wishlist
func (h *BookHandler) FlagWishlist(w http.ResponseWriter, r *http.Request) {
	h.setWishlist(w, r, true)
}

// UnflagWishlist は蔵書をウィッシュリストから外す。
// DELETE /api/books/{id}/wishlist
func (h *BookHandler) UnflagWishlist(w http.ResponseWriter, r *http.Request) {
	h.setWishlist(w, r, false)
}

func (h *BookHandler) setWishlist(w http.ResponseWriter, r *http.Request, flagged bool) {
	bookID := chi.URLParam(r, "id")

	updated, err := h.service.SetWishlist(r.Context(), bookID, flagged)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toBookResponse(updated))
}

// GetCover はキャッシュ済みカバー画像を返す。
// GET /api/books/{id}/cover
func (h *BookHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	data, mimeType, err := h.service.GetCover(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if data == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "COVER_NOT_FOUND",
			Message:  "カバー画像が登録されていません。",
			Category: "book",
			Action:   "カバー画像URLを設定してください。",
		})
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// --- ヘルパー関数 ---

// toBookResponse はmodel.BookからAPIレスポンスに変換する。
func toBookResponse(b *model.Book) bookResponse {
	return bookResponse{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Genre:        b.Genre,
		CoverURL:     b.CoverURL,
		Pages:        b.Pages,
		Status:       string(b.Status),
		Progress:     b.Progress,
		Description:  b.Description,
		IsWishlist:   b.IsWishlist,
		Tags:         b.Tags,
		DateAdded:    b.DateAdded,
		DateStarted:  b.DateStarted,
		DateFinished: b.DateFinished,
	}
}

// toBookResponses は蔵書スライスをAPIレスポンスのスライスに変換する。
// 空の場合もnullではなく空配列を返す。
func toBookResponses(books []*model.Book) []bookResponse {
	responses := make([]bookResponse, 0, len(books))
	for _, b := range books {
		responses = append(responses, toBookResponse(b))
	}
	return responses
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// newInvalidRequestError はリクエストボディ解析失敗のエラーを生成する。
func newInvalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeBookNotFound, model.ErrCodeReviewNotFound, model.ErrCodeGoalNotFound, "COVER_NOT_FOUND":
		return http.StatusNotFound
	case model.ErrCodeInvalidSession, model.ErrCodeInvalidRating, model.ErrCodeInvalidStatus,
		model.ErrCodeInvalidGoal, model.ErrCodeInvalidBook, "INVALID_REQUEST":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
