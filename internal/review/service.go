// Package review は書評のドメインロジックを提供する。
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// ContentSanitizer はレビュー本文のサニタイズのインターフェース。
// internal/securityのContentSanitizerServiceを抽象化する。
type ContentSanitizer interface {
	Sanitize(rawHTML string) string
}

// ReviewService は書評のサービス層。
// 保存前に評価値の検証と本文のサニタイズを行う。
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	bookRepo   repository.BookRepository
	sanitizer  ContentSanitizer
}

// NewReviewService はReviewServiceの新しいインスタンスを生成する。
// sanitizerはnil許容で、nilの場合は本文をそのまま保存する。
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	bookRepo repository.BookRepository,
	sanitizer ContentSanitizer,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		bookRepo:   bookRepo,
		sanitizer:  sanitizer,
	}
}

// CreateReviewParams は書評作成の入力パラメータ。
type CreateReviewParams struct {
	BookID  string
	Rating  *float64 // 0.5〜5.0の0.5刻み。未評価の場合はnil
	Content string
	Tags    []string
}

// UpdateReviewParams は書評の部分更新パラメータ。
// nilのフィールドは変更されない。
type UpdateReviewParams struct {
	Rating  *float64
	Content *string
	Tags    []string // nilの場合は変更しない
}

// CreateReview は書評を作成する。
// 対象蔵書の存在確認と評価値の検証を行い、本文はサニタイズして保存する。
func (s *ReviewService) CreateReview(ctx context.Context, params CreateReviewParams) (*model.Review, error) {
	book, err := s.bookRepo.FindByID(ctx, params.BookID)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(params.BookID)
	}

	if params.Rating != nil && !model.IsValidRating(*params.Rating) {
		return nil, model.NewInvalidRatingError(*params.Rating)
	}

	review := &model.Review{
		ID:           uuid.New().String(),
		BookID:       params.BookID,
		Rating:       params.Rating,
		Content:      s.sanitize(params.Content),
		Tags:         params.Tags,
		DateReviewed: time.Now(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("レビューの保存に失敗しました: %w", err)
	}

	return review, nil
}

// GetReview は指定IDの書評を取得する。
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return nil, model.NewReviewNotFoundError(reviewID)
	}
	return review, nil
}

// ListReviews は全書評を返す。
func (s *ReviewService) ListReviews(ctx context.Context) ([]*model.Review, error) {
	reviews, err := s.reviewRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// ListReviewsByBook は指定蔵書の書評一覧を返す。
func (s *ReviewService) ListReviewsByBook(ctx context.Context, bookID string) ([]*model.Review, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}

	reviews, err := s.reviewRepo.ListByBookID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// UpdateReview は書評を部分更新する。
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID string, params UpdateReviewParams) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return nil, model.NewReviewNotFoundError(reviewID)
	}

	if params.Rating != nil {
		if !model.IsValidRating(*params.Rating) {
			return nil, model.NewInvalidRatingError(*params.Rating)
		}
		review.Rating = params.Rating
	}
	if params.Content != nil {
		review.Content = s.sanitize(*params.Content)
	}
	if params.Tags != nil {
		review.Tags = params.Tags
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("レビューの更新に失敗しました: %w", err)
	}

	return review, nil
}

// DeleteReview は指定IDの書評を削除する。
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string) error {
	deleted, err := s.reviewRepo.DeleteByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewReviewNotFoundError(reviewID)
	}
	return nil
}

// sanitize はサニタイザー設定時のみ本文をサニタイズする。
func (s *ReviewService) sanitize(content string) string {
	if s.sanitizer == nil {
		return content
	}
	return s.sanitizer.Sanitize(content)
}
